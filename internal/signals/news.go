package signals

import (
	"strings"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
)

// NewsClassifier matches announcement titles against negative keyword lists
type NewsClassifier struct {
	negative []string
	severe   []string
}

// NewNewsClassifier creates a classifier from the keyword table
func NewNewsClassifier(kw strategyconfig.Keywords) *NewsClassifier {
	return &NewsClassifier{
		negative: kw.NegativeNews,
		severe:   kw.SevereNews,
	}
}

// Check classifies items; a title matching a severe keyword is not counted as negative too
func (n *NewsClassifier) Check(items []contracts.Announcement) contracts.NewsCheck {
	check := contracts.NewsCheck{Checked: true}
	for _, item := range items {
		switch {
		case containsAny(item.Title, n.severe):
			check.Severe = append(check.Severe, item.Title)
		case containsAny(item.Title, n.negative):
			check.Negative = append(check.Negative, item.Title)
		}
	}
	return check
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
