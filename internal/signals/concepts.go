package signals

import (
	"strings"

	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
)

// ConceptTagger assigns concept tags from security names.
// A name matching no keyword gets the fallback tag.
type ConceptTagger struct {
	concepts []strategyconfig.Concept
	other    string
}

// NewConceptTagger creates a tagger from the keyword table
func NewConceptTagger(kw strategyconfig.Keywords) *ConceptTagger {
	return &ConceptTagger{
		concepts: kw.Concepts,
		other:    kw.OtherConcept,
	}
}

// Tags returns matching concept tags in table order
func (t *ConceptTagger) Tags(name string) []string {
	upper := strings.ToUpper(name)
	var tags []string
	for _, c := range t.concepts {
		for _, kw := range c.Keywords {
			if kw != "" && strings.Contains(upper, strings.ToUpper(kw)) {
				tags = append(tags, c.Tag)
				break
			}
		}
	}
	if len(tags) == 0 && t.other != "" {
		tags = []string{t.other}
	}
	return tags
}

// InConcept reports whether name hits any concept keyword
func (t *ConceptTagger) InConcept(name string) bool {
	tags := t.Tags(name)
	return len(tags) > 0 && !(len(tags) == 1 && tags[0] == t.other)
}
