package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/universe"
)

// FetchQuotes fetches one batch of quotes via ulist.np.
// Records with a non-positive price are discarded.
func (c *Client) FetchQuotes(ctx context.Context, codes []string) ([]contracts.Quote, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	secids := make([]string, len(codes))
	for i, code := range codes {
		secids[i] = universe.SecID(code)
	}

	params := url.Values{}
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fields", quoteFields)
	params.Set("secids", strings.Join(secids, ","))

	body, err := c.httpClient.GetBytes(ctx, c.urls.QuoteURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("eastmoney quotes: %w", err)
	}

	quotes := parseQuotes(body)
	c.logger.WithFields(map[string]interface{}{
		"requested": len(codes),
		"parsed":    len(quotes),
	}).Debug("Fetched quote batch")

	return quotes, nil
}

// parseQuotes decodes data.diff; a missing array yields no quotes
func parseQuotes(body []byte) []contracts.Quote {
	diff := gjson.GetBytes(body, "data.diff")
	if !diff.Exists() {
		return nil
	}

	var quotes []contracts.Quote
	diff.ForEach(func(_, v gjson.Result) bool {
		q := contracts.Quote{
			Code:         strings.TrimSpace(v.Get("f12").String()),
			Name:         strings.TrimSpace(v.Get("f14").String()),
			Price:        num(v, "f2"),
			ChangePct:    num(v, "f3"),
			Volume:       num(v, "f5"),
			Amount:       num(v, "f6"),
			TurnoverRate: num(v, "f8"),
			PE:           num(v, "f9"),
			VolumeRatio:  num(v, "f10"),
			High:         num(v, "f15"),
			Low:          num(v, "f16"),
			Open:         num(v, "f17"),
			PrevClose:    num(v, "f18"),
			TotalCap:     num(v, "f20"),
			FloatCap:     num(v, "f21"),
		}
		if q.Code != "" && q.Valid() {
			quotes = append(quotes, q)
		}
		return true
	})
	return quotes
}

// num reads a numeric field; suspended securities report "-"
func num(v gjson.Result, field string) float64 {
	f := v.Get(field)
	if f.Type != gjson.Number {
		return 0
	}
	return f.Float()
}
