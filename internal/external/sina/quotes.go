package sina

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/universe"
)

// hqLine matches: var hq_str_sh600519="贵州茅台,1700.00,...";
var hqLine = regexp.MustCompile(`var hq_str_(\w+)="(.*)"`)

// minQuoteFields 新浪 A 股行情至少 32 个字段
const minQuoteFields = 32

// FetchQuotes fetches realtime quotes.
// Sina does not report turnover, volume ratio or market cap; those stay zero.
func (c *Client) FetchQuotes(ctx context.Context, codes []string) ([]contracts.Quote, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	symbols := make([]string, len(codes))
	for i, code := range codes {
		symbols[i] = universe.Symbol(code)
	}

	text, err := c.fetchGBK(ctx, c.urls.QuoteURL+strings.Join(symbols, ","))
	if err != nil {
		return nil, fmt.Errorf("sina quotes: %w", err)
	}

	quotes := parseQuotes(text)
	c.logger.WithFields(map[string]interface{}{
		"requested": len(codes),
		"parsed":    len(quotes),
	}).Debug("Fetched sina quotes")

	return quotes, nil
}

// parseQuotes parses the hq_str payload; bad lines are skipped individually
func parseQuotes(text string) []contracts.Quote {
	var quotes []contracts.Quote
	for _, line := range strings.Split(text, "\n") {
		m := hqLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil || m[2] == "" {
			continue
		}

		parts := strings.Split(m[2], ",")
		if len(parts) < minQuoteFields {
			continue
		}

		q, ok := parseQuote(strings.TrimPrefix(strings.TrimPrefix(m[1], "sh"), "sz"), parts)
		if ok {
			quotes = append(quotes, q)
		}
	}
	return quotes
}

// 字段: 0 名称 1 今开 2 昨收 3 现价 4 最高 5 最低 8 成交量(股) 9 成交额
func parseQuote(code string, parts []string) (contracts.Quote, bool) {
	var vals [10]float64
	for _, i := range []int{1, 2, 3, 4, 5, 8, 9} {
		if parts[i] == "" {
			continue
		}
		f, err := strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return contracts.Quote{}, false
		}
		vals[i] = f
	}

	q := contracts.Quote{
		Code:      code,
		Name:      strings.TrimSpace(parts[0]),
		Open:      vals[1],
		PrevClose: vals[2],
		Price:     vals[3],
		High:      vals[4],
		Low:       vals[5],
		Volume:    vals[8] / 100,
		Amount:    vals[9],
	}
	if !q.Valid() {
		return contracts.Quote{}, false
	}
	q.ChangePct = math.Round((q.Price-q.PrevClose)/q.PrevClose*10000) / 100
	return q, true
}
