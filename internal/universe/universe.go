package universe

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
)

// Reference indices (market-prefixed to avoid clashing with stock codes)
const (
	IndexShanghai = "sh000001" // 上证指数
	IndexShenzhen = "sz399001" // 深证成指
	IndexChiNext  = "sz399006" // 创业板指
)

type prefixRange struct {
	prefix  string
	segment contracts.Segment
}

// listingPrefixes 沪深 A 股代码段
var listingPrefixes = []prefixRange{
	{"600", contracts.SegmentMainSH},
	{"601", contracts.SegmentMainSH},
	{"603", contracts.SegmentMainSH},
	{"605", contracts.SegmentMainSH},
	{"000", contracts.SegmentMainSZ},
	{"001", contracts.SegmentMainSZ},
	{"002", contracts.SegmentMainSZ},
	{"003", contracts.SegmentMainSZ},
	{"300", contracts.SegmentChiNext},
	{"301", contracts.SegmentChiNext},
	{"688", contracts.SegmentSTAR},
}

// All generates every code in the listing ranges.
// Unlisted codes simply return nothing from the quote providers.
// ⭐ SSOT: 全市场代码池只在这里生成
func All() []string {
	codes := make([]string, 0, len(listingPrefixes)*1000)
	for _, p := range listingPrefixes {
		for i := 0; i < 1000; i++ {
			codes = append(codes, fmt.Sprintf("%s%03d", p.prefix, i))
		}
	}
	return codes
}

// ValidCode checks a plain 6-digit stock code
func ValidCode(code string) error {
	if len(code) != 6 {
		return fmt.Errorf("%w: %q", contracts.ErrInvalidCode, code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %q", contracts.ErrInvalidCode, code)
		}
	}
	return nil
}

// ParseCodes splits a comma-separated code list, skipping blanks
func ParseCodes(s string) ([]string, error) {
	var codes []string
	for _, c := range strings.Split(s, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if err := ValidCode(c); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, nil
}

// SegmentOf classifies a stock code by its listing prefix
func SegmentOf(code string) contracts.Segment {
	if len(code) < 3 {
		return contracts.SegmentUnknown
	}
	head := code[:3]
	for _, p := range listingPrefixes {
		if p.prefix == head {
			return p.segment
		}
	}
	switch {
	case strings.HasPrefix(code, "6"):
		return contracts.SegmentMainSH
	case strings.HasPrefix(code, "0"):
		return contracts.SegmentMainSZ
	}
	return contracts.SegmentUnknown
}

// LimitPct returns the daily price band of a segment in percent
func LimitPct(seg contracts.Segment) float64 {
	if seg.HighVolatility() {
		return 20
	}
	return 10
}

// LimitPrice returns the limit-up price rounded to the tick (0.01)
func LimitPrice(prevClose, limitPct float64) float64 {
	return ApplyPct(prevClose, limitPct)
}

// ApplyPct moves price by pct percent and rounds half away from zero to the tick.
// 用十进制计算, 9.15 × 1.1 得 10.07 而非浮点的 10.06
func ApplyPct(price, pct float64) float64 {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100)))
	return decimal.NewFromFloat(price).Mul(factor).Round(2).InexactFloat64()
}

// RoundTick rounds a price to the 0.01 tick
func RoundTick(price float64) float64 {
	return decimal.NewFromFloat(price).Round(2).InexactFloat64()
}

// ReferenceIndex picks the index that best tracks a segment
func ReferenceIndex(seg contracts.Segment) string {
	switch seg {
	case contracts.SegmentMainSZ:
		return IndexShenzhen
	case contracts.SegmentChiNext:
		return IndexChiNext
	default:
		return IndexShanghai
	}
}

// Exchange returns "sh" or "sz" for a plain or prefixed code
func Exchange(code string) string {
	if strings.HasPrefix(code, "sh") || strings.HasPrefix(code, "sz") {
		return code[:2]
	}
	if strings.HasPrefix(code, "6") || strings.HasPrefix(code, "9") {
		return "sh"
	}
	return "sz"
}

// Symbol returns the exchange-prefixed symbol, e.g. sh600519
func Symbol(code string) string {
	if strings.HasPrefix(code, "sh") || strings.HasPrefix(code, "sz") {
		return code
	}
	return Exchange(code) + code
}

// SecID returns the Eastmoney secid, e.g. 1.600519 or 0.399006
func SecID(code string) string {
	market := "0"
	if Exchange(code) == "sh" {
		market = "1"
	}
	return market + "." + strings.TrimPrefix(strings.TrimPrefix(code, "sh"), "sz")
}

// Batches partitions codes into fixed-size chunks; the last one may be shorter
func Batches(codes []string, size int) [][]string {
	if size <= 0 {
		size = len(codes)
	}
	batches := make([][]string, 0, (len(codes)+size-1)/max(size, 1))
	for start := 0; start < len(codes); start += size {
		end := min(start+size, len(codes))
		batches = append(batches, codes[start:end])
	}
	return batches
}
