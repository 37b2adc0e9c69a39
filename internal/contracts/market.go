package contracts

import (
	"fmt"
	"time"
)

// Segment 上市板块
type Segment string

const (
	SegmentMainSH  Segment = "main_sh" // 沪市主板
	SegmentMainSZ  Segment = "main_sz" // 深市主板
	SegmentChiNext Segment = "chinext" // 创业板 (20%)
	SegmentSTAR    Segment = "star"    // 科创板 (20%)
	SegmentUnknown Segment = "unknown"
)

// HighVolatility reports whether the segment trades under a 20% price band
func (s Segment) HighVolatility() bool {
	return s == SegmentChiNext || s == SegmentSTAR
}

// Quote is one security at one instant
// ⭐ SSOT: 行情快照，每次拉取全新创建，不做修改
type Quote struct {
	Code      string  `json:"code"` // 6 位代码, 如 600519
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	PrevClose float64 `json:"prev_close"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Volume    float64 `json:"volume"` // 手
	Amount    float64 `json:"amount"` // 元
	ChangePct float64 `json:"change_pct"`

	TurnoverRate float64 `json:"turnover_rate"` // %
	VolumeRatio  float64 `json:"volume_ratio"`
	FloatCap     float64 `json:"float_cap"` // 流通市值, 元
	TotalCap     float64 `json:"total_cap"` // 总市值, 元
	PE           float64 `json:"pe"`
}

// Valid reports whether the quote may enter the pipeline.
// A non-positive price means a halted or invalid security.
func (q Quote) Valid() bool {
	return q.Price > 0 && q.PrevClose > 0
}

// FloatCapYi returns the free-float market cap in 亿元
func (q Quote) FloatCapYi() float64 {
	return q.FloatCap / 1e8
}

// Candle is one security on one trading day
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	Close  float64   `json:"close"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Volume float64   `json:"volume"`
}

// Valid checks high >= max(open, close) >= min(open, close) >= low >= 0
func (c Candle) Valid() bool {
	hi, lo := c.Open, c.Close
	if lo > hi {
		hi, lo = lo, hi
	}
	return c.High >= hi && lo >= c.Low && c.Low >= 0 && c.Volume >= 0
}

// Period K 线周期
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod accepts daily, weekly or monthly; empty means daily
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodDaily, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// MinuteBar is one trading minute
type MinuteBar struct {
	Clock     string  `json:"clock"` // HH:MM
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"` // 本分钟成交量 (累计量差分)
	CumVolume float64 `json:"cum_volume"`
	Amount    float64 `json:"amount"` // 本分钟成交额, 元
}

// Notional returns the minute's traded amount, estimated from price when missing
func (b MinuteBar) Notional() float64 {
	if b.Amount > 0 {
		return b.Amount
	}
	return b.Price * b.Volume * 100
}

// MinuteWindow holds a session's in-hours minute bars
type MinuteWindow struct {
	Bars       []MinuteBar `json:"bars"`
	AfterClose bool        `json:"after_close"`
}

// Empty reports whether no bars were retained
func (w MinuteWindow) Empty() bool {
	return len(w.Bars) == 0
}

// Announcement is a titled company notice or news item
type Announcement struct {
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

// Sentiment 大盘情绪
type Sentiment string

const (
	SentimentStrong   Sentiment = "strong"
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentWeak     Sentiment = "weak"
	SentimentPanic    Sentiment = "panic"
	SentimentUnknown  Sentiment = "unknown"
)

// MarketEnvironment is a reference-index snapshot
type MarketEnvironment struct {
	IndexCode string    `json:"index_code"` // 如 sh000001
	Price     float64   `json:"price"`
	ChangePct float64   `json:"change_pct"`
	AboveMA5  bool      `json:"above_ma5"`
	Change5D  float64   `json:"change_5d"`
	Sentiment Sentiment `json:"sentiment"`
}

// Available reports whether the index snapshot was fetched
func (m MarketEnvironment) Available() bool {
	return m.Sentiment != SentimentUnknown && m.Price > 0
}
