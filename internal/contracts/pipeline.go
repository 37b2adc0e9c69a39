package contracts

import (
	"errors"
	"time"
)

// Stage 流水线阶段
// 所有日志使用这些常量
//
// 流程:
//
//	fetch → filter → analyze → score → select → plan
type Stage string

const (
	StageFetch   Stage = "T1_FETCH"   // 全市场批量行情
	StageFilter  Stage = "T1_FILTER"  // 条件粗筛
	StageAnalyze Stage = "T1_ANALYZE" // 分时 + 日 K 指标
	StageScore   Stage = "T1_SCORE"   // 规则打分
	StageSelect  Stage = "T1_SELECT"  // 排序与分散化
	StagePlan    Stage = "T1_PLAN"    // 交易计划
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

var (
	// ErrNoData 全市场没有任何可用行情
	ErrNoData = errors.New("no usable quote data")
	// ErrInvalidCode 证券代码格式错误
	ErrInvalidCode = errors.New("invalid security code")
	// ErrInvalidPeriod K 线周期不支持
	ErrInvalidPeriod = errors.New("invalid kline period")
	// ErrNoCodes 代码列表为空
	ErrNoCodes = errors.New("no codes requested")
)

// RunOptions 单次运行开关
type RunOptions struct {
	EnableNewsSearch              bool `json:"enable_news_search"`
	IncludeHighVolatilitySegments bool `json:"include_high_volatility_segments"`
	PreferTailInflow              bool `json:"prefer_tail_inflow"`
	StrictRiskControl             bool `json:"strict_risk_control"`
}

// RunStats 运行统计
type RunStats struct {
	UniverseSize     int           `json:"universe_size"`
	BatchesAttempted int           `json:"batches_attempted"`
	BatchesSucceeded int           `json:"batches_succeeded"`
	Quotes           int           `json:"quotes"`
	Filtered         int           `json:"filtered"`
	Analyzed         int           `json:"analyzed"`
	Qualified        int           `json:"qualified"`
	Picked           int           `json:"picked"`
	PatternPool      int           `json:"pattern_pool"`
	Duration         time.Duration `json:"duration_ns"`
}

// ScreenResult is the outward result of one run
// ⭐ SSOT: 一次运行的完整输出，不持久化
type ScreenResult struct {
	RunID       string             `json:"run_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	StrategyID  string             `json:"strategy_id"`
	ConfigHash  string             `json:"config_hash"`
	Options     RunOptions         `json:"options"`
	Threshold   int                `json:"threshold"`
	TailWeight  float64            `json:"tail_weight"`
	Market      MarketEnvironment  `json:"market"`
	Stats       RunStats           `json:"stats"`
	Candidates  []CandidateSummary `json:"candidates"`  // 全部达标候选, 已排序
	Picks       []CandidateSummary `json:"picks"`       // 分散化后的精选
	FinalPicks  []CandidateSummary `json:"final_picks"` // 最终推荐 (含补充)
}
