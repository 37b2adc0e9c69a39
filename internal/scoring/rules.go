package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
)

// Rule is one independent scoring contribution
type Rule interface {
	Name() string
	Evaluate(c *contracts.Candidate) contracts.ScoreDelta
}

type ruleFunc struct {
	name string
	fn   func(c *contracts.Candidate) contracts.ScoreDelta
}

func (r ruleFunc) Name() string { return r.name }

func (r ruleFunc) Evaluate(c *contracts.Candidate) contracts.ScoreDelta { return r.fn(c) }

// Params are the per-run adaptive inputs
type Params struct {
	TailWeight       float64
	PreferTailInflow bool
}

// Rules returns the ordered rule list
// ⭐ SSOT: 评分规则顺序只在这里定义
func Rules(cfg *strategyconfig.Config, p Params) []Rule {
	s := cfg.Scoring
	return []Rule{
		ruleFunc{"tail_trend", tailTrendRule(s.TailTrend, p)},
		ruleFunc{"upside_room", upsideRule(s.UpsideRoom)},
		ruleFunc{"capital_flow", capitalFlowRule(s.CapitalFlow, p)},
		ruleFunc{"turnover", bandRule(s.Turnover, "换手率", func(c *contracts.Candidate) float64 { return c.Quote.TurnoverRate })},
		ruleFunc{"volume_ratio", bandRule(s.VolumeRatio, "量比", func(c *contracts.Candidate) float64 { return c.Quote.VolumeRatio })},
		ruleFunc{"change_pct", bandRule(s.ChangePct, "涨幅", func(c *contracts.Candidate) float64 { return c.Quote.ChangePct })},
		ruleFunc{"news", newsRule(s.News)},
		ruleFunc{"market_sentiment", marketSentimentRule(s.Market)},
		ruleFunc{"market_trend", marketTrendRule(s.Market)},
		ruleFunc{"limit_up", limitUpRule(s.LimitUp)},
		ruleFunc{"flash_crash", flagRule(s.Fraud.FlashCrash, func(c *contracts.Candidate) string {
			if !c.Flags.FlashCrash {
				return ""
			}
			return fmt.Sprintf("盘中闪崩%.1f%%", c.Flags.FlashDropPct)
		})},
		ruleFunc{"tail_trap", flagRule(s.Fraud.TailTrap, func(c *contracts.Candidate) string {
			if !c.Flags.TailTrap {
				return ""
			}
			return "全天低位运行后尾盘急拉，疑似诱多"
		})},
		ruleFunc{"fake_pump", flagRule(s.Fraud.FakePump, func(c *contracts.Candidate) string {
			if !c.Flags.FakePump {
				return ""
			}
			return "假拉升: " + c.Flags.FakePumpWhy
		})},
		ruleFunc{"phase", phaseRule(cfg.Technical, s.Technical)},
		ruleFunc{"rebound", reboundRule(s.Technical)},
		ruleFunc{"bull_run", bullRunRule(cfg.Technical, s.Technical)},
		ruleFunc{"gap", flagRule(s.Technical.Gap, func(c *contracts.Candidate) string {
			if !c.Technical.UnfilledGap {
				return ""
			}
			return "近期存在未回补跳空缺口"
		})},
		ruleFunc{"volume_surge", volumeSurgeRule(cfg.Technical, s.Technical)},
	}
}

// scaled applies an adaptive weight and rounds to whole points
func scaled(points int, weight float64) int {
	return int(math.Round(float64(points) * weight))
}

// delta turns signed points into a reason or a warning
func delta(points int, text string) contracts.ScoreDelta {
	d := contracts.ScoreDelta{Amount: points}
	switch {
	case points > 0:
		d.Reason = fmt.Sprintf("%s(+%d)", text, points)
	case points < 0:
		d.Warning = fmt.Sprintf("%s(%d)", text, points)
	}
	return d
}

func tailTrendRule(pts strategyconfig.TailTrendPoints, p Params) func(*contracts.Candidate) contracts.ScoreDelta {
	return func(c *contracts.Candidate) contracts.ScoreDelta {
		tt := c.TailTrend
		switch tt.Trend {
		case contracts.TrendStrongUp:
			return delta(scaled(pts.StrongUp, p.TailWeight), fmt.Sprintf("尾盘强势拉升%.2f%%", tt.TailChange))
		case contracts.TrendUp:
			return delta(scaled(pts.Up, p.TailWeight), fmt.Sprintf("尾盘稳步走高%.2f%%", tt.TailChange))
		case contracts.TrendDown:
			return delta(scaled(pts.Down, p.TailWeight), fmt.Sprintf("尾盘走弱%.2f%%", tt.TailChange))
		case contracts.TrendUnknown:
			return contracts.ScoreDelta{Warning: "分时数据不可用"}
		default:
			return contracts.ScoreDelta{}
		}
	}
}

func upsideRule(bands []strategyconfig.Band) func(*contracts.Candidate) contracts.ScoreDelta {
	return func(c *contracts.Candidate) contracts.ScoreDelta {
		if c.Upside.LimitPrice <= 0 {
			return contracts.ScoreDelta{}
		}
		pts, _ := strategyconfig.Lookup(bands, c.Upside.UpsidePct)
		if pts >= 0 {
			return delta(pts, fmt.Sprintf("距涨停%.1f%%，上涨空间充足", c.Upside.UpsidePct))
		}
		return delta(pts, fmt.Sprintf("距涨停仅%.1f%%", c.Upside.UpsidePct))
	}
}

func capitalFlowRule(pts strategyconfig.CapitalFlowPoints, p Params) func(*contracts.Candidate) contracts.ScoreDelta {
	weight := p.TailWeight
	if p.PreferTailInflow {
		weight *= pts.PreferFactor
	}
	return func(c *contracts.Candidate) contracts.ScoreDelta {
		f := c.Flow
		var base int
		var text string
		switch f.Strength {
		case contracts.FlowStrongIn:
			base, text = pts.Strong, "资金强势流入"
		case contracts.FlowWeakIn:
			base, text = pts.Weak, "资金温和流入"
		case contracts.FlowWeakOut:
			base, text = -pts.Weak, "资金小幅流出"
		case contracts.FlowStrongOut:
			base, text = -pts.Strong, "资金大幅流出"
		default:
			return contracts.ScoreDelta{}
		}
		return delta(scaled(base, weight), fmt.Sprintf("%s%.2f亿", text, f.NetInflow))
	}
}

func bandRule(bands []strategyconfig.Band, label string, value func(*contracts.Candidate) float64) func(*contracts.Candidate) contracts.ScoreDelta {
	return func(c *contracts.Candidate) contracts.ScoreDelta {
		v := value(c)
		pts, ok := strategyconfig.Lookup(bands, v)
		if !ok {
			return contracts.ScoreDelta{}
		}
		return delta(pts, fmt.Sprintf("%s%.2f", label, v))
	}
}

func newsRule(pts strategyconfig.NewsPoints) func(*contracts.Candidate) contracts.ScoreDelta {
	return func(c *contracts.Candidate) contracts.ScoreDelta {
		n := c.News
		switch {
		case !n.Checked:
			return contracts.ScoreDelta{Warning: "公告数据不可用"}
		case len(n.Severe) > 0:
			return delta(pts.Severe, "重大负面: "+strings.Join(n.Severe, "; "))
		case len(n.Negative) > 0:
			return delta(pts.Negative, "负面消息: "+strings.Join(n.Negative, "; "))
		default:
			return delta(pts.Clean, "近期无负面消息")
		}
	}
}

func marketSentimentRule(pts strategyconfig.MarketPoints) func(*contracts.Candidate) contracts.ScoreDelta {
	return func(c *contracts.Candidate) contracts.ScoreDelta {
		m := c.Market
		text := fmt.Sprintf("大盘%s %+.2f%%", m.IndexCode, m.ChangePct)
		switch m.Sentiment {
		case contracts.SentimentStrong:
			return delta(pts.Strong, text)
		case contracts.SentimentPositive:
			return delta(pts.Positive, text)
		case contracts.SentimentWeak:
			return delta(pts.Weak, text)
		case contracts.SentimentPanic:
			return delta(pts.Panic, text)
		case contracts.SentimentUnknown:
			return contracts.ScoreDelta{Warning: "大盘数据不可用"}
		default:
			return contracts.ScoreDelta{}
		}
	}
}

func marketTrendRule(pts strategyconfig.MarketPoints) func(*contracts.Candidate) contracts.ScoreDelta {
	return func(c *contracts.Candidate) contracts.ScoreDelta {
		m := c.Market
		if !m.Available() {
			return contracts.ScoreDelta{}
		}
		switch {
		case m.AboveMA5 && m.Change5D > 0:
			return delta(pts.TrendBonus, "大盘站上5日线")
		case !m.AboveMA5 && m.Change5D < 0:
			return delta(pts.TrendPenalty, "大盘跌破5日线")
		default:
			return contracts.ScoreDelta{}
		}
	}
}

func limitUpRule(pts strategyconfig.LimitUpPoints) func(*contracts.Candidate) contracts.ScoreDelta {
	return func(c *contracts.Candidate) contracts.ScoreDelta {
		u := c.Upside
		switch {
		case u.LimitPrice <= 0:
			return contracts.ScoreDelta{}
		case u.Sealed:
			return delta(pts.Sealed, "已封涨停，次日溢价不确定")
		case u.Touched:
			return delta(pts.Opened, "盘中触板后开板")
		case u.UpsidePct < pts.NearPct:
			return delta(pts.Near, "逼近涨停价")
		default:
			return contracts.ScoreDelta{}
		}
	}
}

// flagRule applies fixed points when describe returns a non-empty text
func flagRule(points int, describe func(*contracts.Candidate) string) func(*contracts.Candidate) contracts.ScoreDelta {
	return func(c *contracts.Candidate) contracts.ScoreDelta {
		text := describe(c)
		if text == "" {
			return contracts.ScoreDelta{}
		}
		return delta(points, text)
	}
}

func phaseRule(t strategyconfig.Technical, pts strategyconfig.TechnicalPoints) func(*contracts.Candidate) contracts.ScoreDelta {
	return func(c *contracts.Candidate) contracts.ScoreDelta {
		tr := c.Technical
		switch {
		case !tr.Available:
			return contracts.ScoreDelta{Warning: "日K数据不可用"}
		case tr.Phase >= t.PhaseSevere:
			return delta(pts.PhaseSevere, fmt.Sprintf("%d日涨幅%.1f%%，高位风险", t.PhaseBars, tr.Phase))
		case tr.Phase >= t.PhaseModerate:
			return delta(pts.PhaseModerate, fmt.Sprintf("%d日涨幅%.1f%%，位置偏高", t.PhaseBars, tr.Phase))
		default:
			return contracts.ScoreDelta{}
		}
	}
}

// reboundRule rewards a confirmed oversold rebound, scaled by its strength
func reboundRule(pts strategyconfig.TechnicalPoints) func(*contracts.Candidate) contracts.ScoreDelta {
	return func(c *contracts.Candidate) contracts.ScoreDelta {
		tr := c.Technical
		r := tr.Rebound
		if r == nil {
			return contracts.ScoreDelta{}
		}

		points := pts.ReboundBase
		if r.Recovery >= pts.ReboundRecoveryPct {
			points += pts.ReboundRecovery
		}
		if r.VolumeRatio >= pts.ReboundVolumeRatio {
			points += pts.ReboundVolume
		}
		if tr.RSI < pts.ReboundRSIBelow {
			points += pts.ReboundRSI
		}
		if tr.GoldenCross {
			points += pts.ReboundGoldenCross
		}
		return delta(points, fmt.Sprintf("超跌反弹确认: 回升%.1f%%，量能放大%.0f%%", r.Recovery, r.VolumeGain))
	}
}

// bullRunRule is suppressed when an oversold rebound already applies
func bullRunRule(t strategyconfig.Technical, pts strategyconfig.TechnicalPoints) func(*contracts.Candidate) contracts.ScoreDelta {
	return func(c *contracts.Candidate) contracts.ScoreDelta {
		tr := c.Technical
		if tr.Rebound != nil {
			return contracts.ScoreDelta{}
		}
		switch {
		case tr.BullRun >= t.RunSevere:
			return delta(pts.RunSevere, fmt.Sprintf("连续%d根阳线", tr.BullRun))
		case tr.BullRun >= t.RunModerate:
			return delta(pts.RunModerate, fmt.Sprintf("连续%d根阳线", tr.BullRun))
		default:
			return contracts.ScoreDelta{}
		}
	}
}

func volumeSurgeRule(t strategyconfig.Technical, pts strategyconfig.TechnicalPoints) func(*contracts.Candidate) contracts.ScoreDelta {
	return func(c *contracts.Candidate) contracts.ScoreDelta {
		v := c.Technical.VolumeSurge
		switch {
		case v >= t.SurgeSevere:
			return delta(pts.SurgeSevere, fmt.Sprintf("巨量%.1f倍", v))
		case v >= t.SurgeModerate:
			return delta(pts.SurgeModerate, fmt.Sprintf("放量%.1f倍", v))
		default:
			return contracts.ScoreDelta{}
		}
	}
}
