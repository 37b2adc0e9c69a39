package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 所有命令使用同一种输出格式
// ═══════════════════════════════════════════════════════════

const (
	ruleHeavy = "═══════════════════════════════════════════════════════════"
	ruleLight = "───────────────────────────────────────────────────────────"
)

// PrintHeader prints a formatted section header
func PrintHeader(title string, lines ...string) {
	fmt.Println()
	fmt.Println(ruleHeavy)
	fmt.Printf("  %s\n", title)
	if len(lines) > 0 {
		fmt.Println(ruleLight)
		for _, l := range lines {
			fmt.Printf("  %s\n", l)
		}
	}
	fmt.Println(ruleHeavy)
}

// PrintJSON writes v as indented JSON to stdout
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintResult prints a screening result as a table
func PrintResult(r *contracts.ScreenResult) {
	PrintHeader("尾盘选股结果",
		fmt.Sprintf("Time      : %s", r.GeneratedAt.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("Strategy  : %s (%s)", r.StrategyID, shortHash(r.ConfigHash)),
		fmt.Sprintf("Market    : %s %+.2f%% %s", r.Market.IndexCode, r.Market.ChangePct, r.Market.Sentiment),
		fmt.Sprintf("Threshold : %d   Tail weight: %.1f", r.Threshold, r.TailWeight),
		fmt.Sprintf("Universe  : %d → quotes %d → filtered %d → analyzed %d",
			r.Stats.UniverseSize, r.Stats.Quotes, r.Stats.Filtered, r.Stats.Analyzed),
	)

	printSummaries("达标候选", r.Candidates)
	printSummaries("最终推荐", r.FinalPicks)

	for _, p := range r.FinalPicks {
		if p.Plan == nil {
			continue
		}
		fmt.Printf("\n[%s %s] 买入 %.2f  止损 %.2f (%.1f%%)  止盈 %.2f (+%.1f%%)\n",
			p.Code, p.Name, p.Plan.Entry, p.Plan.StopLoss, p.Plan.StopPct, p.Plan.TakeProfit, p.Plan.TargetPct)
		for _, c := range p.Plan.Contingencies {
			fmt.Printf("  - %s: %s\n", c.Condition, c.Action)
		}
		if len(p.Reasons) > 0 {
			fmt.Printf("  理由: %s\n", strings.Join(p.Reasons, "; "))
		}
		if len(p.Warnings) > 0 {
			fmt.Printf("  风险: %s\n", strings.Join(p.Warnings, "; "))
		}
	}
	fmt.Println()
}

func printSummaries(title string, list []contracts.CandidateSummary) {
	fmt.Printf("\n%s (%d)\n", title, len(list))
	fmt.Println(ruleLight)
	if len(list) == 0 {
		fmt.Println("  (无)")
		return
	}
	fmt.Printf("  %-8s %-10s %6s %7s %6s %7s %-6s %s\n", "CODE", "NAME", "SCORE", "CHG%", "EXP%", "RISK", "SRC", "CONCEPTS")
	for _, s := range list {
		src := string(s.Source)
		if s.Hot {
			src += "*"
		}
		fmt.Printf("  %-8s %-10s %6d %+7.2f %6.1f %7s %-6s %s\n",
			s.Code, s.Name, s.Score, s.ChangePct, s.Expected, s.Risk, src, strings.Join(s.Concepts, ","))
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
