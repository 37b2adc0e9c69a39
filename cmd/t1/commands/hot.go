package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-t1/backend/internal/universe"
)

// hotCmd represents the hot command
var hotCmd = &cobra.Command{
	Use:   "hot",
	Short: "成交额排行",
	Example: `  go run ./cmd/t1 hot
  go run ./cmd/t1 hot --limit 50 --json`,
	RunE: runHot,
}

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [code...]",
	Short: "指定代码形态精选 (阶梯放量/站稳5日线/概念)",
	Long: `对给定代码逐一检查三项条件, 全部满足者优先;
不足 3 只时补入满足 2 项的代码, 最多输出 3 只。`,
	Args: cobra.MinimumNArgs(1),
	Example: `  go run ./cmd/t1 analyze 600519 000001 300750
  go run ./cmd/t1 analyze 600519,000001 --json`,
	RunE: runAnalyze,
}

var (
	hotLimit    int
	hotJSON     bool
	analyzeJSON bool
)

func init() {
	rootCmd.AddCommand(hotCmd)
	rootCmd.AddCommand(analyzeCmd)

	hotCmd.Flags().IntVar(&hotLimit, "limit", 20, "返回数量")
	hotCmd.Flags().BoolVar(&hotJSON, "json", false, "JSON 输出")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON 输出")
}

func runHot(cmd *cobra.Command, args []string) error {
	if hotLimit <= 0 {
		return fmt.Errorf("invalid --limit %d", hotLimit)
	}

	d, err := loadDeps(screenOptions())
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), screenTimeout)
	defer cancel()

	quotes, err := d.pipeline.Hot(ctx, hotLimit)
	if err != nil {
		return fmt.Errorf("hot: %w", err)
	}
	if hotJSON {
		return PrintJSON(quotes)
	}

	PrintHeader("成交额排行", fmt.Sprintf("Count : %d", len(quotes)))
	for i, q := range quotes {
		fmt.Printf("%3d. %-8s %-10s %8.2f %+7.2f%%  成交额 %8.2f亿  换手 %.2f%%\n",
			i+1, q.Code, q.Name, q.Price, q.ChangePct, q.Amount/1e8, q.TurnoverRate)
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	codes, err := universe.ParseCodes(strings.Join(args, ","))
	if err != nil {
		return err
	}

	d, err := loadDeps(screenOptions())
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), screenTimeout)
	defer cancel()

	result, err := d.pipeline.AnalyzeCodes(ctx, codes)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	if analyzeJSON {
		return PrintJSON(result)
	}

	PrintHeader("形态精选",
		fmt.Sprintf("Requested : %d", result.Requested),
		fmt.Sprintf("Analyzed  : %d", len(result.All)),
		fmt.Sprintf("Picked    : %d", len(result.Picks)),
	)
	mark := func(ok bool) string {
		if ok {
			return "✓"
		}
		return "✗"
	}
	for _, a := range result.All {
		fmt.Printf("  %-8s %-10s 放量 %s  站稳5日线 %s  概念 %s  MA5 %.2f  支撑 %.2f  %v\n",
			a.Code, a.Name, mark(a.LadderVolume), mark(a.AboveMA5High), mark(a.InConcept), a.MA5, a.Support, a.Concepts)
	}
	for i, a := range result.Picks {
		fmt.Printf("%d. %s %s (%d/3)\n", i+1, a.Code, a.Name, a.Hits())
	}
	return nil
}
