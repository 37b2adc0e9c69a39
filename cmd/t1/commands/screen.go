package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-t1/backend/internal/pipeline"
	"github.com/wonny/aegis-t1/backend/internal/selection"
	"github.com/wonny/aegis-t1/backend/internal/universe"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "执行一次尾盘选股",
	Long: `全市场执行一次完整选股流程并输出结果。

流程:
- 分批抓取行情 (失败批次跳过)
- 涨幅/量比/流通市值/ST 过滤
- 分时尾盘趋势、资金流、日K技术面、公告
- 评分 → 分数线 → 板块/概念分散 → 最终推荐
- 生成次日交易计划

Example:
  go run ./cmd/t1 screen
  go run ./cmd/t1 screen --news --strict
  go run ./cmd/t1 screen --codes 600519,000001 --json
  go run ./cmd/t1 screen --filter-only --change-min 2 --change-max 6 --limit 50`,
	RunE: runScreen,
}

var (
	screenNews         bool
	screenHighVol      bool
	screenPreferInflow bool
	screenStrict       bool
	screenJSON         bool
	screenFilterOnly   bool
	screenPublish      bool
	screenCodes        string
	screenTimeout      time.Duration

	screenChangeMin   float64
	screenChangeMax   float64
	screenVolRatioMin float64
	screenVolRatioMax float64
	screenCapMin      float64
	screenCapMax      float64
	screenLimit       int
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().BoolVar(&screenNews, "news", false, "启用外部新闻搜索")
	screenCmd.Flags().BoolVar(&screenHighVol, "high-vol", false, "包含创业板/科创板")
	screenCmd.Flags().BoolVar(&screenPreferInflow, "prefer-inflow", false, "优先尾盘资金流入")
	screenCmd.Flags().BoolVar(&screenStrict, "strict", false, "严格风控: 同板块/同概念各最多 2 只, 推荐最多 6 只")
	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "JSON 输出")
	screenCmd.Flags().BoolVar(&screenFilterOnly, "filter-only", false, "只执行条件过滤")
	screenCmd.Flags().BoolVar(&screenPublish, "publish", false, "发布结果到 Kafka")
	screenCmd.Flags().StringVar(&screenCodes, "codes", "", "只扫描指定代码 (逗号分隔)")
	screenCmd.Flags().DurationVar(&screenTimeout, "timeout", 3*time.Minute, "整体超时")

	// 未指定时沿用策略文件
	screenCmd.Flags().Float64Var(&screenChangeMin, "change-min", 0, "涨幅下限 (%)")
	screenCmd.Flags().Float64Var(&screenChangeMax, "change-max", 0, "涨幅上限 (%)")
	screenCmd.Flags().Float64Var(&screenVolRatioMin, "volume-ratio-min", 0, "量比下限")
	screenCmd.Flags().Float64Var(&screenVolRatioMax, "volume-ratio-max", 0, "量比上限")
	screenCmd.Flags().Float64Var(&screenCapMin, "market-cap-min", 0, "流通市值下限 (亿)")
	screenCmd.Flags().Float64Var(&screenCapMax, "market-cap-max", 0, "流通市值上限 (亿)")
	screenCmd.Flags().IntVar(&screenLimit, "limit", 0, "条件过滤后最多保留数量")
}

func screenOptions() pipeline.Options {
	return pipeline.Options{
		EnableNewsSearch:              screenNews,
		IncludeHighVolatilitySegments: screenHighVol,
		PreferTailInflow:              screenPreferInflow,
		StrictRiskControl:             screenStrict,
	}
}

// screenCriteria collects the criteria flags set on the command line
func screenCriteria(cmd *cobra.Command) (selection.Overrides, error) {
	var o selection.Overrides
	floats := []struct {
		flag string
		val  *float64
		dst  **float64
	}{
		{"change-min", &screenChangeMin, &o.ChangePctMin},
		{"change-max", &screenChangeMax, &o.ChangePctMax},
		{"volume-ratio-min", &screenVolRatioMin, &o.VolumeRatioMin},
		{"volume-ratio-max", &screenVolRatioMax, &o.VolumeRatioMax},
		{"market-cap-min", &screenCapMin, &o.FloatCapMin},
		{"market-cap-max", &screenCapMax, &o.FloatCapMax},
	}
	for _, f := range floats {
		if cmd.Flags().Changed(f.flag) {
			*f.dst = f.val
		}
	}
	if cmd.Flags().Changed("limit") {
		if screenLimit <= 0 {
			return o, fmt.Errorf("invalid --limit %d", screenLimit)
		}
		o.Limit = &screenLimit
	}
	return o, nil
}

func runScreen(cmd *cobra.Command, args []string) error {
	criteria, err := screenCriteria(cmd)
	if err != nil {
		return err
	}

	d, err := loadDeps(screenOptions())
	if err != nil {
		return err
	}
	defer d.Close()

	p := d.pipeline.WithCriteria(criteria)
	if screenCodes != "" {
		codes, err := universe.ParseCodes(screenCodes)
		if err != nil {
			return err
		}
		p = p.WithUniverse(codes)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, screenTimeout)
	defer cancel()

	if screenFilterOnly {
		result, err := p.Filter(ctx)
		if err != nil {
			return fmt.Errorf("filter: %w", err)
		}
		if screenJSON {
			return PrintJSON(result)
		}
		PrintHeader("条件过滤结果",
			fmt.Sprintf("Quotes : %d", result.Stats.Quotes),
			fmt.Sprintf("Passed : %d", len(result.Passed)),
		)
		for _, q := range result.Passed {
			fmt.Printf("  %-8s %-10s %+6.2f%%  量比 %.2f  换手 %.2f%%\n", q.Code, q.Name, q.ChangePct, q.VolumeRatio, q.TurnoverRate)
		}
		reasons := make([]string, 0, len(result.Filtered))
		for reason := range result.Filtered {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Printf("  filtered %-20s %d\n", reason, result.Filtered[reason])
		}
		return nil
	}

	result, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}

	if screenPublish {
		if err := d.publisher.Publish(ctx, result); err != nil {
			d.log.WithError(err).Error("Failed to publish result")
		}
	}

	if screenJSON {
		return PrintJSON(result)
	}
	PrintResult(result)
	return nil
}
