package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "t1",
	Short: "Aegis T1 - A股尾盘 T+1 选股引擎",
	Long: `Aegis T1 Unified CLI

尾盘 (14:30-15:00) 全市场扫描，次日 T+1 卖出。
流程: 行情抓取 → 条件过滤 → 分时/日K分析 → 评分 → 分散化 → 交易计划。

Usage:
  go run ./cmd/t1 [command]

Examples:
  go run ./cmd/t1 screen
  go run ./cmd/t1 screen --news --json
  go run ./cmd/t1 api --port 8080
  go run ./cmd/t1 scheduler start
  go run ./cmd/t1 quote 600519 000001`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: $STRATEGY_CONFIG or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
