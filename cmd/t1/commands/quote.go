package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-t1/backend/internal/universe"
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote [code...]",
	Short: "查询实时行情 (新浪)",
	Args:  cobra.MinimumNArgs(1),
	Example: `  go run ./cmd/t1 quote 600519
  go run ./cmd/t1 quote 600519 000001 300750`,
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	for _, code := range args {
		if err := universe.ValidCode(code); err != nil {
			return err
		}
	}

	d, err := loadDeps(screenOptions())
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Fetch.CallTimeout)
	defer cancel()

	quotes, err := d.sina.FetchQuotes(ctx, args)
	if err != nil {
		return fmt.Errorf("fetch quotes: %w", err)
	}

	for _, q := range quotes {
		seg := universe.SegmentOf(q.Code)
		limit := universe.LimitPrice(q.PrevClose, universe.LimitPct(seg))
		fmt.Printf("%-8s %-10s %8.2f %+7.2f%%  高 %.2f  低 %.2f  涨停 %.2f  [%s]\n",
			q.Code, q.Name, q.Price, q.ChangePct, q.High, q.Low, limit, seg)
	}
	if len(quotes) < len(args) {
		fmt.Printf("(%d code(s) returned no quote)\n", len(args)-len(quotes))
	}
	return nil
}
