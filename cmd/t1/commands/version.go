package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
)

// Version is set at build time: -ldflags "-X .../commands.Version=v1.2.0"
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本",
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := strategyconfig.Hash(strategyconfig.Default())
		if err != nil {
			return err
		}
		meta := strategyconfig.Default().Meta
		fmt.Printf("t1 %s (%s)\n", Version, runtime.Version())
		fmt.Printf("strategy %s %s (%s)\n", meta.StrategyID, meta.Version, shortHash(hash))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
