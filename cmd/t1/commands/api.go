package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-t1/backend/internal/api"
	"github.com/wonny/aegis-t1/backend/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "启动 API 服务",
	Long: `启动 REST API 服务。

Endpoints:
  GET  /health              - Health check
  GET  /api/screen          - 条件过滤 (?change_min&change_max&volume_ratio_min&volume_ratio_max&market_cap_min&market_cap_max&limit)
  GET  /api/pick            - 完整选股 (?news&high_vol&prefer_inflow&strict, 同样接受过滤参数)
  GET  /api/hot             - 成交额排行 (?limit=20)
  GET  /api/filter          - 指定代码形态精选 (?codes=600519,000001)
  GET  /api/pick/latest     - 定时任务最近一次结果 (--with-scheduler)
  GET  /api/strategy        - 当前策略及哈希
  GET  /api/index           - 三大指数环境
  GET  /api/quote/{code}    - 单只行情
  GET  /api/kline/{code}    - K线 (?period=daily|weekly|monthly&days=60)

Example:
  go run ./cmd/t1 api
  go run ./cmd/t1 api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 服务端口 (默认 $PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "同时运行定时选股")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis T1 API Server ===")

	d, err := loadDeps(screenOptions())
	if err != nil {
		return err
	}
	defer d.Close()

	cfg, log := d.cfg, d.log
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// Optional in-process scheduler feeding /api/pick/latest
	var latest handlers.LatestSource
	if apiWithScheduler {
		sched, job, err := newScheduler(d)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		latest = job
		sched.Start()
		defer sched.Stop()
	}

	screenHandler := handlers.NewScreenHandler(d.pipeline, latest, log)
	stockHandler := handlers.NewStockHandler(d.sina, d.eastmoney, log)

	router := api.NewRouter(screenHandler, stockHandler, log)
	server := api.New(cfg.Port, cfg.Server, log, router)

	// Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Error("Failed to start server")
			os.Exit(1)
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	if err := server.Stop(); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
