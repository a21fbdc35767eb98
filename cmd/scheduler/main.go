// scheduler 独立运行自动排班轮询，适用于 server 关闭 schedule.auto_enabled 的部署。
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shift-roster/backend/config"
	"shift-roster/backend/internal/app"
	applogger "shift-roster/backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	a, err := app.New(cfg, logger, app.Options{})
	if err != nil {
		logger.Fatal("初始化依赖失败", zap.Error(err))
	}
	defer a.Close()

	if a.Redis == nil {
		logger.Warn("未连接 Redis，多个 scheduler 实例将仅依赖数据库约束去重")
	}

	gen := a.AutoGenerator()
	if err := gen.Start(); err != nil {
		logger.Fatal("启动自动排班失败", zap.Error(err))
	}

	logger.Info("scheduler 已启动",
		zap.String("poll_spec", cfg.Schedule.PollSpec),
		zap.Int("timezone_offset_hours", cfg.Schedule.TimezoneOffsetHours),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("scheduler 收到关闭信号", zap.String("signal", sig.String()))
	gen.Stop()
}
