package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shift-roster/backend/config"
	"shift-roster/backend/internal/api/handler"
	"shift-roster/backend/internal/api/middleware"
	"shift-roster/backend/internal/api/router"
	"shift-roster/backend/internal/app"
	"shift-roster/backend/internal/dto"
	applogger "shift-roster/backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// 0. .env 仅用于本地开发，不存在时忽略
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Int("timezone_offset_hours", cfg.Schedule.TimezoneOffsetHours),
	)

	if err := dto.RegisterValidators(); err != nil {
		logger.Fatal("注册参数校验规则失败", zap.Error(err))
	}

	// 3. 数据库（含迁移）、Redis、消息队列与 Service 层
	a, err := app.New(cfg, logger, app.Options{Migrate: true})
	if err != nil {
		logger.Fatal("初始化依赖失败", zap.Error(err))
	}
	defer a.Close()

	// 4. Handler 与路由
	h := handler.NewHandler(a.Service)
	var limiter middleware.RateLimiter
	if a.Redis != nil {
		limiter = a.Redis
	}
	engine := router.Setup(cfg, h, a.JWT, a.Service.Auth, limiter, a.Repo, logger)

	// 5. 进程内自动排班（多实例部署时也可改用 cmd/scheduler 单独运行）
	if cfg.Schedule.AutoEnabled {
		gen := a.AutoGenerator()
		if err := gen.Start(); err != nil {
			logger.Fatal("启动自动排班失败", zap.Error(err))
		}
		defer gen.Stop()
	}

	// 6. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 7. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务器已关闭")
}
