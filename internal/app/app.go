// Package app 组装各进程共用的依赖：数据库、Redis、消息队列、审计与 Service 层。
package app

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shift-roster/backend/config"
	"shift-roster/backend/internal/audit"
	"shift-roster/backend/internal/job"
	"shift-roster/backend/internal/repository"
	"shift-roster/backend/internal/service"
	"shift-roster/backend/pkg/clock"
	"shift-roster/backend/pkg/database"
	"shift-roster/backend/pkg/jwt"
	"shift-roster/backend/pkg/mq"
	"shift-roster/backend/pkg/redis"
)

// Options 组装选项
type Options struct {
	Migrate bool // 启动时执行数据库迁移
	Clock   clock.Clock
}

// App 进程级依赖
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *gorm.DB
	Repo      *repository.Repository
	Redis     *redis.Client // 连接失败时为 nil
	Publisher *mq.Publisher // 未启用或连接失败时为 nil
	Civil     *clock.Civil
	JWT       *jwt.Manager
	Recorder  *audit.Recorder
	Service   *service.Service
}

// New 按配置建立连接并完成依赖注入: Repository → Service
func New(cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, DB: db}

	if opts.Migrate {
		sqlDB, err := db.DB()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			a.Close()
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	// Redis 可选：连接失败时降级运行
	if rdb, err := redis.NewClient(&cfg.Redis, logger); err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、生成锁与登录限流将不可用", zap.Error(err))
	} else {
		a.Redis = rdb
	}

	a.Repo = repository.NewRepository(db)
	sinks := []audit.Sink{audit.NewGormSink(a.Repo.AuditLog)}
	if cfg.MQ.Enabled {
		if pub, err := mq.NewPublisher(&cfg.MQ, logger); err != nil {
			logger.Warn("RabbitMQ 连接失败，审计事件仅写入数据库", zap.Error(err))
		} else {
			a.Publisher = pub
			sinks = append(sinks, audit.NewMQSink(pub, cfg.MQ.RoutingKey))
		}
	}
	a.Recorder = audit.NewRecorder(logger, sinks...)

	a.Civil = clock.NewCivil(opts.Clock, cfg.Schedule.TimezoneOffsetHours)
	a.JWT = jwt.NewManager(&cfg.Auth)

	var blacklist service.TokenBlacklist
	if a.Redis != nil {
		blacklist = a.Redis
	}
	a.Service = service.NewService(service.Deps{
		Config:    cfg,
		Repo:      a.Repo,
		JWT:       a.JWT,
		Civil:     a.Civil,
		Blacklist: blacklist,
		Recorder:  a.Recorder,
		Logger:    logger,
	})
	return a, nil
}

// Locker 生成锁；Redis 不可用时返回 nil，由数据库唯一约束兜底
func (a *App) Locker() job.Locker {
	if a.Redis == nil {
		return nil
	}
	return a.Redis
}

// AutoGenerator 按配置创建自动排班轮询器
func (a *App) AutoGenerator() *job.AutoGenerator {
	return job.NewAutoGenerator(
		a.Service.Generation,
		a.Service.Setting,
		a.Civil,
		a.Locker(),
		job.Options{
			Spec:       a.Config.Schedule.PollSpec,
			RunTimeout: a.Config.Schedule.RunTimeout,
			LockTTL:    a.Config.Schedule.LockTTL,
		},
		a.Logger,
	)
}

// Close 释放连接，顺序与建立相反
func (a *App) Close() {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Warn("关闭 RabbitMQ 连接失败", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, _ := a.DB.DB(); sqlDB != nil {
		sqlDB.Close()
	}
}
