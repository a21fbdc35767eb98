// Package job 后台定时任务：按截止时间自动生成明日排班。
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/roster"
	"shift-roster/backend/internal/service"
	"shift-roster/backend/pkg/clock"
)

// Generator 排班生成能力，由 service.GenerationService 实现
type Generator interface {
	Exists(ctx context.Context, date string) (bool, error)
	Generate(ctx context.Context, date, callerID string, isAuto bool) (*dto.GenerationResponse, error)
}

// SettingSource 读取当前截止时间
type SettingSource interface {
	Current(ctx context.Context) (service.Setting, error)
}

// Locker 跨实例互斥；为 nil 时仅依赖数据库唯一约束
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Outcome 单次轮询结果
type Outcome string

const (
	OutcomeBeforeCutoff     Outcome = "before-cutoff"
	OutcomeAlreadyGenerated Outcome = "already-generated"
	OutcomeLocked           Outcome = "locked"
	OutcomeNoOfficers       Outcome = "no-officers"
	OutcomeGenerated        Outcome = "generated"
)

// Options 轮询参数
type Options struct {
	Spec       string        // cron 表达式，默认 @every 1m
	RunTimeout time.Duration // 单次轮询超时
	LockTTL    time.Duration
}

// AutoGenerator 自动排班轮询器。
// 每次轮询：未到截止时间 → 跳过；明日已生成 → 跳过；否则加锁后生成。
// 重复触发是安全的，最终由生成事务内的日期锁与唯一约束保证只生成一次。
type AutoGenerator struct {
	gen      Generator
	settings SettingSource
	civil    *clock.Civil
	locker   Locker
	opts     Options
	logger   *zap.Logger

	cron *cron.Cron
}

// NewAutoGenerator 创建轮询器
func NewAutoGenerator(gen Generator, settings SettingSource, civil *clock.Civil, locker Locker, opts Options, logger *zap.Logger) *AutoGenerator {
	if opts.Spec == "" {
		opts.Spec = "@every 1m"
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 30 * time.Second
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	return &AutoGenerator{
		gen:      gen,
		settings: settings,
		civil:    civil,
		locker:   locker,
		opts:     opts,
		logger:   logger,
	}
}

// lockKey 每个目标日期一把锁
func lockKey(date string) string {
	return "roster:generate:" + date
}

// Tick 执行一次轮询
func (g *AutoGenerator) Tick(ctx context.Context) (Outcome, error) {
	setting, err := g.settings.Current(ctx)
	if err != nil {
		return "", fmt.Errorf("读取自动排班设置失败: %w", err)
	}
	if !roster.CutoffPassed(g.civil.NowParts().MinuteOfDay(), setting.CutoffMinute) {
		return OutcomeBeforeCutoff, nil
	}

	date := g.civil.TomorrowISO()
	exists, err := g.gen.Exists(ctx, date)
	if err != nil {
		return "", fmt.Errorf("查询排班是否已生成失败: %w", err)
	}
	if exists {
		return OutcomeAlreadyGenerated, nil
	}

	if g.locker != nil {
		ok, err := g.locker.TryLock(ctx, lockKey(date), g.opts.LockTTL)
		if err != nil {
			// 锁服务不可用时继续，由数据库兜底
			g.logger.Warn("获取自动排班锁失败", zap.String("date", date), zap.Error(err))
		} else if !ok {
			return OutcomeLocked, nil
		} else {
			defer func() {
				if err := g.locker.Unlock(context.Background(), lockKey(date)); err != nil {
					g.logger.Warn("释放自动排班锁失败", zap.String("date", date), zap.Error(err))
				}
			}()
		}
	}

	resp, err := g.gen.Generate(ctx, date, "", true)
	switch {
	case errors.Is(err, service.ErrAlreadyGenerated):
		return OutcomeAlreadyGenerated, nil
	case errors.Is(err, service.ErrNoEligibleOfficers):
		g.logger.Warn("自动排班跳过：没有在岗官员", zap.String("date", date))
		return OutcomeNoOfficers, nil
	case err != nil:
		return "", err
	}

	g.logger.Info("自动排班完成",
		zap.String("date", date),
		zap.Int("assignments", len(resp.Assignments)),
		zap.Int("morning_limit", resp.Rule.MorningLimit),
		zap.Int("afternoon_limit", resp.Rule.AfternoonLimit),
	)
	return OutcomeGenerated, nil
}

// Start 注册 cron 任务并在后台运行
func (g *AutoGenerator) Start() error {
	cl := cronLogger{l: g.logger.Sugar()}
	g.cron = cron.New(
		cron.WithLocation(g.civil.Location()),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := g.cron.AddFunc(g.opts.Spec, g.run); err != nil {
		return fmt.Errorf("注册自动排班任务失败: %w", err)
	}
	g.cron.Start()
	g.logger.Info("自动排班轮询已启动", zap.String("spec", g.opts.Spec))
	return nil
}

// Stop 停止调度并等待正在执行的轮询结束
func (g *AutoGenerator) Stop() {
	if g.cron == nil {
		return
	}
	<-g.cron.Stop().Done()
	g.logger.Info("自动排班轮询已停止")
}

func (g *AutoGenerator) run() {
	ctx, cancel := context.WithTimeout(context.Background(), g.opts.RunTimeout)
	defer cancel()

	outcome, err := g.Tick(ctx)
	if err != nil {
		g.logger.Error("自动排班轮询失败", zap.Error(err))
		return
	}
	g.logger.Debug("自动排班轮询", zap.String("outcome", string(outcome)))
}

// cronLogger 将 cron 内部日志转到 zap
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
