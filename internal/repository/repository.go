package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User        UserRepository
	Session     SessionRepository
	Pattern     PatternRepository
	Vacation    VacationRepository
	ShiftRule   ShiftRuleRepository
	ShiftChoice ShiftChoiceRepository
	Shift       ShiftRepository
	ScheduleLog ScheduleLogRepository
	Setting     SettingRepository
	AuditLog    AuditLogRepository
	Activity    ActivityLogRepository

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:        NewUserRepo(db),
		Session:     NewSessionRepo(db),
		Pattern:     NewPatternRepo(db),
		Vacation:    NewVacationRepo(db),
		ShiftRule:   NewShiftRuleRepo(db),
		ShiftChoice: NewShiftChoiceRepo(db),
		Shift:       NewShiftRepo(db),
		ScheduleLog: NewScheduleLogRepo(db),
		Setting:     NewSettingRepo(db),
		AuditLog:    NewAuditLogRepo(db),
		Activity:    NewActivityLogRepo(db),
		db:          db,
	}
}

// Transaction 在单个数据库事务内执行 fn，fn 返回错误或 panic 时整体回滚。
// 未绑定数据库的聚合（单元测试中手工组装的 mock）直接以自身执行 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// LockDate 获取按日期的事务级咨询锁，事务结束时自动释放。
// 同一日期的排班生成与选择提交在此串行化。必须在 Transaction 内调用。
func (r *Repository) LockDate(ctx context.Context, date string) error {
	if r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "roster:"+date).Error
}

// Ping 数据库健康检查
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
