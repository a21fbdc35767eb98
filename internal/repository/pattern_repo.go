package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shift-roster/backend/internal/model"
)

// PatternRepository 周期性约束（休息 / 全天 / 锁定班次）数据访问接口
// 同一官员同一星期每类约束至多一条，写入均为 upsert
type PatternRepository interface {
	ListDayOffsByWeekday(ctx context.Context, dayOfWeek int) ([]model.WeeklyDayOffPattern, error)
	ListFullTimesByWeekday(ctx context.Context, dayOfWeek int) ([]model.WeeklyFullTimePattern, error)
	ListLockedByWeekday(ctx context.Context, dayOfWeek int) ([]model.WeeklyLockedShiftPattern, error)

	ListDayOffsByUser(ctx context.Context, userID string) ([]model.WeeklyDayOffPattern, error)
	ListFullTimesByUser(ctx context.Context, userID string) ([]model.WeeklyFullTimePattern, error)
	ListLockedByUser(ctx context.Context, userID string) ([]model.WeeklyLockedShiftPattern, error)

	UpsertDayOff(ctx context.Context, p *model.WeeklyDayOffPattern) error
	UpsertFullTime(ctx context.Context, p *model.WeeklyFullTimePattern) error
	UpsertLocked(ctx context.Context, p *model.WeeklyLockedShiftPattern) error

	// Delete* 返回删除行数，0 表示不存在
	DeleteDayOff(ctx context.Context, userID string, dayOfWeek int) (int64, error)
	DeleteFullTime(ctx context.Context, userID string, dayOfWeek int) (int64, error)
	DeleteLocked(ctx context.Context, userID string, dayOfWeek int) (int64, error)
}

type patternRepo struct {
	db *gorm.DB
}

// NewPatternRepo 创建 PatternRepository 实例
func NewPatternRepo(db *gorm.DB) PatternRepository {
	return &patternRepo{db: db}
}

// userWeekday 唯一键 (user_id, day_of_week)
var userWeekday = []clause.Column{{Name: "user_id"}, {Name: "day_of_week"}}

// ── 按星期查询（排班快照） ──

func (r *patternRepo) ListDayOffsByWeekday(ctx context.Context, dayOfWeek int) ([]model.WeeklyDayOffPattern, error) {
	var list []model.WeeklyDayOffPattern
	err := r.db.WithContext(ctx).
		Where("day_of_week = ? AND is_active = ?", dayOfWeek, true).
		Find(&list).Error
	return list, err
}

func (r *patternRepo) ListFullTimesByWeekday(ctx context.Context, dayOfWeek int) ([]model.WeeklyFullTimePattern, error) {
	var list []model.WeeklyFullTimePattern
	err := r.db.WithContext(ctx).
		Where("day_of_week = ? AND is_active = ?", dayOfWeek, true).
		Find(&list).Error
	return list, err
}

func (r *patternRepo) ListLockedByWeekday(ctx context.Context, dayOfWeek int) ([]model.WeeklyLockedShiftPattern, error) {
	var list []model.WeeklyLockedShiftPattern
	err := r.db.WithContext(ctx).
		Where("day_of_week = ? AND is_active = ?", dayOfWeek, true).
		Find(&list).Error
	return list, err
}

// ── 按官员查询 ──

func (r *patternRepo) ListDayOffsByUser(ctx context.Context, userID string) ([]model.WeeklyDayOffPattern, error) {
	var list []model.WeeklyDayOffPattern
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("day_of_week ASC").
		Find(&list).Error
	return list, err
}

func (r *patternRepo) ListFullTimesByUser(ctx context.Context, userID string) ([]model.WeeklyFullTimePattern, error) {
	var list []model.WeeklyFullTimePattern
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("day_of_week ASC").
		Find(&list).Error
	return list, err
}

func (r *patternRepo) ListLockedByUser(ctx context.Context, userID string) ([]model.WeeklyLockedShiftPattern, error) {
	var list []model.WeeklyLockedShiftPattern
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("day_of_week ASC").
		Find(&list).Error
	return list, err
}

// ── Upsert ──

func (r *patternRepo) UpsertDayOff(ctx context.Context, p *model.WeeklyDayOffPattern) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   userWeekday,
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "updated_at"}),
	}).Create(p).Error
}

func (r *patternRepo) UpsertFullTime(ctx context.Context, p *model.WeeklyFullTimePattern) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   userWeekday,
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "updated_at"}),
	}).Create(p).Error
}

func (r *patternRepo) UpsertLocked(ctx context.Context, p *model.WeeklyLockedShiftPattern) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   userWeekday,
		DoUpdates: clause.AssignmentColumns([]string{"shift_type", "is_active", "updated_at"}),
	}).Create(p).Error
}

// ── 删除 ──

func (r *patternRepo) DeleteDayOff(ctx context.Context, userID string, dayOfWeek int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND day_of_week = ?", userID, dayOfWeek).
		Delete(&model.WeeklyDayOffPattern{})
	return result.RowsAffected, result.Error
}

func (r *patternRepo) DeleteFullTime(ctx context.Context, userID string, dayOfWeek int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND day_of_week = ?", userID, dayOfWeek).
		Delete(&model.WeeklyFullTimePattern{})
	return result.RowsAffected, result.Error
}

func (r *patternRepo) DeleteLocked(ctx context.Context, userID string, dayOfWeek int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND day_of_week = ?", userID, dayOfWeek).
		Delete(&model.WeeklyLockedShiftPattern{})
	return result.RowsAffected, result.Error
}
