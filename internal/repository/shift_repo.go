package repository

import (
	"context"

	"gorm.io/gorm"

	"shift-roster/backend/internal/model"
)

// ShiftRepository 排班结果数据访问接口
type ShiftRepository interface {
	// ExistsByDate 当日是否已有排班；这是“已生成”的权威判定
	ExistsByDate(ctx context.Context, date model.Date) (bool, error)
	BatchCreate(ctx context.Context, shifts []model.Shift) error
	ListByDate(ctx context.Context, date model.Date) ([]model.Shift, error)
	ListByUserRange(ctx context.Context, userID string, from, to model.Date) ([]model.Shift, error)
	ListByRange(ctx context.Context, from, to model.Date) ([]model.Shift, error)
}

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) ExistsByDate(ctx context.Context, date model.Date) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("date = ?", date).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

func (r *shiftRepo) BatchCreate(ctx context.Context, shifts []model.Shift) error {
	if len(shifts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(shifts, 200).Error
}

func (r *shiftRepo) ListByDate(ctx context.Context, date model.Date) ([]model.Shift, error) {
	var list []model.Shift
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN users ON users.user_id = shifts.user_id").
		Where("shifts.date = ?", date).
		Order("users.username ASC").
		Find(&list).Error
	return list, err
}

func (r *shiftRepo) ListByUserRange(ctx context.Context, userID string, from, to model.Date) ([]model.Shift, error) {
	var list []model.Shift
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, from, to).
		Order("date ASC").
		Find(&list).Error
	return list, err
}

func (r *shiftRepo) ListByRange(ctx context.Context, from, to model.Date) ([]model.Shift, error) {
	var list []model.Shift
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN users ON users.user_id = shifts.user_id").
		Where("shifts.date BETWEEN ? AND ?", from, to).
		Order("shifts.date ASC, users.username ASC").
		Find(&list).Error
	return list, err
}
