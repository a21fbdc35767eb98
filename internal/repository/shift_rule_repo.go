package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shift-roster/backend/internal/model"
)

// ShiftRuleRepository 日配额数据访问接口
type ShiftRuleRepository interface {
	GetByDate(ctx context.Context, date model.Date) (*model.ShiftRule, error)
	// Upsert 手动设置配额，同日已有记录时覆盖
	Upsert(ctx context.Context, rule *model.ShiftRule) error
	// CreateIfAbsent 生成时冻结推导配额，已有记录时不覆盖
	CreateIfAbsent(ctx context.Context, rule *model.ShiftRule) error
	DeleteByDate(ctx context.Context, date model.Date) (int64, error)
	ListByRange(ctx context.Context, from, to model.Date) ([]model.ShiftRule, error)
}

type shiftRuleRepo struct {
	db *gorm.DB
}

// NewShiftRuleRepo 创建 ShiftRuleRepository 实例
func NewShiftRuleRepo(db *gorm.DB) ShiftRuleRepository {
	return &shiftRuleRepo{db: db}
}

func (r *shiftRuleRepo) GetByDate(ctx context.Context, date model.Date) (*model.ShiftRule, error) {
	var rule model.ShiftRule
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *shiftRuleRepo) Upsert(ctx context.Context, rule *model.ShiftRule) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"morning_limit", "afternoon_limit", "is_manual", "created_by", "updated_at",
		}),
	}).Create(rule).Error
}

func (r *shiftRuleRepo) CreateIfAbsent(ctx context.Context, rule *model.ShiftRule) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoNothing: true,
	}).Create(rule).Error
}

func (r *shiftRuleRepo) DeleteByDate(ctx context.Context, date model.Date) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("date = ?", date).
		Delete(&model.ShiftRule{})
	return result.RowsAffected, result.Error
}

func (r *shiftRuleRepo) ListByRange(ctx context.Context, from, to model.Date) ([]model.ShiftRule, error) {
	var list []model.ShiftRule
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", from, to).
		Order("date ASC").
		Find(&list).Error
	return list, err
}
