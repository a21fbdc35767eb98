package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shift-roster/backend/internal/model"
)

// ShiftChoiceRepository 班次偏好数据访问接口
type ShiftChoiceRepository interface {
	// Upsert 同一官员同日仅保留一条偏好
	Upsert(ctx context.Context, choice *model.ShiftChoice) error
	Get(ctx context.Context, userID string, date model.Date) (*model.ShiftChoice, error)
	ListByDate(ctx context.Context, date model.Date) ([]model.ShiftChoice, error)
	// CountByChoiceExcludingUser 当日选择某班次的人数，不含指定官员
	CountByChoiceExcludingUser(ctx context.Context, date model.Date, choice model.ShiftType, userID string) (int64, error)
	Delete(ctx context.Context, userID string, date model.Date) (int64, error)
}

type shiftChoiceRepo struct {
	db *gorm.DB
}

// NewShiftChoiceRepo 创建 ShiftChoiceRepository 实例
func NewShiftChoiceRepo(db *gorm.DB) ShiftChoiceRepository {
	return &shiftChoiceRepo{db: db}
}

func (r *shiftChoiceRepo) Upsert(ctx context.Context, choice *model.ShiftChoice) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"choice", "updated_at"}),
	}).Create(choice).Error
}

func (r *shiftChoiceRepo) Get(ctx context.Context, userID string, date model.Date) (*model.ShiftChoice, error) {
	var c model.ShiftChoice
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *shiftChoiceRepo) ListByDate(ctx context.Context, date model.Date) ([]model.ShiftChoice, error) {
	var list []model.ShiftChoice
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *shiftChoiceRepo) CountByChoiceExcludingUser(ctx context.Context, date model.Date, choice model.ShiftType, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ShiftChoice{}).
		Where("date = ? AND choice = ? AND user_id <> ?", date, choice, userID).
		Count(&n).Error
	return n, err
}

func (r *shiftChoiceRepo) Delete(ctx context.Context, userID string, date model.Date) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Delete(&model.ShiftChoice{})
	return result.RowsAffected, result.Error
}
