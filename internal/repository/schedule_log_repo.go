package repository

import (
	"context"

	"gorm.io/gorm"

	"shift-roster/backend/internal/model"
)

// ScheduleLogRepository 排班生成记录数据访问接口
type ScheduleLogRepository interface {
	// Create date 唯一，重复生成返回 gorm.ErrDuplicatedKey
	Create(ctx context.Context, log *model.ScheduleLog) error
	GetByDate(ctx context.Context, date model.Date) (*model.ScheduleLog, error)
	List(ctx context.Context, offset, limit int) ([]model.ScheduleLog, int64, error)
}

type scheduleLogRepo struct {
	db *gorm.DB
}

// NewScheduleLogRepo 创建 ScheduleLogRepository 实例
func NewScheduleLogRepo(db *gorm.DB) ScheduleLogRepository {
	return &scheduleLogRepo{db: db}
}

func (r *scheduleLogRepo) Create(ctx context.Context, log *model.ScheduleLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *scheduleLogRepo) GetByDate(ctx context.Context, date model.Date) (*model.ScheduleLog, error) {
	var log model.ScheduleLog
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *scheduleLogRepo) List(ctx context.Context, offset, limit int) ([]model.ScheduleLog, int64, error) {
	var logs []model.ScheduleLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ScheduleLog{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("date DESC").Offset(offset).Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
