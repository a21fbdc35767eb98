package repository

import (
	"context"

	"gorm.io/gorm"

	"shift-roster/backend/internal/model"
)

// ActivityFilter 业务活动筛选
type ActivityFilter struct {
	ActorID       string
	SubjectUserID string
	ActivityType  string
	Status        string
}

// ActivityLogRepository 业务活动数据访问接口
type ActivityLogRepository interface {
	Create(ctx context.Context, log *model.ActivityLog) error
	List(ctx context.Context, filter ActivityFilter, offset, limit int) ([]model.ActivityLog, int64, error)
}

type activityLogRepo struct {
	db *gorm.DB
}

// NewActivityLogRepo 创建 ActivityLogRepository 实例
func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, log *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *activityLogRepo) List(ctx context.Context, filter ActivityFilter, offset, limit int) ([]model.ActivityLog, int64, error) {
	var logs []model.ActivityLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ActivityLog{})
	if filter.ActorID != "" {
		db = db.Where("actor_id = ?", filter.ActorID)
	}
	if filter.SubjectUserID != "" {
		db = db.Where("subject_user_id = ?", filter.SubjectUserID)
	}
	if filter.ActivityType != "" {
		db = db.Where("activity_type = ?", filter.ActivityType)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
