package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shift-roster/backend/internal/model"
)

// SettingRepository 自动排班设置数据访问接口（单行）
type SettingRepository interface {
	Get(ctx context.Context) (*model.AutoScheduleSetting, error)
	Save(ctx context.Context, setting *model.AutoScheduleSetting) error
}

type settingRepo struct {
	db *gorm.DB
}

// NewSettingRepo 创建 SettingRepository 实例
func NewSettingRepo(db *gorm.DB) SettingRepository {
	return &settingRepo{db: db}
}

func (r *settingRepo) Get(ctx context.Context) (*model.AutoScheduleSetting, error) {
	var s model.AutoScheduleSetting
	err := r.db.WithContext(ctx).
		Where("singleton = ?", true).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingRepo) Save(ctx context.Context, setting *model.AutoScheduleSetting) error {
	setting.Singleton = true
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "singleton"}},
		DoUpdates: clause.AssignmentColumns([]string{"auto_time24", "updated_by", "updated_at"}),
	}).Create(setting).Error
}
