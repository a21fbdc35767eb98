package repository

import (
	"context"

	"gorm.io/gorm"

	"shift-roster/backend/internal/model"
	pkgerrors "shift-roster/backend/pkg/errors"
)

// UserFilter 用户列表筛选
type UserFilter struct {
	Role     string
	IsActive *bool
	Keyword  string
}

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// Update 基于 version 的乐观锁更新，冲突返回 ErrOptimisticLock
	Update(ctx context.Context, user *model.User) error
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error)
	ListActiveOfficers(ctx context.Context) ([]model.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	oldVersion := user.Version
	result := r.db.WithContext(ctx).
		Model(user).
		Where("user_id = ? AND version = ?", user.UserID, oldVersion).
		Updates(map[string]interface{}{
			"name":                         user.Name,
			"password_hash":                user.PasswordHash,
			"role":                         user.Role,
			"is_active":                    user.IsActive,
			"different_device_login_count": user.DifferentDeviceLoginCount,
			"updated_by":                   user.UpdatedBy,
			"version":                      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version = oldVersion + 1
	return nil
}

func (r *userRepo) List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		db = db.Where("name ILIKE ? OR username ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("username ASC").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) ListActiveOfficers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", model.RoleOfficer, true).
		Order("username ASC, user_id ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Find(&users).Error
	return users, err
}
