package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shift-roster/backend/internal/model"
)

// SessionRepository 登录会话数据访问接口
type SessionRepository interface {
	Create(ctx context.Context, session *model.UserSession) error
	GetByID(ctx context.Context, sessionID string) (*model.UserSession, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserSession, error)
	Touch(ctx context.Context, sessionID string, at time.Time) error
	Delete(ctx context.Context, sessionID string) error
	// DeleteByUser 清除用户全部会话，返回清除数量
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.UserSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, sessionID string) (*model.UserSession, error) {
	var s model.UserSession
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string) ([]model.UserSession, error) {
	var sessions []model.UserSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) Touch(ctx context.Context, sessionID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.UserSession{}).
		Where("session_id = ?", sessionID).
		Update("last_seen_at", at).Error
}

func (r *sessionRepo) Delete(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.UserSession{}).Error
}

func (r *sessionRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.UserSession{})
	return result.RowsAffected, result.Error
}
