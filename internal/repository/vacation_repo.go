package repository

import (
	"context"

	"gorm.io/gorm"

	"shift-roster/backend/internal/model"
)

// VacationFilter 休假申请筛选
type VacationFilter struct {
	UserID string
	Status string
	From   model.Date // 与 [From, To] 有交集
	To     model.Date
}

// VacationRepository 休假申请数据访问接口
type VacationRepository interface {
	Create(ctx context.Context, v *model.VacationRequest) error
	GetByID(ctx context.Context, id string) (*model.VacationRequest, error)
	Update(ctx context.Context, v *model.VacationRequest) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter VacationFilter, offset, limit int) ([]model.VacationRequest, int64, error)
	// ListApprovedCovering 覆盖指定日期的已批准休假
	ListApprovedCovering(ctx context.Context, date model.Date) ([]model.VacationRequest, error)
	// CountOverlapping 与区间重叠的待审批/已批准申请数
	CountOverlapping(ctx context.Context, userID string, start, end model.Date) (int64, error)
}

type vacationRepo struct {
	db *gorm.DB
}

// NewVacationRepo 创建 VacationRepository 实例
func NewVacationRepo(db *gorm.DB) VacationRepository {
	return &vacationRepo{db: db}
}

func (r *vacationRepo) Create(ctx context.Context, v *model.VacationRequest) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *vacationRepo) GetByID(ctx context.Context, id string) (*model.VacationRequest, error) {
	var v model.VacationRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("vacation_id = ?", id).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vacationRepo) Update(ctx context.Context, v *model.VacationRequest) error {
	return r.db.WithContext(ctx).
		Model(&model.VacationRequest{}).
		Where("vacation_id = ?", v.VacationID).
		Updates(map[string]interface{}{
			"status":      v.Status,
			"reviewed_by": v.ReviewedBy,
			"reviewed_at": v.ReviewedAt,
			"review_note": v.ReviewNote,
		}).Error
}

func (r *vacationRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("vacation_id = ?", id).
		Delete(&model.VacationRequest{}).Error
}

func (r *vacationRepo) List(ctx context.Context, filter VacationFilter, offset, limit int) ([]model.VacationRequest, int64, error) {
	var list []model.VacationRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.VacationRequest{})
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.From != "" {
		db = db.Where("end_date >= ?", filter.From)
	}
	if filter.To != "" {
		db = db.Where("start_date <= ?", filter.To)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("User").
		Order("start_date DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *vacationRepo) ListApprovedCovering(ctx context.Context, date model.Date) ([]model.VacationRequest, error) {
	var list []model.VacationRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_date <= ? AND end_date >= ?", model.VacationApproved, date, date).
		Find(&list).Error
	return list, err
}

func (r *vacationRepo) CountOverlapping(ctx context.Context, userID string, start, end model.Date) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.VacationRequest{}).
		Where("user_id = ? AND status IN ? AND start_date <= ? AND end_date >= ?",
			userID, []string{model.VacationPending, model.VacationApproved}, end, start).
		Count(&n).Error
	return n, err
}
