package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shift-roster/backend/internal/audit"
	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/repository"
	"shift-roster/backend/pkg/clock"
	pkgerrors "shift-roster/backend/pkg/errors"
)

// ── 休假模块业务错误 ──

var (
	ErrVacationNotFound   = fmt.Errorf("%w: 休假申请不存在", pkgerrors.ErrNotFound)
	ErrVacationOverlap    = fmt.Errorf("%w: 与已有休假申请时间重叠", pkgerrors.ErrConflict)
	ErrVacationNotPending = fmt.Errorf("%w: 仅待审批的申请可操作", pkgerrors.ErrConflict)
	ErrVacationNotOwner   = fmt.Errorf("%w: 只能撤销自己的申请", pkgerrors.ErrForbidden)
	ErrVacationSelfReview = fmt.Errorf("%w: 不能审批自己的申请", pkgerrors.ErrForbidden)
	ErrVacationTooLong    = fmt.Errorf("%w: 单次休假不能超过 %d 天", pkgerrors.ErrInvalidInput, maxVacationDays)
)

// maxVacationDays 单次休假申请的最大天数
const maxVacationDays = 366

// VacationService 休假业务接口
type VacationService interface {
	Request(ctx context.Context, callerID string, req *dto.CreateVacationRequest) (*dto.VacationResponse, error)
	Review(ctx context.Context, id, reviewerID string, req *dto.ReviewVacationRequest) (*dto.VacationResponse, error)
	Cancel(ctx context.Context, id, callerID string) error
	List(ctx context.Context, req *dto.VacationListRequest) ([]dto.VacationResponse, int64, error)
}

type vacationService struct {
	repo     *repository.Repository
	civil    *clock.Civil
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewVacationService 创建 VacationService 实例
func NewVacationService(repo *repository.Repository, civil *clock.Civil, recorder *audit.Recorder, logger *zap.Logger) VacationService {
	return &vacationService{repo: repo, civil: civil, recorder: recorder, logger: logger}
}

// ────────────────────── Request ──────────────────────

func (s *vacationService) Request(ctx context.Context, callerID string, req *dto.CreateVacationRequest) (*dto.VacationResponse, error) {
	start, end, err := parseVacationSpan(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	n, err := s.repo.Vacation.CountOverlapping(ctx, callerID, start, end)
	if err != nil {
		s.logger.Error("查询重叠休假失败", zap.Error(err))
		return nil, err
	}
	if n > 0 {
		return nil, ErrVacationOverlap
	}

	v := &model.VacationRequest{
		UserID:    callerID,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
		Status:    model.VacationPending,
	}
	if err := s.repo.Vacation.Create(ctx, v); err != nil {
		s.logger.Error("创建休假申请失败", zap.Error(err))
		return nil, err
	}
	return toVacationResponse(v), nil
}

// ────────────────────── Review ──────────────────────

func (s *vacationService) Review(ctx context.Context, id, reviewerID string, req *dto.ReviewVacationRequest) (*dto.VacationResponse, error) {
	v, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status != model.VacationPending {
		return nil, ErrVacationNotPending
	}
	if v.UserID == reviewerID {
		return nil, ErrVacationSelfReview
	}

	now := s.civil.Now().UTC()
	v.Status = model.VacationRejected
	if req.Approve {
		v.Status = model.VacationApproved
	}
	v.ReviewedBy = &reviewerID
	v.ReviewedAt = &now
	v.ReviewNote = req.Note

	if err := s.repo.Vacation.Update(ctx, v); err != nil {
		s.logger.Error("更新休假申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionVacationReview,
		ActorID:    reviewerID,
		TargetType: "vacation",
		TargetID:   id,
		Details:    map[string]interface{}{"status": v.Status},
	})
	return toVacationResponse(v), nil
}

// ────────────────────── Cancel ──────────────────────

func (s *vacationService) Cancel(ctx context.Context, id, callerID string) error {
	v, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if v.UserID != callerID {
		return ErrVacationNotOwner
	}
	if v.Status != model.VacationPending {
		return ErrVacationNotPending
	}

	if err := s.repo.Vacation.Delete(ctx, id); err != nil {
		s.logger.Error("撤销休假申请失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── List ──────────────────────

func (s *vacationService) List(ctx context.Context, req *dto.VacationListRequest) ([]dto.VacationResponse, int64, error) {
	filter := repository.VacationFilter{
		UserID: req.UserID,
		Status: req.Status,
		From:   model.Date(req.From),
		To:     model.Date(req.To),
	}

	list, total, err := s.repo.Vacation.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出休假申请失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.VacationResponse, 0, len(list))
	for i := range list {
		result = append(result, *toVacationResponse(&list[i]))
	}
	return result, total, nil
}

func (s *vacationService) get(ctx context.Context, id string) (*model.VacationRequest, error) {
	v, err := s.repo.Vacation.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrVacationNotFound
		}
		s.logger.Error("查询休假申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return v, nil
}

func toVacationResponse(v *model.VacationRequest) *dto.VacationResponse {
	resp := &dto.VacationResponse{
		ID:         v.VacationID,
		UserID:     v.UserID,
		StartDate:  v.StartDate.String(),
		EndDate:    v.EndDate.String(),
		Reason:     v.Reason,
		Status:     v.Status,
		ReviewedBy: derefStr(v.ReviewedBy),
		ReviewedAt: formatTimePtr(v.ReviewedAt),
		ReviewNote: v.ReviewNote,
		CreatedAt:  formatTime(v.CreatedAt),
	}
	if v.User != nil {
		resp.UserName = v.User.Name
	}
	return resp
}

// parseVacationSpan 校验休假起止日期，长度上限独立于查询区间
func parseVacationSpan(from, to string) (model.Date, model.Date, error) {
	start, err := parseDate(from)
	if err != nil {
		return "", "", err
	}
	end, err := parseDate(to)
	if err != nil {
		return "", "", err
	}
	if end < start {
		return "", "", ErrInvalidRange
	}
	n, err := clock.SpanDays(from, to)
	if err != nil {
		return "", "", ErrInvalidDate
	}
	if n > maxVacationDays {
		return "", "", ErrVacationTooLong
	}
	return start, end, nil
}
