package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/repository"
	pkgerrors "shift-roster/backend/pkg/errors"
)

var ErrInvalidPenalty = fmt.Errorf("%w: 罚款参数不合法", pkgerrors.ErrInvalidInput)

// ActivityService 业务活动接口
type ActivityService interface {
	VerifyPayment(ctx context.Context, callerID string, req *dto.VerifyPaymentRequest) (*dto.ActivityResponse, error)
	VerifyEVisa(ctx context.Context, callerID string, req *dto.VerifyEVisaRequest) (*dto.ActivityResponse, error)
	RecordPenalty(ctx context.Context, callerID string, req *dto.RecordPenaltyRequest) (*dto.ActivityResponse, error)
	List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityResponse, int64, error)
}

type activityService struct {
	repo     *repository.Repository
	verifier Verifier
	logger   *zap.Logger
}

// NewActivityService 创建 ActivityService 实例
func NewActivityService(repo *repository.Repository, verifier Verifier, logger *zap.Logger) ActivityService {
	return &activityService{repo: repo, verifier: verifier, logger: logger}
}

// ────────────────────── VerifyPayment ──────────────────────

func (s *activityService) VerifyPayment(ctx context.Context, callerID string, req *dto.VerifyPaymentRequest) (*dto.ActivityResponse, error) {
	result, verr := s.verifier.VerifyPayment(ctx, req.Reference)
	return s.recordVerification(ctx, callerID, model.ActivityPaymentVerification, req.Reference, result, verr)
}

// ────────────────────── VerifyEVisa ──────────────────────

func (s *activityService) VerifyEVisa(ctx context.Context, callerID string, req *dto.VerifyEVisaRequest) (*dto.ActivityResponse, error) {
	result, verr := s.verifier.VerifyEVisa(ctx, req.VisaNumber, req.PassportNumber)
	return s.recordVerification(ctx, callerID, model.ActivityEVisaVerification, req.VisaNumber, result, verr)
}

// recordVerification 核验失败降级为 ERROR 记录，不向调用方返回核验错误
func (s *activityService) recordVerification(
	ctx context.Context, callerID, kind, reference string,
	result *VerificationResult, verr error,
) (*dto.ActivityResponse, error) {
	details := map[string]interface{}{}
	status := model.ActivityInvalid
	switch {
	case verr != nil:
		status = model.ActivityError
		details["error"] = verr.Error()
		s.logger.Warn("外部核验失败",
			zap.String("type", kind),
			zap.String("reference", reference),
			zap.Error(verr),
		)
	case result.Valid:
		status = model.ActivityValid
	}
	if result != nil {
		if result.Message != "" {
			details["message"] = result.Message
		}
		for k, v := range result.Extra {
			details[k] = v
		}
	}

	return s.create(ctx, &model.ActivityLog{
		ActorID:      callerID,
		ActivityType: kind,
		Reference:    reference,
		Status:       status,
	}, details)
}

// ────────────────────── RecordPenalty ──────────────────────

func (s *activityService) RecordPenalty(ctx context.Context, callerID string, req *dto.RecordPenaltyRequest) (*dto.ActivityResponse, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidPenalty
	}

	if req.OfficerID != "" {
		officer, err := s.repo.User.GetByID(ctx, req.OfficerID)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrOfficerNotFound
			}
			s.logger.Error("查询官员失败", zap.String("user_id", req.OfficerID), zap.Error(err))
			return nil, err
		}
		if officer.Role != model.RoleOfficer {
			return nil, ErrOfficerNotFound
		}
	}

	details := map[string]interface{}{"amount": req.Amount}
	if req.Currency != "" {
		details["currency"] = strings.ToUpper(req.Currency)
	}
	if req.Reason != "" {
		details["reason"] = req.Reason
	}

	return s.create(ctx, &model.ActivityLog{
		ActorID:       callerID,
		ActivityType:  model.ActivityPenalty,
		SubjectUserID: strPtr(req.OfficerID),
		Reference:     req.Reference,
		Status:        model.ActivityRecorded,
	}, details)
}

// ────────────────────── List ──────────────────────

func (s *activityService) List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityResponse, int64, error) {
	filter := repository.ActivityFilter{
		ActorID:      req.ActorID,
		ActivityType: req.Type,
		Status:       req.Status,
	}
	logs, total, err := s.repo.Activity.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出业务活动失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ActivityResponse, 0, len(logs))
	for i := range logs {
		result = append(result, *toActivityResponse(&logs[i]))
	}
	return result, total, nil
}

func (s *activityService) create(ctx context.Context, log *model.ActivityLog, details map[string]interface{}) (*dto.ActivityResponse, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	log.Details = datatypes.JSON(raw)

	if err := s.repo.Activity.Create(ctx, log); err != nil {
		s.logger.Error("写入业务活动失败", zap.String("type", log.ActivityType), zap.Error(err))
		return nil, err
	}
	return toActivityResponse(log), nil
}

func toActivityResponse(l *model.ActivityLog) *dto.ActivityResponse {
	resp := &dto.ActivityResponse{
		ID:            l.ActivityID,
		ActorID:       l.ActorID,
		Type:          l.ActivityType,
		SubjectUserID: derefStr(l.SubjectUserID),
		Reference:     l.Reference,
		Status:        l.Status,
		CreatedAt:     formatTime(l.CreatedAt),
	}
	if len(l.Details) > 0 {
		var details map[string]interface{}
		if err := json.Unmarshal(l.Details, &details); err == nil {
			resp.Details = details
		}
	}
	return resp
}
