package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shift-roster/backend/internal/audit"
	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/repository"
	pkgerrors "shift-roster/backend/pkg/errors"
)

// ── 周期性约束模块业务错误 ──

var (
	ErrInvalidPattern  = fmt.Errorf("%w: 约束参数不合法", pkgerrors.ErrInvalidInput)
	ErrPatternNotFound = fmt.Errorf("%w: 约束不存在", pkgerrors.ErrNotFound)
	ErrOfficerNotFound = fmt.Errorf("%w: 官员不存在或未在岗", pkgerrors.ErrNotFound)
)

// PatternService 周期性约束业务接口
type PatternService interface {
	Set(ctx context.Context, req *dto.SetPatternRequest, callerID string) (*dto.PatternResponse, error)
	Remove(ctx context.Context, req *dto.RemovePatternRequest, callerID string) error
	ListByUser(ctx context.Context, userID string) (*dto.OfficerPatternsResponse, error)
}

type patternService struct {
	repo     *repository.Repository
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewPatternService 创建 PatternService 实例
func NewPatternService(repo *repository.Repository, recorder *audit.Recorder, logger *zap.Logger) PatternService {
	return &patternService{repo: repo, recorder: recorder, logger: logger}
}

// ────────────────────── Set ──────────────────────

func (s *patternService) Set(ctx context.Context, req *dto.SetPatternRequest, callerID string) (*dto.PatternResponse, error) {
	if req.DayOfWeek == nil || *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
		return nil, ErrInvalidPattern
	}
	dow := *req.DayOfWeek

	if err := s.requireOfficer(ctx, req.UserID); err != nil {
		return nil, err
	}

	resp := &dto.PatternResponse{Kind: req.Kind, DayOfWeek: dow, IsActive: true}
	var err error
	switch req.Kind {
	case dto.PatternDayOff:
		err = s.repo.Pattern.UpsertDayOff(ctx, &model.WeeklyDayOffPattern{
			UserID: req.UserID, DayOfWeek: dow, IsActive: true,
		})
	case dto.PatternFullTime:
		err = s.repo.Pattern.UpsertFullTime(ctx, &model.WeeklyFullTimePattern{
			UserID: req.UserID, DayOfWeek: dow, IsActive: true,
		})
	case dto.PatternLocked:
		kind := model.ShiftType(req.ShiftType)
		if !kind.IsLockable() {
			return nil, ErrInvalidPattern
		}
		resp.ShiftType = req.ShiftType
		err = s.repo.Pattern.UpsertLocked(ctx, &model.WeeklyLockedShiftPattern{
			UserID: req.UserID, DayOfWeek: dow, ShiftType: kind, IsActive: true,
		})
	default:
		return nil, ErrInvalidPattern
	}
	if err != nil {
		s.logger.Error("保存周期约束失败",
			zap.String("user_id", req.UserID),
			zap.String("kind", req.Kind),
			zap.Error(err),
		)
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionPatternSet,
		ActorID:    callerID,
		TargetType: "pattern",
		TargetID:   req.UserID,
		Details: map[string]interface{}{
			"kind":        req.Kind,
			"day_of_week": dow,
			"shift_type":  req.ShiftType,
		},
	})
	return resp, nil
}

// ────────────────────── Remove ──────────────────────

func (s *patternService) Remove(ctx context.Context, req *dto.RemovePatternRequest, callerID string) error {
	if req.DayOfWeek == nil || *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
		return ErrInvalidPattern
	}
	dow := *req.DayOfWeek

	var (
		n   int64
		err error
	)
	switch req.Kind {
	case dto.PatternDayOff:
		n, err = s.repo.Pattern.DeleteDayOff(ctx, req.UserID, dow)
	case dto.PatternFullTime:
		n, err = s.repo.Pattern.DeleteFullTime(ctx, req.UserID, dow)
	case dto.PatternLocked:
		n, err = s.repo.Pattern.DeleteLocked(ctx, req.UserID, dow)
	default:
		return ErrInvalidPattern
	}
	if err != nil {
		s.logger.Error("删除周期约束失败", zap.String("user_id", req.UserID), zap.Error(err))
		return err
	}
	if n == 0 {
		return ErrPatternNotFound
	}

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionPatternRemove,
		ActorID:    callerID,
		TargetType: "pattern",
		TargetID:   req.UserID,
		Details:    map[string]interface{}{"kind": req.Kind, "day_of_week": dow},
	})
	return nil
}

// ────────────────────── ListByUser ──────────────────────

func (s *patternService) ListByUser(ctx context.Context, userID string) (*dto.OfficerPatternsResponse, error) {
	dayOffs, err := s.repo.Pattern.ListDayOffsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询休息约束失败", zap.Error(err))
		return nil, err
	}
	fullTimes, err := s.repo.Pattern.ListFullTimesByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询全天约束失败", zap.Error(err))
		return nil, err
	}
	locked, err := s.repo.Pattern.ListLockedByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询锁定约束失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.OfficerPatternsResponse{
		UserID:   userID,
		Patterns: make([]dto.PatternResponse, 0, len(dayOffs)+len(fullTimes)+len(locked)),
	}
	for _, p := range dayOffs {
		resp.Patterns = append(resp.Patterns, dto.PatternResponse{
			Kind: dto.PatternDayOff, DayOfWeek: p.DayOfWeek, IsActive: p.IsActive,
		})
	}
	for _, p := range fullTimes {
		resp.Patterns = append(resp.Patterns, dto.PatternResponse{
			Kind: dto.PatternFullTime, DayOfWeek: p.DayOfWeek, IsActive: p.IsActive,
		})
	}
	for _, p := range locked {
		resp.Patterns = append(resp.Patterns, dto.PatternResponse{
			Kind: dto.PatternLocked, DayOfWeek: p.DayOfWeek, ShiftType: string(p.ShiftType), IsActive: p.IsActive,
		})
	}
	return resp, nil
}

// requireOfficer 约束只能设置在 OFFICER 上
func (s *patternService) requireOfficer(ctx context.Context, userID string) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrOfficerNotFound
		}
		s.logger.Error("查询官员失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	if !user.IsSchedulable() {
		return ErrOfficerNotFound
	}
	return nil
}
