package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shift-roster/backend/internal/audit"
	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/repository"
	"shift-roster/backend/internal/roster"
	pkgerrors "shift-roster/backend/pkg/errors"
)

// ── 配额模块业务错误 ──

var (
	ErrInvalidRule      = fmt.Errorf("%w: 配额不能为负数", pkgerrors.ErrInvalidInput)
	ErrRuleNotFound     = fmt.Errorf("%w: 该日期未设置手动配额", pkgerrors.ErrNotFound)
	ErrAlreadyGenerated = fmt.Errorf("%w: 该日期排班已生成", pkgerrors.ErrConflict)
)

// ShiftRuleService 日配额业务接口
type ShiftRuleService interface {
	// Get 已存储的配额优先（IsManual 取存储值），否则按可用人数推导；从不写库
	Get(ctx context.Context, date string) (*dto.RuleResponse, error)
	Set(ctx context.Context, date string, req *dto.SetRuleRequest, callerID string) (*dto.RuleResponse, error)
	// Delete 删除手动配额，恢复为推导值
	Delete(ctx context.Context, date string, callerID string) error
}

type shiftRuleService struct {
	repo     *repository.Repository
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewShiftRuleService 创建 ShiftRuleService 实例
func NewShiftRuleService(repo *repository.Repository, recorder *audit.Recorder, logger *zap.Logger) ShiftRuleService {
	return &shiftRuleService{repo: repo, recorder: recorder, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *shiftRuleService) Get(ctx context.Context, date string) (*dto.RuleResponse, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	snap, err := loadSnapshot(ctx, s.repo, d, snapshotOptions{concurrent: true})
	if err != nil {
		s.logger.Error("装载排班快照失败", zap.String("date", date), zap.Error(err))
		return nil, err
	}

	rule, err := resolveRule(ctx, s.repo, snap)
	if err != nil {
		s.logger.Error("查询配额失败", zap.String("date", date), zap.Error(err))
		return nil, err
	}
	return toRuleResponse(rule), nil
}

// ────────────────────── Set ──────────────────────

func (s *shiftRuleService) Set(ctx context.Context, date string, req *dto.SetRuleRequest, callerID string) (*dto.RuleResponse, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	if req.MorningLimit == nil || req.AfternoonLimit == nil {
		return nil, ErrInvalidRule
	}
	if err := roster.ValidateLimits(*req.MorningLimit, *req.AfternoonLimit); err != nil {
		return nil, ErrInvalidRule
	}

	rule := roster.Rule{
		Date:           d,
		MorningLimit:   *req.MorningLimit,
		AfternoonLimit: *req.AfternoonLimit,
		IsManual:       true,
		Persisted:      true,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.LockDate(ctx, date); err != nil {
			return err
		}
		generated, err := tx.Shift.ExistsByDate(ctx, d)
		if err != nil {
			return err
		}
		if generated {
			return ErrAlreadyGenerated
		}

		row := rule.ToModel()
		row.CreatedBy = strPtr(callerID)
		return tx.ShiftRule.Upsert(ctx, row)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyGenerated) {
			return nil, err
		}
		s.logger.Error("保存配额失败", zap.String("date", date), zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionRuleSet,
		ActorID:    callerID,
		TargetType: "shift_rule",
		TargetID:   date,
		Details: map[string]interface{}{
			"morning_limit":   rule.MorningLimit,
			"afternoon_limit": rule.AfternoonLimit,
		},
	})

	return toRuleResponse(rule), nil
}

// ────────────────────── Delete ──────────────────────

func (s *shiftRuleService) Delete(ctx context.Context, date string, callerID string) error {
	d, err := parseDate(date)
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.LockDate(ctx, date); err != nil {
			return err
		}
		generated, err := tx.Shift.ExistsByDate(ctx, d)
		if err != nil {
			return err
		}
		if generated {
			return ErrAlreadyGenerated
		}

		n, err := tx.ShiftRule.DeleteByDate(ctx, d)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrRuleNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyGenerated) || errors.Is(err, ErrRuleNotFound) {
			return err
		}
		s.logger.Error("删除配额失败", zap.String("date", date), zap.Error(err))
		return err
	}

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionRuleDelete,
		ActorID:    callerID,
		TargetType: "shift_rule",
		TargetID:   date,
	})
	return nil
}

func toRuleResponse(r roster.Rule) *dto.RuleResponse {
	return &dto.RuleResponse{
		Date:           r.Date.String(),
		MorningLimit:   r.MorningLimit,
		AfternoonLimit: r.AfternoonLimit,
		IsManual:       r.IsManual,
		Persisted:      r.Persisted,
	}
}
