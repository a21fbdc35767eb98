package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shift-roster/backend/internal/audit"
	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/repository"
	"shift-roster/backend/internal/roster"
	"shift-roster/backend/pkg/clock"
	pkgerrors "shift-roster/backend/pkg/errors"
)

// ── 排班生成模块业务错误 ──

var (
	ErrNoEligibleOfficers = fmt.Errorf("%w: 没有可参与排班的在岗官员", pkgerrors.ErrConflict)
	ErrRangeTooLarge      = fmt.Errorf("%w: 查询区间过大", pkgerrors.ErrInvalidInput)
	ErrInvalidRange       = fmt.Errorf("%w: 结束日期不能早于开始日期", pkgerrors.ErrInvalidInput)
)

// maxRangeDays 区间查询的最大天数
const maxRangeDays = 93

// GenerationService 日排班生成业务接口
type GenerationService interface {
	// Generate 生成并持久化某日排班；date 为空时取民用时区的明天。
	// callerID 为空表示系统自动生成。
	Generate(ctx context.Context, date, callerID string, isAuto bool) (*dto.GenerationResponse, error)
	// Preview 按当前数据试算分配结果，不写库
	Preview(ctx context.Context, date string) (*dto.GenerationResponse, error)
	Exists(ctx context.Context, date string) (bool, error)
	Roster(ctx context.Context, date string) (*dto.RosterResponse, error)
	MyShifts(ctx context.Context, userID, from, to string) ([]dto.MyShiftResponse, error)
	Logs(ctx context.Context, req *dto.PaginationRequest) ([]dto.ScheduleLogResponse, int64, error)
}

type generationService struct {
	repo       *repository.Repository
	civil      *clock.Civil
	shiftHours map[string]string
	recorder   *audit.Recorder
	logger     *zap.Logger
}

// NewGenerationService 创建 GenerationService 实例
func NewGenerationService(
	repo *repository.Repository,
	civil *clock.Civil,
	shiftHours map[string]string,
	recorder *audit.Recorder,
	logger *zap.Logger,
) GenerationService {
	return &generationService{
		repo:       repo,
		civil:      civil,
		shiftHours: shiftHours,
		recorder:   recorder,
		logger:     logger,
	}
}

func (s *generationService) targetDate(date string) (model.Date, error) {
	if date == "" {
		return model.Date(s.civil.TomorrowISO()), nil
	}
	return parseDate(date)
}

// ═══════════════════════════════════════════════════════════
// Generate
// ═══════════════════════════════════════════════════════════
//
// 单个事务内完成：日期锁 → 复查是否已生成 → 装载快照 → 取配额（推导值在此冻结）
// → 分配 → 写生成记录（date 唯一）→ 批量写排班。任一步失败整体回滚。

func (s *generationService) Generate(ctx context.Context, date, callerID string, isAuto bool) (*dto.GenerationResponse, error) {
	d, err := s.targetDate(date)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.Shift.ExistsByDate(ctx, d)
	if err != nil {
		s.logger.Error("查询排班是否已生成失败", zap.String("date", d.String()), zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyGenerated
	}

	var plan roster.Plan
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.LockDate(ctx, d.String()); err != nil {
			return err
		}

		exists, err := tx.Shift.ExistsByDate(ctx, d)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyGenerated
		}

		snap, err := loadSnapshot(ctx, tx, d, snapshotOptions{withChoices: true})
		if err != nil {
			return err
		}
		if len(snap.Officers) == 0 {
			return ErrNoEligibleOfficers
		}

		rule, err := resolveRule(ctx, tx, snap)
		if err != nil {
			return err
		}
		plan = roster.Allocate(snap, rule)

		if !rule.Persisted {
			frozen := rule.ToModel()
			frozen.CreatedBy = strPtr(callerID)
			if err := tx.ShiftRule.CreateIfAbsent(ctx, frozen); err != nil {
				return err
			}
			plan.Rule.Persisted = true
		}

		log := &model.ScheduleLog{
			Date:           d,
			IsAuto:         isAuto,
			CreatedBy:      strPtr(callerID),
			OfficerCount:   len(snap.Officers),
			MorningLimit:   rule.MorningLimit,
			AfternoonLimit: rule.AfternoonLimit,
		}
		if err := tx.ScheduleLog.Create(ctx, log); err != nil {
			if isDuplicate(err) {
				return ErrAlreadyGenerated
			}
			return err
		}

		if err := tx.Shift.BatchCreate(ctx, plan.ToShifts()); err != nil {
			if isDuplicate(err) {
				return ErrAlreadyGenerated
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyGenerated) || errors.Is(err, ErrNoEligibleOfficers) {
			return nil, err
		}
		s.logger.Error("生成排班失败", zap.String("date", d.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("排班已生成",
		zap.String("date", d.String()),
		zap.Bool("is_auto", isAuto),
		zap.Int("officers", len(plan.Assignments)),
		zap.Int("overflow", plan.Overflow),
	)
	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionScheduleGenerate,
		ActorID:    callerID,
		TargetType: "schedule",
		TargetID:   d.String(),
		Details: map[string]interface{}{
			"is_auto":         isAuto,
			"officers":        len(plan.Assignments),
			"morning_limit":   plan.Rule.MorningLimit,
			"afternoon_limit": plan.Rule.AfternoonLimit,
			"overflow":        plan.Overflow,
		},
	})

	resp := toGenerationResponse(&plan)
	resp.IsAuto = isAuto
	resp.Persisted = true
	return resp, nil
}

// ────────────────────── Preview ──────────────────────

func (s *generationService) Preview(ctx context.Context, date string) (*dto.GenerationResponse, error) {
	d, err := s.targetDate(date)
	if err != nil {
		return nil, err
	}

	snap, err := loadSnapshot(ctx, s.repo, d, snapshotOptions{withChoices: true, concurrent: true})
	if err != nil {
		s.logger.Error("装载排班快照失败", zap.String("date", d.String()), zap.Error(err))
		return nil, err
	}
	if len(snap.Officers) == 0 {
		return nil, ErrNoEligibleOfficers
	}

	rule, err := resolveRule(ctx, s.repo, snap)
	if err != nil {
		s.logger.Error("查询配额失败", zap.String("date", d.String()), zap.Error(err))
		return nil, err
	}

	plan := roster.Allocate(snap, rule)
	return toGenerationResponse(&plan), nil
}

// ────────────────────── Exists ──────────────────────

func (s *generationService) Exists(ctx context.Context, date string) (bool, error) {
	d, err := parseDate(date)
	if err != nil {
		return false, err
	}
	exists, err := s.repo.Shift.ExistsByDate(ctx, d)
	if err != nil {
		s.logger.Error("查询排班是否已生成失败", zap.String("date", date), zap.Error(err))
		return false, err
	}
	return exists, nil
}

// ────────────────────── Roster ──────────────────────

func (s *generationService) Roster(ctx context.Context, date string) (*dto.RosterResponse, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	shifts, err := s.repo.Shift.ListByDate(ctx, d)
	if err != nil {
		s.logger.Error("查询排班失败", zap.String("date", date), zap.Error(err))
		return nil, err
	}

	resp := &dto.RosterResponse{
		Date:        date,
		Generated:   len(shifts) > 0,
		Assignments: make([]dto.AssignmentResponse, 0, len(shifts)),
		Counts:      map[string]int{},
	}
	for _, sh := range shifts {
		name := ""
		if sh.User != nil {
			name = sh.User.Name
		}
		resp.Assignments = append(resp.Assignments, dto.AssignmentResponse{
			UserID:    sh.UserID,
			Name:      name,
			ShiftType: string(sh.ShiftType),
			Source:    sh.Source,
		})
		resp.Counts[string(sh.ShiftType)]++
	}

	if resp.Generated {
		log, err := s.repo.ScheduleLog.GetByDate(ctx, d)
		if err != nil && !isNotFound(err) {
			s.logger.Error("查询生成记录失败", zap.String("date", date), zap.Error(err))
			return nil, err
		}
		if log != nil {
			resp.IsAuto = log.IsAuto
			resp.GeneratedAt = formatTime(log.CreatedAt)
		}
	}
	return resp, nil
}

// ────────────────────── MyShifts ──────────────────────

func (s *generationService) MyShifts(ctx context.Context, userID, from, to string) ([]dto.MyShiftResponse, error) {
	fromDate, toDate, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}

	shifts, err := s.repo.Shift.ListByUserRange(ctx, userID, fromDate, toDate)
	if err != nil {
		s.logger.Error("查询个人排班失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.MyShiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		result = append(result, dto.MyShiftResponse{
			Date:      sh.Date.String(),
			ShiftType: string(sh.ShiftType),
			Hours:     s.shiftHours[shiftHoursKey(string(sh.ShiftType))],
		})
	}
	return result, nil
}

// ────────────────────── Logs ──────────────────────

func (s *generationService) Logs(ctx context.Context, req *dto.PaginationRequest) ([]dto.ScheduleLogResponse, int64, error) {
	logs, total, err := s.repo.ScheduleLog.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出生成记录失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ScheduleLogResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, dto.ScheduleLogResponse{
			Date:           l.Date.String(),
			IsAuto:         l.IsAuto,
			CreatedBy:      derefStr(l.CreatedBy),
			OfficerCount:   l.OfficerCount,
			MorningLimit:   l.MorningLimit,
			AfternoonLimit: l.AfternoonLimit,
			CreatedAt:      formatTime(l.CreatedAt),
		})
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

// parseRange 校验闭区间 [from, to]
func parseRange(from, to string) (model.Date, model.Date, error) {
	f, err := parseDate(from)
	if err != nil {
		return "", "", err
	}
	t, err := parseDate(to)
	if err != nil {
		return "", "", err
	}
	if t < f {
		return "", "", ErrInvalidRange
	}
	n, err := clock.SpanDays(from, to)
	if err != nil {
		return "", "", ErrInvalidDate
	}
	if n > maxRangeDays {
		return "", "", ErrRangeTooLarge
	}
	return f, t, nil
}

func toGenerationResponse(p *roster.Plan) *dto.GenerationResponse {
	resp := &dto.GenerationResponse{
		Date:        p.Date.String(),
		Rule:        *toRuleResponse(p.Rule),
		Assignments: make([]dto.AssignmentResponse, 0, len(p.Assignments)),
		Counts:      map[string]int{},
		Overflow:    p.Overflow,
		Persisted:   false,
	}
	for _, a := range p.Assignments {
		resp.Assignments = append(resp.Assignments, dto.AssignmentResponse{
			UserID:    a.UserID,
			Name:      a.Name,
			ShiftType: string(a.ShiftType),
			Source:    a.Source,
		})
		resp.Counts[string(a.ShiftType)]++
	}
	return resp
}
