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

// ── 班次偏好模块业务错误 ──

var (
	ErrInvalidChoice  = fmt.Errorf("%w: 只能选择 MORNING 或 AFTERNOON", pkgerrors.ErrInvalidInput)
	ErrNotOfficer     = fmt.Errorf("%w: 仅在岗官员可提交班次偏好", pkgerrors.ErrForbidden)
	ErrWindowClosed   = fmt.Errorf("%w: 选择窗口已关闭", pkgerrors.ErrConflict)
	ErrOfficerBlocked = fmt.Errorf("%w: 该日已有休息/休假/全天/锁定安排，不能自选班次", pkgerrors.ErrConflict)
	ErrQuotaFull      = fmt.Errorf("%w: 该班次名额已满", pkgerrors.ErrConflict)
	ErrChoiceNotFound = fmt.Errorf("%w: 未提交过该日偏好", pkgerrors.ErrNotFound)
)

// ChoiceService 班次偏好业务接口
type ChoiceService interface {
	Window(ctx context.Context, date string) (*dto.WindowResponse, error)
	Submit(ctx context.Context, callerID string, req *dto.SubmitChoiceRequest) (*dto.ChoiceResponse, error)
	Withdraw(ctx context.Context, callerID, date string) error
	Mine(ctx context.Context, callerID, date string) (*dto.ChoiceResponse, error)
	ListByDate(ctx context.Context, date string) ([]dto.ChoiceResponse, error)
}

type choiceService struct {
	repo     *repository.Repository
	civil    *clock.Civil
	settings SettingService
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewChoiceService 创建 ChoiceService 实例
func NewChoiceService(
	repo *repository.Repository,
	civil *clock.Civil,
	settings SettingService,
	recorder *audit.Recorder,
	logger *zap.Logger,
) ChoiceService {
	return &choiceService{repo: repo, civil: civil, settings: settings, recorder: recorder, logger: logger}
}

// evaluateWindow 以民用时区的当前时间判定目标日期的选择窗口
func evaluateWindow(civil *clock.Civil, setting Setting, date model.Date, generated bool) roster.Window {
	return roster.EvaluateWindow(roster.WindowInput{
		Target:       date,
		Today:        model.Date(civil.TodayISO()),
		Tomorrow:     model.Date(civil.TomorrowISO()),
		NowMinute:    civil.NowParts().MinuteOfDay(),
		CutoffMinute: setting.CutoffMinute,
		Generated:    generated,
	})
}

// windowClosedError 携带关闭原因，errors.Is 仍可匹配 ErrWindowClosed
func windowClosedError(w roster.Window) error {
	return fmt.Errorf("%w (%s)", ErrWindowClosed, w.Reason)
}

// ────────────────────── Window ──────────────────────

func (s *choiceService) Window(ctx context.Context, date string) (*dto.WindowResponse, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	setting, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	generated, err := s.repo.Shift.ExistsByDate(ctx, d)
	if err != nil {
		s.logger.Error("查询排班是否已生成失败", zap.String("date", date), zap.Error(err))
		return nil, err
	}

	w := evaluateWindow(s.civil, setting, d, generated)
	return &dto.WindowResponse{
		Date:     date,
		State:    string(w.State),
		Open:     w.Open(),
		Reason:   w.Reason,
		Cutoff:   setting.AutoTime24,
		Timezone: s.civil.Location().String(),
	}, nil
}

// ────────────────────── Submit ──────────────────────
//
// 校验顺序：已生成 → 窗口关闭 → 官员被阻断 → 名额已满 → 写入。
// 整个检查与写入在持有日期锁的事务内完成，与同日的生成和其他提交串行。

func (s *choiceService) Submit(ctx context.Context, callerID string, req *dto.SubmitChoiceRequest) (*dto.ChoiceResponse, error) {
	d, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	choice := model.ShiftType(req.Choice)
	if !choice.IsChoosable() {
		return nil, ErrInvalidChoice
	}

	officer, err := s.repo.User.GetByID(ctx, callerID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotOfficer
		}
		s.logger.Error("查询官员失败", zap.String("user_id", callerID), zap.Error(err))
		return nil, err
	}
	if !officer.IsSchedulable() {
		return nil, ErrNotOfficer
	}

	setting, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	var saved model.ShiftChoice
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.LockDate(ctx, req.Date); err != nil {
			return err
		}

		// 1. 已生成
		generated, err := tx.Shift.ExistsByDate(ctx, d)
		if err != nil {
			return err
		}
		if generated {
			return ErrAlreadyGenerated
		}

		// 2. 窗口
		if w := evaluateWindow(s.civil, setting, d, false); !w.Open() {
			return windowClosedError(w)
		}

		// 3. 阻断
		snap, err := loadSnapshot(ctx, tx, d, snapshotOptions{})
		if err != nil {
			return err
		}
		if snap.IsBlocked(callerID) {
			return ErrOfficerBlocked
		}

		// 4. 名额（不计本人已有的偏好，改选时不自我占位）
		rule, err := resolveRule(ctx, tx, snap)
		if err != nil {
			return err
		}
		taken, err := tx.ShiftChoice.CountByChoiceExcludingUser(ctx, d, choice, callerID)
		if err != nil {
			return err
		}
		if taken >= int64(rule.Limit(choice)) {
			return ErrQuotaFull
		}

		// 5. 写入
		saved = model.ShiftChoice{UserID: callerID, Date: d, Choice: choice}
		return tx.ShiftChoice.Upsert(ctx, &saved)
	})
	if err != nil {
		if isChoiceRejection(err) {
			return nil, err
		}
		s.logger.Error("提交班次偏好失败",
			zap.String("user_id", callerID),
			zap.String("date", req.Date),
			zap.Error(err),
		)
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionChoiceSubmit,
		ActorID:    callerID,
		TargetType: "shift_choice",
		TargetID:   req.Date,
		Details:    map[string]interface{}{"choice": string(choice)},
	})

	resp := toChoiceResponse(&saved)
	resp.Name = officer.Name
	return resp, nil
}

func isChoiceRejection(err error) bool {
	return errors.Is(err, ErrAlreadyGenerated) ||
		errors.Is(err, ErrWindowClosed) ||
		errors.Is(err, ErrOfficerBlocked) ||
		errors.Is(err, ErrQuotaFull) ||
		errors.Is(err, ErrChoiceNotFound) ||
		errors.Is(err, ErrInvalidDate)
}

// ────────────────────── Withdraw ──────────────────────

func (s *choiceService) Withdraw(ctx context.Context, callerID, date string) error {
	d, err := parseDate(date)
	if err != nil {
		return err
	}

	setting, err := s.settings.Current(ctx)
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
		if w := evaluateWindow(s.civil, setting, d, false); !w.Open() {
			return windowClosedError(w)
		}

		n, err := tx.ShiftChoice.Delete(ctx, callerID, d)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrChoiceNotFound
		}
		return nil
	})
	if err != nil {
		if isChoiceRejection(err) {
			return err
		}
		s.logger.Error("撤回班次偏好失败", zap.String("user_id", callerID), zap.Error(err))
		return err
	}

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionChoiceWithdraw,
		ActorID:    callerID,
		TargetType: "shift_choice",
		TargetID:   date,
	})
	return nil
}

// ────────────────────── Mine ──────────────────────

func (s *choiceService) Mine(ctx context.Context, callerID, date string) (*dto.ChoiceResponse, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.ShiftChoice.Get(ctx, callerID, d)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrChoiceNotFound
		}
		s.logger.Error("查询班次偏好失败", zap.Error(err))
		return nil, err
	}
	return toChoiceResponse(c), nil
}

// ────────────────────── ListByDate ──────────────────────

func (s *choiceService) ListByDate(ctx context.Context, date string) ([]dto.ChoiceResponse, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	choices, err := s.repo.ShiftChoice.ListByDate(ctx, d)
	if err != nil {
		s.logger.Error("列出班次偏好失败", zap.String("date", date), zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(choices))
	for _, c := range choices {
		ids = append(ids, c.UserID)
	}
	users, err := s.repo.User.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询官员失败", zap.Error(err))
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.UserID] = u.Name
	}

	result := make([]dto.ChoiceResponse, 0, len(choices))
	for i := range choices {
		resp := toChoiceResponse(&choices[i])
		resp.Name = names[choices[i].UserID]
		result = append(result, *resp)
	}
	return result, nil
}

func toChoiceResponse(c *model.ShiftChoice) *dto.ChoiceResponse {
	return &dto.ChoiceResponse{
		UserID:    c.UserID,
		Date:      c.Date.String(),
		Choice:    string(c.Choice),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}
