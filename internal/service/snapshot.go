package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/repository"
	"shift-roster/backend/internal/roster"
	pkgerrors "shift-roster/backend/pkg/errors"
)

var ErrInvalidDate = fmt.Errorf("%w: 日期格式应为 YYYY-MM-DD", pkgerrors.ErrInvalidInput)

// snapshotOptions 快照装载选项
type snapshotOptions struct {
	withChoices bool
	// concurrent 并行装载；事务内的 repo 共享同一连接，不可并行
	concurrent bool
}

// loadSnapshot 装载某日排班所需的全部约束数据
func loadSnapshot(ctx context.Context, repo *repository.Repository, date model.Date, opts snapshotOptions) (*roster.Snapshot, error) {
	snap, err := roster.NewSnapshot(date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	var (
		officers  []model.User
		dayOffs   []model.WeeklyDayOffPattern
		fullTimes []model.WeeklyFullTimePattern
		locked    []model.WeeklyLockedShiftPattern
		vacations []model.VacationRequest
		choices   []model.ShiftChoice
	)

	steps := []func(context.Context) error{
		func(ctx context.Context) (err error) {
			officers, err = repo.User.ListActiveOfficers(ctx)
			return
		},
		func(ctx context.Context) (err error) {
			dayOffs, err = repo.Pattern.ListDayOffsByWeekday(ctx, snap.Weekday)
			return
		},
		func(ctx context.Context) (err error) {
			fullTimes, err = repo.Pattern.ListFullTimesByWeekday(ctx, snap.Weekday)
			return
		},
		func(ctx context.Context) (err error) {
			locked, err = repo.Pattern.ListLockedByWeekday(ctx, snap.Weekday)
			return
		},
		func(ctx context.Context) (err error) {
			vacations, err = repo.Vacation.ListApprovedCovering(ctx, date)
			return
		},
	}
	if opts.withChoices {
		steps = append(steps, func(ctx context.Context) (err error) {
			choices, err = repo.ShiftChoice.ListByDate(ctx, date)
			return
		})
	}

	if opts.concurrent {
		g, gctx := errgroup.WithContext(ctx)
		for _, step := range steps {
			g.Go(func() error { return step(gctx) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, step := range steps {
			if err := step(ctx); err != nil {
				return nil, err
			}
		}
	}

	snap.SetOfficers(officers)
	snap.ApplyDayOffs(dayOffs)
	snap.ApplyFullTimes(fullTimes)
	snap.ApplyLockedShifts(locked)
	snap.ApplyVacations(vacations)
	snap.ApplyChoices(choices)
	return snap, nil
}

// resolveRule 两级查找：已存储的配额优先，否则按可用人数推导（不落库）
func resolveRule(ctx context.Context, repo *repository.Repository, snap *roster.Snapshot) (roster.Rule, error) {
	stored, err := repo.ShiftRule.GetByDate(ctx, snap.Date)
	if err == nil {
		return roster.RuleFromModel(stored), nil
	}
	if !isNotFound(err) {
		return roster.Rule{}, err
	}
	return roster.DeriveRule(snap.Date, len(snap.Available())), nil
}

// parseDate 校验并转换日期参数
func parseDate(s string) (model.Date, error) {
	if !validDate(s) {
		return "", ErrInvalidDate
	}
	return model.Date(s), nil
}
