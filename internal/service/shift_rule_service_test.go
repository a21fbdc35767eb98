package service

import (
	"context"
	"errors"
	"testing"

	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/model"
)

func setupTestRuleService(t *testing.T) (*testEnv, ShiftRuleService) {
	t.Helper()
	env := newTestEnv()
	return env, NewShiftRuleService(env.repo, env.recorder, env.logger)
}

func TestShiftRuleService_Get_Derived(t *testing.T) {
	env, svc := setupTestRuleService(t)
	env.addOfficers(t, "a", "b", "c", "d", "e")

	rule, err := svc.Get(context.Background(), "2026-03-11")
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if rule.MorningLimit != 3 || rule.AfternoonLimit != 2 {
		t.Errorf("5 人期望 3/2，实际 %d/%d", rule.MorningLimit, rule.AfternoonLimit)
	}
	if rule.IsManual || rule.Persisted {
		t.Errorf("推导配额不应标记为手动或已存储: %+v", rule)
	}
	if len(env.mocks.rule.rules) != 0 {
		t.Error("Get 不应写库")
	}
}

func TestShiftRuleService_Get_DerivedExcludesBlocked(t *testing.T) {
	env, svc := setupTestRuleService(t)
	officers := env.addOfficers(t, "a", "b", "c", "d", "e")
	// 2026-03-11 为周三
	_ = env.mocks.pattern.UpsertDayOff(context.Background(), &model.WeeklyDayOffPattern{
		UserID: officers[0].UserID, DayOfWeek: 3, IsActive: true,
	})

	rule, err := svc.Get(context.Background(), "2026-03-11")
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if rule.MorningLimit+rule.AfternoonLimit != 4 {
		t.Errorf("休息官员不计入可用人数，实际配额 %d/%d", rule.MorningLimit, rule.AfternoonLimit)
	}
}

func TestShiftRuleService_SetThenGet(t *testing.T) {
	env, svc := setupTestRuleService(t)
	env.addOfficers(t, "a", "b")

	_, err := svc.Set(context.Background(), "2026-03-11", &dto.SetRuleRequest{
		MorningLimit: intPtr(1), AfternoonLimit: intPtr(4),
	}, "admin-1")
	if err != nil {
		t.Fatalf("Set 失败: %v", err)
	}

	rule, err := svc.Get(context.Background(), "2026-03-11")
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if rule.MorningLimit != 1 || rule.AfternoonLimit != 4 || !rule.IsManual || !rule.Persisted {
		t.Errorf("期望手动配额 1/4，实际: %+v", rule)
	}
}

func TestShiftRuleService_Set_Invalid(t *testing.T) {
	_, svc := setupTestRuleService(t)

	cases := []*dto.SetRuleRequest{
		{MorningLimit: intPtr(-1), AfternoonLimit: intPtr(2)},
		{MorningLimit: intPtr(1)},
	}
	for _, req := range cases {
		if _, err := svc.Set(context.Background(), "2026-03-11", req, "admin-1"); !errors.Is(err, ErrInvalidRule) {
			t.Errorf("期望 ErrInvalidRule，实际: %v", err)
		}
	}
	if _, err := svc.Set(context.Background(), "2026-3-11", &dto.SetRuleRequest{
		MorningLimit: intPtr(1), AfternoonLimit: intPtr(1),
	}, "admin-1"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
}

func TestShiftRuleService_FrozenAfterGeneration(t *testing.T) {
	env, svc := setupTestRuleService(t)
	officers := env.addOfficers(t, "a")
	_ = env.mocks.shift.BatchCreate(context.Background(), []model.Shift{{
		UserID: officers[0].UserID, Date: "2026-03-11", ShiftType: model.ShiftMorning,
	}})

	_, err := svc.Set(context.Background(), "2026-03-11", &dto.SetRuleRequest{
		MorningLimit: intPtr(1), AfternoonLimit: intPtr(1),
	}, "admin-1")
	if !errors.Is(err, ErrAlreadyGenerated) {
		t.Errorf("已生成日期设置配额期望 ErrAlreadyGenerated，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), "2026-03-11", "admin-1"); !errors.Is(err, ErrAlreadyGenerated) {
		t.Errorf("已生成日期删除配额期望 ErrAlreadyGenerated，实际: %v", err)
	}
}

func TestShiftRuleService_Delete(t *testing.T) {
	_, svc := setupTestRuleService(t)
	ctx := context.Background()

	if err := svc.Delete(ctx, "2026-03-11", "admin-1"); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("期望 ErrRuleNotFound，实际: %v", err)
	}

	_, _ = svc.Set(ctx, "2026-03-11", &dto.SetRuleRequest{MorningLimit: intPtr(2), AfternoonLimit: intPtr(2)}, "admin-1")
	if err := svc.Delete(ctx, "2026-03-11", "admin-1"); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	rule, _ := svc.Get(ctx, "2026-03-11")
	if rule.IsManual {
		t.Error("删除后应恢复为推导配额")
	}
}
