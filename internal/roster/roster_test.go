package roster

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shift-roster/backend/internal/model"
)

// 2026-03-11 为周三
const wednesday model.Date = "2026-03-11"

func officer(id string) model.User {
	return model.User{UserID: id, Username: id, Name: "官员" + id, Role: model.RoleOfficer, IsActive: true}
}

func officers(n int) []model.User {
	users := make([]model.User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, officer(fmt.Sprintf("u%02d", i)))
	}
	return users
}

func newSnap(t *testing.T, date model.Date, users []model.User) *Snapshot {
	t.Helper()
	s, err := NewSnapshot(date)
	require.NoError(t, err)
	s.SetOfficers(users)
	return s
}

// ── 配额 ──

func TestDeriveLimits_Table(t *testing.T) {
	tests := []struct{ n, morning, afternoon int }{
		{0, 0, 0}, {1, 1, 0}, {2, 2, 0}, {3, 2, 1}, {4, 3, 1},
		{5, 3, 2}, {7, 5, 2}, {10, 6, 4},
	}
	for _, tt := range tests {
		m, a := DeriveLimits(tt.n)
		assert.Equal(t, tt.morning, m, "n=%d", tt.n)
		assert.Equal(t, tt.afternoon, a, "n=%d", tt.n)
	}
}

func TestDeriveLimits_SumAndCeiling(t *testing.T) {
	for n := 0; n <= 500; n++ {
		m, a := DeriveLimits(n)
		assert.Equal(t, n, m+a, "n=%d", n)
		assert.Equal(t, int(math.Ceil(float64(n*3)/5)), m, "n=%d", n)
	}
}

func TestValidateLimits(t *testing.T) {
	assert.NoError(t, ValidateLimits(0, 0))
	assert.ErrorIs(t, ValidateLimits(-1, 2), ErrNegativeLimit)
	assert.ErrorIs(t, ValidateLimits(2, -1), ErrNegativeLimit)
}

// ── 约束判定 ──

func TestResolve_Precedence(t *testing.T) {
	s := newSnap(t, wednesday, officers(1))
	id := "u01"
	s.ApplyLockedShifts([]model.WeeklyLockedShiftPattern{{UserID: id, DayOfWeek: 3, ShiftType: model.ShiftMorning, IsActive: true}})
	assert.Equal(t, Constraint{Block: BlockLocked, Locked: model.ShiftMorning}, s.Resolve(id))

	s.ApplyFullTimes([]model.WeeklyFullTimePattern{{UserID: id, DayOfWeek: 3, IsActive: true}})
	assert.Equal(t, BlockFullTime, s.Resolve(id).Block)

	s.ApplyVacations([]model.VacationRequest{{UserID: id, StartDate: "2026-03-10", EndDate: "2026-03-11", Status: model.VacationApproved}})
	assert.Equal(t, BlockVacation, s.Resolve(id).Block)

	s.ApplyDayOffs([]model.WeeklyDayOffPattern{{UserID: id, DayOfWeek: 3, IsActive: true}})
	assert.Equal(t, BlockDayOff, s.Resolve(id).Block)
}

func TestResolve_IgnoresOtherWeekdaysInactiveAndPending(t *testing.T) {
	s := newSnap(t, wednesday, officers(1))
	id := "u01"
	s.ApplyDayOffs([]model.WeeklyDayOffPattern{
		{UserID: id, DayOfWeek: 2, IsActive: true},
		{UserID: id, DayOfWeek: 3, IsActive: false},
	})
	s.ApplyVacations([]model.VacationRequest{
		{UserID: id, StartDate: wednesday, EndDate: wednesday, Status: model.VacationPending},
		{UserID: id, StartDate: "2026-03-12", EndDate: "2026-03-20", Status: model.VacationApproved},
	})
	assert.False(t, s.IsBlocked(id))
}

func TestVacation_InclusiveBounds(t *testing.T) {
	for _, date := range []model.Date{"2026-03-09", "2026-03-11", "2026-03-13"} {
		s := newSnap(t, date, officers(1))
		s.ApplyVacations([]model.VacationRequest{{UserID: "u01", StartDate: "2026-03-09", EndDate: "2026-03-13", Status: model.VacationApproved}})
		assert.True(t, s.IsBlocked("u01"), date)
	}
}

func TestAvailable_ExcludesBlockedInactiveAndNonOfficers(t *testing.T) {
	users := officers(4)
	users[3].IsActive = false
	checker := officer("c01")
	checker.Role = model.RoleChecker
	users = append(users, checker)

	s := newSnap(t, wednesday, users)
	s.ApplyDayOffs([]model.WeeklyDayOffPattern{{UserID: "u01", DayOfWeek: 3, IsActive: true}})

	var ids []string
	for _, u := range s.Available() {
		ids = append(ids, u.UserID)
	}
	assert.Equal(t, []string{"u02", "u03"}, ids)
	assert.False(t, s.HasOfficer("c01"))
	assert.False(t, s.HasOfficer("u04"))
}

// ── 选择窗口 ──

func TestEvaluateWindow(t *testing.T) {
	base := WindowInput{Today: "2026-03-10", Tomorrow: "2026-03-11", CutoffMinute: 19 * 60}

	tests := []struct {
		name      string
		mutate    func(in *WindowInput)
		wantState WindowState
		wantWhy   string
	}{
		{"截止后明天关闭", func(in *WindowInput) { in.Target = "2026-03-11"; in.NowMinute = 19*60 + 5 }, StateClosedByCutoff, ReasonCutoffPassed},
		{"截止后后天仍开放", func(in *WindowInput) { in.Target = "2026-03-12"; in.NowMinute = 19*60 + 5 }, StateOpen, ""},
		{"恰好到达截止即关闭", func(in *WindowInput) { in.Target = "2026-03-11"; in.NowMinute = 19 * 60 }, StateClosedByCutoff, ReasonCutoffPassed},
		{"截止前开放", func(in *WindowInput) { in.Target = "2026-03-11"; in.NowMinute = 18*60 + 59 }, StateOpen, ""},
		{"已生成优先", func(in *WindowInput) { in.Target = "2026-03-11"; in.NowMinute = 19*60 + 5; in.Generated = true }, StateClosedByGeneration, ReasonAlreadyGenerated},
		{"今天不可选", func(in *WindowInput) { in.Target = "2026-03-10" }, StateClosedByCutoff, ReasonDatePassed},
		{"过去日期不可选", func(in *WindowInput) { in.Target = "2026-03-01" }, StateClosedByCutoff, ReasonDatePassed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			w := EvaluateWindow(in)
			assert.Equal(t, tt.wantState, w.State)
			assert.Equal(t, tt.wantWhy, w.Reason)
			assert.Equal(t, tt.wantState == StateOpen, w.Open())
		})
	}
}

// ── 分配 ──

func assignmentMap(p Plan) map[string]model.ShiftType {
	m := make(map[string]model.ShiftType, len(p.Assignments))
	for _, a := range p.Assignments {
		m[a.UserID] = a.ShiftType
	}
	return m
}

func TestAllocate_TenFreeOfficersDerived(t *testing.T) {
	s := newSnap(t, wednesday, officers(10))
	rule := DeriveRule(s.Date, len(s.Available()))
	require.Equal(t, 6, rule.MorningLimit)
	require.Equal(t, 4, rule.AfternoonLimit)

	plan := Allocate(s, rule)
	assert.Len(t, plan.Assignments, 10)
	assert.Equal(t, 6, plan.Count(model.ShiftMorning))
	assert.Equal(t, 4, plan.Count(model.ShiftAfternoon))
	assert.Zero(t, plan.Overflow)
}

func TestAllocate_DayOffDominatesChoice(t *testing.T) {
	s := newSnap(t, wednesday, officers(3))
	s.ApplyDayOffs([]model.WeeklyDayOffPattern{{UserID: "u02", DayOfWeek: 3, IsActive: true}})
	s.ApplyChoices([]model.ShiftChoice{{UserID: "u02", Date: wednesday, Choice: model.ShiftMorning}})

	plan := Allocate(s, DeriveRule(s.Date, len(s.Available())))
	assert.Equal(t, model.ShiftDayOff, assignmentMap(plan)["u02"])
}

func TestAllocate_LockedAfternoonOnWednesdayBeatsMorningChoice(t *testing.T) {
	s := newSnap(t, wednesday, officers(2))
	s.ApplyLockedShifts([]model.WeeklyLockedShiftPattern{{UserID: "u01", DayOfWeek: 3, ShiftType: model.ShiftAfternoon, IsActive: true}})
	s.ApplyChoices([]model.ShiftChoice{{UserID: "u01", Date: wednesday, Choice: model.ShiftMorning}})

	plan := Allocate(s, DeriveRule(s.Date, len(s.Available())))
	got := assignmentMap(plan)
	assert.Equal(t, model.ShiftAfternoon, got["u01"])
	assert.Equal(t, model.ShiftMorning, got["u02"])
}

func TestAllocate_ChoiceHonoredWithinQuota(t *testing.T) {
	s := newSnap(t, wednesday, officers(2))
	s.ApplyChoices([]model.ShiftChoice{
		{UserID: "u01", Date: wednesday, Choice: model.ShiftAfternoon},
		{UserID: "u02", Date: wednesday, Choice: model.ShiftAfternoon},
	})

	plan := Allocate(s, Rule{Date: wednesday, MorningLimit: 1, AfternoonLimit: 1, IsManual: true})
	want := []Assignment{
		{UserID: "u01", Name: "官员u01", ShiftType: model.ShiftAfternoon, Source: model.SourceChoice},
		{UserID: "u02", Name: "官员u02", ShiftType: model.ShiftMorning, Source: model.SourceBalance},
	}
	if diff := cmp.Diff(want, plan.Assignments); diff != "" {
		t.Errorf("分配结果不符 (-want +got):\n%s", diff)
	}
}

func TestAllocate_ChoiceOrderFollowsUserID(t *testing.T) {
	// 用户名顺序与 user_id 顺序相反，先到的是 user_id 较小者
	zed := officer("u01")
	zed.Username, zed.Name = "zed", "Zed"
	amy := officer("u02")
	amy.Username, amy.Name = "amy", "Amy"

	s := newSnap(t, wednesday, []model.User{amy, zed})
	require.Len(t, s.Officers, 2)
	assert.Equal(t, "u01", s.Officers[0].UserID)

	s.ApplyChoices([]model.ShiftChoice{
		{UserID: "u01", Date: wednesday, Choice: model.ShiftAfternoon},
		{UserID: "u02", Date: wednesday, Choice: model.ShiftAfternoon},
	})
	plan := Allocate(s, Rule{Date: wednesday, MorningLimit: 1, AfternoonLimit: 1, IsManual: true})
	want := []Assignment{
		{UserID: "u01", Name: "Zed", ShiftType: model.ShiftAfternoon, Source: model.SourceChoice},
		{UserID: "u02", Name: "Amy", ShiftType: model.ShiftMorning, Source: model.SourceBalance},
	}
	if diff := cmp.Diff(want, plan.Assignments); diff != "" {
		t.Errorf("分配结果不符 (-want +got):\n%s", diff)
	}
}

func TestAllocate_OverflowKeepsFullCoverage(t *testing.T) {
	tests := []struct {
		name          string
		rule          Rule
		wantMorning   int
		wantAfternoon int
		wantOverflow  int
	}{
		{"相等配额溢出归早班", Rule{MorningLimit: 1, AfternoonLimit: 1}, 4, 1, 3},
		{"晚班配额较大溢出归晚班", Rule{MorningLimit: 1, AfternoonLimit: 2}, 1, 4, 2},
		{"零配额全部归早班", Rule{}, 5, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := officers(5)
			s := newSnap(t, wednesday, users)
			plan := Allocate(s, tt.rule)

			assert.Len(t, plan.Assignments, len(users))
			assert.Equal(t, tt.wantMorning, plan.Count(model.ShiftMorning))
			assert.Equal(t, tt.wantAfternoon, plan.Count(model.ShiftAfternoon))
			assert.Equal(t, tt.wantOverflow, plan.Overflow)
		})
	}
}

func TestAllocate_PatternsDoNotConsumeQuota(t *testing.T) {
	s := newSnap(t, wednesday, officers(4))
	s.ApplyLockedShifts([]model.WeeklyLockedShiftPattern{{UserID: "u01", DayOfWeek: 3, ShiftType: model.ShiftMorning, IsActive: true}})
	s.ApplyFullTimes([]model.WeeklyFullTimePattern{{UserID: "u02", DayOfWeek: 3, IsActive: true}})

	rule := DeriveRule(s.Date, len(s.Available()))
	require.Equal(t, 2, rule.MorningLimit)
	require.Equal(t, 0, rule.AfternoonLimit)

	plan := Allocate(s, rule)
	got := assignmentMap(plan)
	assert.Equal(t, model.ShiftMorning, got["u01"])
	assert.Equal(t, model.ShiftFullTime, got["u02"])
	assert.Equal(t, model.ShiftMorning, got["u03"])
	assert.Equal(t, model.ShiftMorning, got["u04"])
	assert.Zero(t, plan.Overflow)
}

func TestAllocate_EveryOfficerExactlyOnceAndDeterministic(t *testing.T) {
	users := officers(23)
	build := func() Plan {
		// 逆序传入，验证排序后结果稳定
		reversed := make([]model.User, len(users))
		for i := range users {
			reversed[len(users)-1-i] = users[i]
		}
		s := newSnap(t, wednesday, reversed)
		s.ApplyDayOffs([]model.WeeklyDayOffPattern{{UserID: "u03", DayOfWeek: 3, IsActive: true}})
		s.ApplyVacations([]model.VacationRequest{{UserID: "u07", StartDate: wednesday, EndDate: wednesday, Status: model.VacationApproved}})
		s.ApplyChoices([]model.ShiftChoice{
			{UserID: "u10", Date: wednesday, Choice: model.ShiftAfternoon},
			{UserID: "u11", Date: wednesday, Choice: model.ShiftAfternoon},
		})
		return Allocate(s, DeriveRule(s.Date, len(s.Available())))
	}

	first, second := build(), build()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("相同输入分配结果应一致 (-first +second):\n%s", diff)
	}

	seen := make(map[string]int)
	for _, a := range first.Assignments {
		seen[a.UserID]++
		assert.True(t, a.ShiftType.Valid())
	}
	assert.Len(t, seen, len(users))
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}

	shifts := first.ToShifts()
	assert.Len(t, shifts, len(users))
	assert.Equal(t, wednesday, shifts[0].Date)
}
