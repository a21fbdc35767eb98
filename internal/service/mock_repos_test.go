package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"shift-roster/backend/internal/audit"
	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/repository"
	pkgerrors "shift-roster/backend/pkg/errors"
)

// ── 测试用 Repository 聚合 ──

type mockRepos struct {
	user     *mockUserRepo
	session  *mockSessionRepo
	pattern  *mockPatternRepo
	vacation *mockVacationRepo
	rule     *mockShiftRuleRepo
	choice   *mockShiftChoiceRepo
	shift    *mockShiftRepo
	log      *mockScheduleLogRepo
	setting  *mockSettingRepo
	audit    *mockAuditLogRepo
	activity *mockActivityRepo
}

func newMockRepos() *mockRepos {
	users := newMockUserRepo()
	return &mockRepos{
		user:     users,
		session:  newMockSessionRepo(),
		pattern:  newMockPatternRepo(),
		vacation: newMockVacationRepo(users),
		rule:     newMockShiftRuleRepo(),
		choice:   newMockShiftChoiceRepo(),
		shift:    newMockShiftRepo(users),
		log:      newMockScheduleLogRepo(),
		setting:  &mockSettingRepo{},
		audit:    &mockAuditLogRepo{},
		activity: &mockActivityRepo{},
	}
}

func (m *mockRepos) repository() *repository.Repository {
	return &repository.Repository{
		User:        m.user,
		Session:     m.session,
		Pattern:     m.pattern,
		Vacation:    m.vacation,
		ShiftRule:   m.rule,
		ShiftChoice: m.choice,
		Shift:       m.shift,
		ScheduleLog: m.log,
		Setting:     m.setting,
		AuditLog:    m.audit,
		Activity:    m.activity,
	}
}

// memSink 收集审计事件
type memSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *memSink) Write(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *memSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

var seq int

func nextID(prefix string) string {
	seq++
	return fmt.Sprintf("%s-%d", prefix, seq)
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = nextID("user")
	}
	if user.Version == 0 {
		user.Version = 1
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := m.users[user.UserID]
	if !ok || stored.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version++
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.sorted() {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(u.Username, filter.Keyword) && !strings.Contains(u.Name, filter.Keyword) {
			continue
		}
		all = append(all, u)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) ListActiveOfficers(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range m.sorted() {
		if u.IsSchedulable() {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) sorted() []model.User {
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	sessions map[string]*model.UserSession
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.UserSession)}
}

func (m *mockSessionRepo) Create(_ context.Context, s *model.UserSession) error {
	if s.SessionID == "" {
		s.SessionID = nextID("session")
	}
	cp := *s
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.UserSession, error) {
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) ListByUser(_ context.Context, userID string) ([]model.UserSession, error) {
	var out []model.UserSession
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) Touch(_ context.Context, id string, at time.Time) error {
	if s, ok := m.sessions[id]; ok {
		s.LastSeenAt = at
	}
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	var n int64
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *mockSessionRepo) countByUser(userID string) int {
	n := 0
	for _, s := range m.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

// ── Mock PatternRepository ──

type patternKey struct {
	userID string
	dow    int
}

type mockPatternRepo struct {
	dayOffs   map[patternKey]model.WeeklyDayOffPattern
	fullTimes map[patternKey]model.WeeklyFullTimePattern
	locked    map[patternKey]model.WeeklyLockedShiftPattern
}

func newMockPatternRepo() *mockPatternRepo {
	return &mockPatternRepo{
		dayOffs:   make(map[patternKey]model.WeeklyDayOffPattern),
		fullTimes: make(map[patternKey]model.WeeklyFullTimePattern),
		locked:    make(map[patternKey]model.WeeklyLockedShiftPattern),
	}
}

func (m *mockPatternRepo) ListDayOffsByWeekday(_ context.Context, dow int) ([]model.WeeklyDayOffPattern, error) {
	var out []model.WeeklyDayOffPattern
	for k, p := range m.dayOffs {
		if k.dow == dow && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPatternRepo) ListFullTimesByWeekday(_ context.Context, dow int) ([]model.WeeklyFullTimePattern, error) {
	var out []model.WeeklyFullTimePattern
	for k, p := range m.fullTimes {
		if k.dow == dow && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPatternRepo) ListLockedByWeekday(_ context.Context, dow int) ([]model.WeeklyLockedShiftPattern, error) {
	var out []model.WeeklyLockedShiftPattern
	for k, p := range m.locked {
		if k.dow == dow && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPatternRepo) ListDayOffsByUser(_ context.Context, userID string) ([]model.WeeklyDayOffPattern, error) {
	var out []model.WeeklyDayOffPattern
	for k, p := range m.dayOffs {
		if k.userID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out, nil
}

func (m *mockPatternRepo) ListFullTimesByUser(_ context.Context, userID string) ([]model.WeeklyFullTimePattern, error) {
	var out []model.WeeklyFullTimePattern
	for k, p := range m.fullTimes {
		if k.userID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out, nil
}

func (m *mockPatternRepo) ListLockedByUser(_ context.Context, userID string) ([]model.WeeklyLockedShiftPattern, error) {
	var out []model.WeeklyLockedShiftPattern
	for k, p := range m.locked {
		if k.userID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out, nil
}

func (m *mockPatternRepo) UpsertDayOff(_ context.Context, p *model.WeeklyDayOffPattern) error {
	m.dayOffs[patternKey{p.UserID, p.DayOfWeek}] = *p
	return nil
}

func (m *mockPatternRepo) UpsertFullTime(_ context.Context, p *model.WeeklyFullTimePattern) error {
	m.fullTimes[patternKey{p.UserID, p.DayOfWeek}] = *p
	return nil
}

func (m *mockPatternRepo) UpsertLocked(_ context.Context, p *model.WeeklyLockedShiftPattern) error {
	m.locked[patternKey{p.UserID, p.DayOfWeek}] = *p
	return nil
}

func (m *mockPatternRepo) DeleteDayOff(_ context.Context, userID string, dow int) (int64, error) {
	k := patternKey{userID, dow}
	if _, ok := m.dayOffs[k]; !ok {
		return 0, nil
	}
	delete(m.dayOffs, k)
	return 1, nil
}

func (m *mockPatternRepo) DeleteFullTime(_ context.Context, userID string, dow int) (int64, error) {
	k := patternKey{userID, dow}
	if _, ok := m.fullTimes[k]; !ok {
		return 0, nil
	}
	delete(m.fullTimes, k)
	return 1, nil
}

func (m *mockPatternRepo) DeleteLocked(_ context.Context, userID string, dow int) (int64, error) {
	k := patternKey{userID, dow}
	if _, ok := m.locked[k]; !ok {
		return 0, nil
	}
	delete(m.locked, k)
	return 1, nil
}

// ── Mock VacationRepository ──

type mockVacationRepo struct {
	users     *mockUserRepo
	vacations map[string]*model.VacationRequest
}

func newMockVacationRepo(users *mockUserRepo) *mockVacationRepo {
	return &mockVacationRepo{users: users, vacations: make(map[string]*model.VacationRequest)}
}

func (m *mockVacationRepo) Create(_ context.Context, v *model.VacationRequest) error {
	if v.VacationID == "" {
		v.VacationID = nextID("vacation")
	}
	v.CreatedAt = time.Now()
	cp := *v
	m.vacations[v.VacationID] = &cp
	return nil
}

func (m *mockVacationRepo) GetByID(_ context.Context, id string) (*model.VacationRequest, error) {
	v, ok := m.vacations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	if u, ok := m.users.users[v.UserID]; ok {
		cp.User = u
	}
	return &cp, nil
}

func (m *mockVacationRepo) Update(_ context.Context, v *model.VacationRequest) error {
	if _, ok := m.vacations[v.VacationID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *v
	m.vacations[v.VacationID] = &cp
	return nil
}

func (m *mockVacationRepo) Delete(_ context.Context, id string) error {
	delete(m.vacations, id)
	return nil
}

func (m *mockVacationRepo) List(_ context.Context, filter repository.VacationFilter, offset, limit int) ([]model.VacationRequest, int64, error) {
	var all []model.VacationRequest
	for _, v := range m.vacations {
		if filter.UserID != "" && v.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		if filter.From != "" && v.EndDate < filter.From {
			continue
		}
		if filter.To != "" && v.StartDate > filter.To {
			continue
		}
		all = append(all, *v)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartDate < all[j].StartDate })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockVacationRepo) ListApprovedCovering(_ context.Context, date model.Date) ([]model.VacationRequest, error) {
	var out []model.VacationRequest
	for _, v := range m.vacations {
		if v.Status == model.VacationApproved && v.Covers(date) {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *mockVacationRepo) CountOverlapping(_ context.Context, userID string, start, end model.Date) (int64, error) {
	var n int64
	for _, v := range m.vacations {
		if v.UserID != userID || v.Status == model.VacationRejected {
			continue
		}
		if v.StartDate <= end && start <= v.EndDate {
			n++
		}
	}
	return n, nil
}

// ── Mock ShiftRuleRepository ──

type mockShiftRuleRepo struct {
	rules map[model.Date]*model.ShiftRule
}

func newMockShiftRuleRepo() *mockShiftRuleRepo {
	return &mockShiftRuleRepo{rules: make(map[model.Date]*model.ShiftRule)}
}

func (m *mockShiftRuleRepo) GetByDate(_ context.Context, date model.Date) (*model.ShiftRule, error) {
	if r, ok := m.rules[date]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRuleRepo) Upsert(_ context.Context, rule *model.ShiftRule) error {
	cp := *rule
	m.rules[rule.Date] = &cp
	return nil
}

func (m *mockShiftRuleRepo) CreateIfAbsent(_ context.Context, rule *model.ShiftRule) error {
	if _, ok := m.rules[rule.Date]; ok {
		return nil
	}
	cp := *rule
	m.rules[rule.Date] = &cp
	return nil
}

func (m *mockShiftRuleRepo) DeleteByDate(_ context.Context, date model.Date) (int64, error) {
	if _, ok := m.rules[date]; !ok {
		return 0, nil
	}
	delete(m.rules, date)
	return 1, nil
}

func (m *mockShiftRuleRepo) ListByRange(_ context.Context, from, to model.Date) ([]model.ShiftRule, error) {
	var out []model.ShiftRule
	for d, r := range m.rules {
		if from <= d && d <= to {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// ── Mock ShiftChoiceRepository ──

type mockShiftChoiceRepo struct {
	choices map[string]*model.ShiftChoice // key: userID|date
}

func newMockShiftChoiceRepo() *mockShiftChoiceRepo {
	return &mockShiftChoiceRepo{choices: make(map[string]*model.ShiftChoice)}
}

func choiceKey(userID string, date model.Date) string { return userID + "|" + string(date) }

func (m *mockShiftChoiceRepo) Upsert(_ context.Context, c *model.ShiftChoice) error {
	if c.ChoiceID == "" {
		c.ChoiceID = nextID("choice")
	}
	c.UpdatedAt = time.Now()
	cp := *c
	m.choices[choiceKey(c.UserID, c.Date)] = &cp
	return nil
}

func (m *mockShiftChoiceRepo) Get(_ context.Context, userID string, date model.Date) (*model.ShiftChoice, error) {
	if c, ok := m.choices[choiceKey(userID, date)]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftChoiceRepo) ListByDate(_ context.Context, date model.Date) ([]model.ShiftChoice, error) {
	var out []model.ShiftChoice
	for _, c := range m.choices {
		if c.Date == date {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *mockShiftChoiceRepo) CountByChoiceExcludingUser(_ context.Context, date model.Date, choice model.ShiftType, userID string) (int64, error) {
	var n int64
	for _, c := range m.choices {
		if c.Date == date && c.Choice == choice && c.UserID != userID {
			n++
		}
	}
	return n, nil
}

func (m *mockShiftChoiceRepo) Delete(_ context.Context, userID string, date model.Date) (int64, error) {
	k := choiceKey(userID, date)
	if _, ok := m.choices[k]; !ok {
		return 0, nil
	}
	delete(m.choices, k)
	return 1, nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	users  *mockUserRepo
	shifts []model.Shift
}

func newMockShiftRepo(users *mockUserRepo) *mockShiftRepo {
	return &mockShiftRepo{users: users}
}

func (m *mockShiftRepo) ExistsByDate(_ context.Context, date model.Date) (bool, error) {
	for _, s := range m.shifts {
		if s.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockShiftRepo) BatchCreate(_ context.Context, shifts []model.Shift) error {
	for _, s := range shifts {
		for _, existing := range m.shifts {
			if existing.UserID == s.UserID && existing.Date == s.Date {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	for _, s := range shifts {
		if s.ShiftID == "" {
			s.ShiftID = nextID("shift")
		}
		s.CreatedAt = time.Now()
		m.shifts = append(m.shifts, s)
	}
	return nil
}

func (m *mockShiftRepo) ListByDate(_ context.Context, date model.Date) ([]model.Shift, error) {
	return m.filter(func(s model.Shift) bool { return s.Date == date }), nil
}

func (m *mockShiftRepo) ListByUserRange(_ context.Context, userID string, from, to model.Date) ([]model.Shift, error) {
	return m.filter(func(s model.Shift) bool {
		return s.UserID == userID && from <= s.Date && s.Date <= to
	}), nil
}

func (m *mockShiftRepo) ListByRange(_ context.Context, from, to model.Date) ([]model.Shift, error) {
	return m.filter(func(s model.Shift) bool { return from <= s.Date && s.Date <= to }), nil
}

func (m *mockShiftRepo) filter(keep func(model.Shift) bool) []model.Shift {
	var out []model.Shift
	for _, s := range m.shifts {
		if !keep(s) {
			continue
		}
		if u, ok := m.users.users[s.UserID]; ok {
			s.User = u
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// ── Mock ScheduleLogRepository ──

type mockScheduleLogRepo struct {
	logs map[model.Date]*model.ScheduleLog
}

func newMockScheduleLogRepo() *mockScheduleLogRepo {
	return &mockScheduleLogRepo{logs: make(map[model.Date]*model.ScheduleLog)}
}

func (m *mockScheduleLogRepo) Create(_ context.Context, log *model.ScheduleLog) error {
	if _, ok := m.logs[log.Date]; ok {
		return gorm.ErrDuplicatedKey
	}
	if log.LogID == "" {
		log.LogID = nextID("log")
	}
	log.CreatedAt = time.Now()
	cp := *log
	m.logs[log.Date] = &cp
	return nil
}

func (m *mockScheduleLogRepo) GetByDate(_ context.Context, date model.Date) (*model.ScheduleLog, error) {
	if l, ok := m.logs[date]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleLogRepo) List(_ context.Context, offset, limit int) ([]model.ScheduleLog, int64, error) {
	var all []model.ScheduleLog
	for _, l := range m.logs {
		all = append(all, *l)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date > all[j].Date })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock SettingRepository ──

type mockSettingRepo struct {
	setting *model.AutoScheduleSetting
}

func (m *mockSettingRepo) Get(_ context.Context) (*model.AutoScheduleSetting, error) {
	if m.setting == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.setting
	return &cp, nil
}

func (m *mockSettingRepo) Save(_ context.Context, s *model.AutoScheduleSetting) error {
	s.Singleton = true
	s.UpdatedAt = time.Now()
	cp := *s
	m.setting = &cp
	return nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	logs []model.AuditLog
}

func (m *mockAuditLogRepo) Create(_ context.Context, log *model.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditLogRepo) List(_ context.Context, action string, offset, limit int) ([]model.AuditLog, int64, error) {
	var all []model.AuditLog
	for _, l := range m.logs {
		if action == "" || l.Action == action {
			all = append(all, l)
		}
	}
	return all, int64(len(all)), nil
}

// ── Mock ActivityLogRepository ──

type mockActivityRepo struct {
	logs []model.ActivityLog
}

func (m *mockActivityRepo) Create(_ context.Context, log *model.ActivityLog) error {
	if log.ActivityID == "" {
		log.ActivityID = nextID("activity")
	}
	log.CreatedAt = time.Now()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockActivityRepo) List(_ context.Context, filter repository.ActivityFilter, offset, limit int) ([]model.ActivityLog, int64, error) {
	var all []model.ActivityLog
	for _, l := range m.logs {
		if filter.ActorID != "" && l.ActorID != filter.ActorID {
			continue
		}
		if filter.ActivityType != "" && l.ActivityType != filter.ActivityType {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		all = append(all, l)
	}
	return all, int64(len(all)), nil
}
