// Package roster 排班核心规则：约束判定、配额推导、选择窗口与日排班分配。
// 本包为纯计算，不访问数据库与系统时间；数据由 service 层装载为 Snapshot 后传入。
package roster

import (
	"sort"

	"shift-roster/backend/internal/model"
	"shift-roster/backend/pkg/clock"
)

// Block 官员在某日的阻断类别
type Block string

const (
	BlockNone     Block = ""
	BlockDayOff   Block = "DAYOFF"
	BlockVacation Block = "VACATION"
	BlockFullTime Block = "FULLTIME"
	BlockLocked   Block = "LOCKED"
)

// Constraint 单个官员在某日的约束判定结果
type Constraint struct {
	Block  Block
	Locked model.ShiftType // 仅 Block=LOCKED 时有效
}

// Blocked 是否被阻断（不可自选班次）
func (c Constraint) Blocked() bool { return c.Block != BlockNone }

// Snapshot 某日排班所需数据的只读快照
type Snapshot struct {
	Date     model.Date
	Weekday  int
	Officers []model.User // 仅在岗 OFFICER，已排序

	dayOff   map[string]bool
	fullTime map[string]bool
	locked   map[string]model.ShiftType
	vacation map[string]bool
	choices  map[string]model.ShiftType
}

// NewSnapshot 创建指定日期的空快照
func NewSnapshot(date model.Date) (*Snapshot, error) {
	dow, err := clock.Weekday(string(date))
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Date:     date,
		Weekday:  dow,
		dayOff:   make(map[string]bool),
		fullTime: make(map[string]bool),
		locked:   make(map[string]model.ShiftType),
		vacation: make(map[string]bool),
		choices:  make(map[string]model.ShiftType),
	}, nil
}

// SetOfficers 设置参与排班的官员，过滤非在岗/非 OFFICER 用户并按 user_id 排序。
// 该顺序决定选择按何种先后占用配额，改名不影响排班结果。
func (s *Snapshot) SetOfficers(users []model.User) {
	officers := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.IsSchedulable() {
			officers = append(officers, u)
		}
	}
	sort.Slice(officers, func(i, j int) bool {
		return officers[i].UserID < officers[j].UserID
	})
	s.Officers = officers
}

// ApplyDayOffs 载入休息约束（仅当日星期且启用的记录生效）
func (s *Snapshot) ApplyDayOffs(patterns []model.WeeklyDayOffPattern) {
	for _, p := range patterns {
		if p.IsActive && p.DayOfWeek == s.Weekday {
			s.dayOff[p.UserID] = true
		}
	}
}

// ApplyFullTimes 载入全天班约束
func (s *Snapshot) ApplyFullTimes(patterns []model.WeeklyFullTimePattern) {
	for _, p := range patterns {
		if p.IsActive && p.DayOfWeek == s.Weekday {
			s.fullTime[p.UserID] = true
		}
	}
}

// ApplyLockedShifts 载入锁定班次约束
func (s *Snapshot) ApplyLockedShifts(patterns []model.WeeklyLockedShiftPattern) {
	for _, p := range patterns {
		if p.IsActive && p.DayOfWeek == s.Weekday && p.ShiftType.IsLockable() {
			s.locked[p.UserID] = p.ShiftType
		}
	}
}

// ApplyVacations 载入休假（仅已批准且覆盖当日）
func (s *Snapshot) ApplyVacations(requests []model.VacationRequest) {
	for i := range requests {
		v := &requests[i]
		if v.Status == model.VacationApproved && v.Covers(s.Date) {
			s.vacation[v.UserID] = true
		}
	}
}

// ApplyChoices 载入当日班次偏好
func (s *Snapshot) ApplyChoices(choices []model.ShiftChoice) {
	for _, c := range choices {
		if c.Date == s.Date && c.Choice.IsChoosable() {
			s.choices[c.UserID] = c.Choice
		}
	}
}

// Choice 官员当日偏好
func (s *Snapshot) Choice(userID string) (model.ShiftType, bool) {
	c, ok := s.choices[userID]
	return c, ok
}

// Resolve 判定官员当日约束，优先级：休息 > 休假 > 全天 > 锁定
func (s *Snapshot) Resolve(userID string) Constraint {
	switch {
	case s.dayOff[userID]:
		return Constraint{Block: BlockDayOff}
	case s.vacation[userID]:
		return Constraint{Block: BlockVacation}
	case s.fullTime[userID]:
		return Constraint{Block: BlockFullTime}
	}
	if kind, ok := s.locked[userID]; ok {
		return Constraint{Block: BlockLocked, Locked: kind}
	}
	return Constraint{}
}

// IsBlocked 官员当日是否被阻断
func (s *Snapshot) IsBlocked(userID string) bool {
	return s.Resolve(userID).Blocked()
}

// Available 当日可自由选择早/晚班的官员
func (s *Snapshot) Available() []model.User {
	var free []model.User
	for _, o := range s.Officers {
		if !s.IsBlocked(o.UserID) {
			free = append(free, o)
		}
	}
	return free
}

// HasOfficer 快照中是否包含该在岗官员
func (s *Snapshot) HasOfficer(userID string) bool {
	for _, o := range s.Officers {
		if o.UserID == userID {
			return true
		}
	}
	return false
}
