package roster

import "shift-roster/backend/internal/model"

// Assignment 单个官员的当日班次
type Assignment struct {
	UserID    string
	Name      string
	ShiftType model.ShiftType
	Source    string
}

// Plan 一次分配的完整结果
type Plan struct {
	Date        model.Date
	Rule        Rule
	Assignments []Assignment
	Overflow    int // 超出配额被强制分配的人数
}

// Count 指定班次的分配人数
func (p *Plan) Count(kind model.ShiftType) int {
	n := 0
	for _, a := range p.Assignments {
		if a.ShiftType == kind {
			n++
		}
	}
	return n
}

// ToShifts 转换为待写入的排班记录
func (p *Plan) ToShifts() []model.Shift {
	shifts := make([]model.Shift, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		shifts = append(shifts, model.Shift{
			UserID:    a.UserID,
			Date:      p.Date,
			ShiftType: a.ShiftType,
			Source:    a.Source,
		})
	}
	return shifts
}

// Allocate 为快照中每个在岗官员分配且仅分配一个班次。
//
// 按官员顺序逐一处理：休息 → 休假 → 全天 → 锁定班次 → 自由官员。
// 自由官员优先采纳其偏好（对应班次仍有余量时）；否则分往有余量的班次，
// 两者都有余量时取早班；两者都满时分往配额较大的班次（相等取早班），
// 配额只是均衡目标，任何在岗官员都不会被遗漏。
// 全天与锁定官员不占用早/晚班配额。
func Allocate(s *Snapshot, rule Rule) Plan {
	plan := Plan{
		Date:        s.Date,
		Rule:        rule,
		Assignments: make([]Assignment, 0, len(s.Officers)),
	}
	remaining := map[model.ShiftType]int{
		model.ShiftMorning:   rule.MorningLimit,
		model.ShiftAfternoon: rule.AfternoonLimit,
	}

	for _, o := range s.Officers {
		a := Assignment{UserID: o.UserID, Name: o.Name}

		c := s.Resolve(o.UserID)
		switch c.Block {
		case BlockDayOff:
			a.ShiftType, a.Source = model.ShiftDayOff, model.SourceDayOff
		case BlockVacation:
			a.ShiftType, a.Source = model.ShiftVacation, model.SourceVacation
		case BlockFullTime:
			a.ShiftType, a.Source = model.ShiftFullTime, model.SourceFullTime
		case BlockLocked:
			a.ShiftType, a.Source = c.Locked, model.SourceLocked
		default:
			a.ShiftType, a.Source = pickFree(s, o.UserID, rule, remaining)
			if a.Source == model.SourceOverflow {
				plan.Overflow++
			}
			remaining[a.ShiftType]--
		}

		plan.Assignments = append(plan.Assignments, a)
	}

	return plan
}

func pickFree(s *Snapshot, userID string, rule Rule, remaining map[model.ShiftType]int) (model.ShiftType, string) {
	if choice, ok := s.Choice(userID); ok && remaining[choice] > 0 {
		return choice, model.SourceChoice
	}
	if remaining[model.ShiftMorning] > 0 {
		return model.ShiftMorning, model.SourceBalance
	}
	if remaining[model.ShiftAfternoon] > 0 {
		return model.ShiftAfternoon, model.SourceBalance
	}
	if rule.AfternoonLimit > rule.MorningLimit {
		return model.ShiftAfternoon, model.SourceOverflow
	}
	return model.ShiftMorning, model.SourceOverflow
}
