// Package access 角色到能力集合的映射，请求进入时解析一次，之后按能力断言。
package access

import "shift-roster/backend/internal/model"

// Capability 细粒度能力
type Capability string

const (
	SubmitChoice     Capability = "choice:submit"
	ViewOwnShifts    Capability = "shift:view-own"
	RequestVacation  Capability = "vacation:request"
	ViewRoster       Capability = "roster:view"
	ManageRules      Capability = "rule:manage"
	GenerateSchedule Capability = "schedule:generate"
	ManagePatterns   Capability = "pattern:manage"
	ReviewVacation   Capability = "vacation:review"
	ManageSettings   Capability = "setting:manage"
	ManageUsers      Capability = "user:manage"
	VerifyDocuments  Capability = "document:verify"
	RecordPenalty    Capability = "penalty:record"
	ViewActivity     Capability = "activity:view"
	ExportRoster     Capability = "roster:export"
)

// Set 能力集合
type Set map[Capability]struct{}

// Has 是否具备能力
func (s Set) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

func setOf(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

var all = []Capability{
	SubmitChoice, ViewOwnShifts, RequestVacation, ViewRoster, ManageRules,
	GenerateSchedule, ManagePatterns, ReviewVacation, ManageSettings,
	ManageUsers, VerifyDocuments, RecordPenalty, ViewActivity, ExportRoster,
}

var byRole = map[string]Set{
	model.RoleOfficer: setOf(SubmitChoice, ViewOwnShifts, RequestVacation, ViewRoster),
	model.RoleChecker: setOf(VerifyDocuments, ViewOwnShifts, ViewRoster),
	model.RoleAdmin: setOf(
		ViewRoster, ManageRules, GenerateSchedule, ManagePatterns, ReviewVacation,
		RecordPenalty, ViewActivity, ExportRoster, ManageSettings,
	),
	model.RoleSuperAdmin: setOf(all...),
}

// For 角色对应的能力集合；未知角色返回空集合
func For(role string) Set {
	if s, ok := byRole[role]; ok {
		return s
	}
	return Set{}
}

// List 按固定顺序列出集合中的能力
func (s Set) List() []Capability {
	out := make([]Capability, 0, len(s))
	for _, c := range all {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}
