package roster

import "shift-roster/backend/internal/model"

// WindowState 选择窗口状态
type WindowState string

const (
	StateOpen               WindowState = "OPEN"
	StateClosedByGeneration WindowState = "CLOSED_BY_GENERATION"
	StateClosedByCutoff     WindowState = "CLOSED_BY_CUTOFF"
)

const (
	ReasonAlreadyGenerated = "already-generated"
	ReasonCutoffPassed     = "cutoff-passed"
	ReasonDatePassed       = "date-passed"
)

// WindowInput 窗口判定输入，时间均为民用时区
type WindowInput struct {
	Target       model.Date
	Today        model.Date
	Tomorrow     model.Date
	NowMinute    int // 当日已过分钟数
	CutoffMinute int // autoTime24 折算的分钟数
	Generated    bool
}

// Window 窗口判定结果
type Window struct {
	State  WindowState
	Reason string
}

// Open 是否允许提交
func (w Window) Open() bool { return w.State == StateOpen }

// CutoffPassed 当前时间是否已到达或超过截止时间
func CutoffPassed(nowMinute, cutoffMinute int) bool {
	return nowMinute >= cutoffMinute
}

// EvaluateWindow 判定目标日期的选择窗口。
// 截止时间只约束“明天”；更远的日期在今日截止后仍然开放。
func EvaluateWindow(in WindowInput) Window {
	if in.Generated {
		return Window{State: StateClosedByGeneration, Reason: ReasonAlreadyGenerated}
	}
	if in.Target <= in.Today {
		return Window{State: StateClosedByCutoff, Reason: ReasonDatePassed}
	}
	if in.Target == in.Tomorrow && CutoffPassed(in.NowMinute, in.CutoffMinute) {
		return Window{State: StateClosedByCutoff, Reason: ReasonCutoffPassed}
	}
	return Window{State: StateOpen}
}
