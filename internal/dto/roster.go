package dto

// ── 排班模块 DTO ──

// SetRuleRequest 手动设置日配额
type SetRuleRequest struct {
	MorningLimit   *int `json:"morning_limit"   binding:"required,min=0"`
	AfternoonLimit *int `json:"afternoon_limit" binding:"required,min=0"`
}

// RuleResponse 日配额响应
type RuleResponse struct {
	Date           string `json:"date"`
	MorningLimit   int    `json:"morning_limit"`
	AfternoonLimit int    `json:"afternoon_limit"`
	IsManual       bool   `json:"is_manual"`
	Persisted      bool   `json:"persisted"`
}

// SubmitChoiceRequest 提交班次偏好
type SubmitChoiceRequest struct {
	Date   string `json:"date"   binding:"required,isodate"`
	Choice string `json:"choice" binding:"required,shiftchoice"`
}

// ChoiceResponse 班次偏好响应
type ChoiceResponse struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	Date      string `json:"date"`
	Choice    string `json:"choice"`
	UpdatedAt string `json:"updated_at"`
}

// WindowResponse 选择窗口状态
type WindowResponse struct {
	Date     string `json:"date"`
	State    string `json:"state"`
	Open     bool   `json:"open"`
	Reason   string `json:"reason,omitempty"`
	Cutoff   string `json:"cutoff"` // 当前生效的截止时间 HH:MM
	Timezone string `json:"timezone"`
}

// GenerateRequest 生成排班请求，date 缺省为明天
type GenerateRequest struct {
	Date string `json:"date" binding:"omitempty,isodate"`
}

// AssignmentResponse 单个官员的排班
type AssignmentResponse struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	ShiftType string `json:"shift_type"`
	Source    string `json:"source,omitempty"`
}

// GenerationResponse 生成 / 预览结果
type GenerationResponse struct {
	Date        string               `json:"date"`
	Rule        RuleResponse         `json:"rule"`
	Assignments []AssignmentResponse `json:"assignments"`
	Counts      map[string]int       `json:"counts"`
	Overflow    int                  `json:"overflow"`
	IsAuto      bool                 `json:"is_auto"`
	Persisted   bool                 `json:"persisted"`
}

// RosterResponse 某日已生成排班
type RosterResponse struct {
	Date        string               `json:"date"`
	Generated   bool                 `json:"generated"`
	GeneratedAt string               `json:"generated_at,omitempty"`
	IsAuto      bool                 `json:"is_auto"`
	Assignments []AssignmentResponse `json:"assignments"`
	Counts      map[string]int       `json:"counts"`
}

// DateRangeRequest 日期区间查询
type DateRangeRequest struct {
	From string `form:"from" binding:"required,isodate"`
	To   string `form:"to"   binding:"required,isodate"`
}

// MyShiftResponse 个人排班
type MyShiftResponse struct {
	Date      string `json:"date"`
	ShiftType string `json:"shift_type"`
	Hours     string `json:"hours,omitempty"`
}

// ScheduleLogResponse 生成记录
type ScheduleLogResponse struct {
	Date           string `json:"date"`
	IsAuto         bool   `json:"is_auto"`
	CreatedBy      string `json:"created_by,omitempty"`
	OfficerCount   int    `json:"officer_count"`
	MorningLimit   int    `json:"morning_limit"`
	AfternoonLimit int    `json:"afternoon_limit"`
	CreatedAt      string `json:"created_at"`
}
