package dto

// ── 周期性约束 DTO ──

// Kind 取值
const (
	PatternDayOff   = "dayoff"
	PatternFullTime = "fulltime"
	PatternLocked   = "locked"
)

// SetPatternRequest 设置某官员某星期的约束
type SetPatternRequest struct {
	UserID    string `json:"user_id"     binding:"required,uuid"`
	Kind      string `json:"kind"        binding:"required,oneof=dayoff fulltime locked"`
	DayOfWeek *int   `json:"day_of_week" binding:"required,min=0,max=6"`
	ShiftType string `json:"shift_type"  binding:"omitempty,oneof=MORNING AFTERNOON FULLTIME"` // 仅 locked
}

// RemovePatternRequest 删除约束
type RemovePatternRequest struct {
	UserID    string `json:"user_id"     binding:"required,uuid"`
	Kind      string `json:"kind"        binding:"required,oneof=dayoff fulltime locked"`
	DayOfWeek *int   `json:"day_of_week" binding:"required,min=0,max=6"`
}

// PatternResponse 单条约束
type PatternResponse struct {
	Kind      string `json:"kind"`
	DayOfWeek int    `json:"day_of_week"`
	ShiftType string `json:"shift_type,omitempty"`
	IsActive  bool   `json:"is_active"`
}

// OfficerPatternsResponse 官员全部约束
type OfficerPatternsResponse struct {
	UserID   string            `json:"user_id"`
	Patterns []PatternResponse `json:"patterns"`
}
