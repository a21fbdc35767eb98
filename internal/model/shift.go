package model

import "time"

// ShiftType 班次类型
type ShiftType string

const (
	ShiftMorning   ShiftType = "MORNING"
	ShiftAfternoon ShiftType = "AFTERNOON"
	ShiftFullTime  ShiftType = "FULLTIME"
	ShiftDayOff    ShiftType = "DAYOFF"
	ShiftVacation  ShiftType = "VACATION"
)

// IsChoosable 官员可自选的班次（仅早/晚班）
func (t ShiftType) IsChoosable() bool {
	return t == ShiftMorning || t == ShiftAfternoon
}

// IsLockable 可被周期锁定的班次
func (t ShiftType) IsLockable() bool {
	return t == ShiftMorning || t == ShiftAfternoon || t == ShiftFullTime
}

// Valid 是否为已知班次
func (t ShiftType) Valid() bool {
	switch t {
	case ShiftMorning, ShiftAfternoon, ShiftFullTime, ShiftDayOff, ShiftVacation:
		return true
	}
	return false
}

// 班次来源，记录每条排班的成因
const (
	SourceDayOff   = "DAYOFF"
	SourceVacation = "VACATION"
	SourceFullTime = "FULLTIME"
	SourceLocked   = "LOCKED"
	SourceChoice   = "CHOICE"
	SourceBalance  = "BALANCE"
	SourceOverflow = "OVERFLOW"
)

// ShiftRule 当日早/晚班配额 — 对应 shift_rules
// IsManual=false 表示生成时冻结的推导配额
type ShiftRule struct {
	RuleID         string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"rule_id"`
	Date           Date    `gorm:"type:date;not null;uniqueIndex"                 json:"date"`
	MorningLimit   int     `gorm:"not null"                                       json:"morning_limit"`
	AfternoonLimit int     `gorm:"not null"                                       json:"afternoon_limit"`
	IsManual       bool    `gorm:"not null"                                       json:"is_manual"`
	CreatedBy      *string `gorm:"type:uuid"                                      json:"created_by,omitempty"`
	Timestamps
}

// TableName 指定表名
func (ShiftRule) TableName() string { return "shift_rules" }

// ShiftChoice 官员班次偏好 — 对应 shift_choices
type ShiftChoice struct {
	ChoiceID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"choice_id"`
	UserID   string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Date     Date      `gorm:"type:date;not null"                             json:"date"`
	Choice   ShiftType `gorm:"type:varchar(16);not null"                      json:"choice"`
	Timestamps
}

// TableName 指定表名
func (ShiftChoice) TableName() string { return "shift_choices" }

// Shift 最终排班 — 对应 shifts
type Shift struct {
	ShiftID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	UserID    string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Date      Date      `gorm:"type:date;not null;index"                       json:"date"`
	ShiftType ShiftType `gorm:"type:varchar(16);not null"                      json:"shift_type"`
	Source    string    `gorm:"type:varchar(16);not null;default:''"           json:"source"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// ScheduleLog 排班生成记录 — 对应 schedule_logs，date 唯一
type ScheduleLog struct {
	LogID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	Date           Date      `gorm:"type:date;not null;uniqueIndex"                 json:"date"`
	IsAuto         bool      `gorm:"not null;default:false"                         json:"is_auto"`
	CreatedBy      *string   `gorm:"type:uuid"                                      json:"created_by,omitempty"`
	OfficerCount   int       `gorm:"not null;default:0"                             json:"officer_count"`
	MorningLimit   int       `gorm:"not null;default:0"                             json:"morning_limit"`
	AfternoonLimit int       `gorm:"not null;default:0"                             json:"afternoon_limit"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ScheduleLog) TableName() string { return "schedule_logs" }
