package model

// 周期性约束：按星期（0=周日 … 6=周六）生效，
// 同一官员同一星期每类约束至多一条。

// WeeklyDayOffPattern 每周固定休息 — 对应 weekly_day_off_patterns
type WeeklyDayOffPattern struct {
	PatternID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pattern_id"`
	UserID    string `gorm:"type:uuid;not null"                             json:"user_id"`
	DayOfWeek int    `gorm:"type:smallint;not null"                         json:"day_of_week"`
	IsActive  bool   `gorm:"not null;default:true"                          json:"is_active"`
	Timestamps
}

// TableName 指定表名
func (WeeklyDayOffPattern) TableName() string { return "weekly_day_off_patterns" }

// WeeklyFullTimePattern 每周固定全天班 — 对应 weekly_full_time_patterns
type WeeklyFullTimePattern struct {
	PatternID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pattern_id"`
	UserID    string `gorm:"type:uuid;not null"                             json:"user_id"`
	DayOfWeek int    `gorm:"type:smallint;not null"                         json:"day_of_week"`
	IsActive  bool   `gorm:"not null;default:true"                          json:"is_active"`
	Timestamps
}

// TableName 指定表名
func (WeeklyFullTimePattern) TableName() string { return "weekly_full_time_patterns" }

// WeeklyLockedShiftPattern 每周锁定班次 — 对应 weekly_locked_shift_patterns
type WeeklyLockedShiftPattern struct {
	PatternID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pattern_id"`
	UserID    string    `gorm:"type:uuid;not null"                             json:"user_id"`
	DayOfWeek int       `gorm:"type:smallint;not null"                         json:"day_of_week"`
	ShiftType ShiftType `gorm:"type:varchar(16);not null"                      json:"shift_type"`
	IsActive  bool      `gorm:"not null;default:true"                          json:"is_active"`
	Timestamps
}

// TableName 指定表名
func (WeeklyLockedShiftPattern) TableName() string { return "weekly_locked_shift_patterns" }
