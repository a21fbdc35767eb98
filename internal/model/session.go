package model

import "time"

// UserSession 登录会话 — 对应 user_sessions
// 设备绑定：OFFICER / CHECKER 同一时刻仅保留一台设备上的会话
type UserSession struct {
	SessionID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	UserID     string    `gorm:"type:uuid;not null;index"                       json:"user_id"`
	DeviceID   string    `gorm:"type:varchar(128);not null"                     json:"device_id"`
	UserAgent  string    `gorm:"type:varchar(255);not null;default:''"          json:"user_agent"`
	ExpiresAt  time.Time `gorm:"not null"                                       json:"expires_at"`
	LastSeenAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"last_seen_at"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (UserSession) TableName() string { return "user_sessions" }
