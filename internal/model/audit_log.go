package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog 审计日志 — 对应 audit_logs
type AuditLog struct {
	AuditID    string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_id"`
	Action     string         `gorm:"type:varchar(64);not null"                      json:"action"`
	ActorID    *string        `gorm:"type:uuid"                                      json:"actor_id,omitempty"`
	TargetType string         `gorm:"type:varchar(32);not null;default:''"           json:"target_type"`
	TargetID   string         `gorm:"type:varchar(64);not null;default:''"           json:"target_id"`
	Details    datatypes.JSON `gorm:"type:jsonb;not null"                            json:"details"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string { return "audit_logs" }
