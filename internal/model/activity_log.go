package model

import (
	"time"

	"gorm.io/datatypes"
)

// 业务活动类型
const (
	ActivityPaymentVerification = "PAYMENT_VERIFICATION"
	ActivityEVisaVerification   = "EVISA_VERIFICATION"
	ActivityPenalty             = "PENALTY"
)

// 活动结果
const (
	ActivityValid    = "VALID"
	ActivityInvalid  = "INVALID"
	ActivityError    = "ERROR" // 外部核验不可用
	ActivityRecorded = "RECORDED"
)

// ActivityLog 检查员/官员业务活动 — 对应 activity_logs
type ActivityLog struct {
	ActivityID    string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"activity_id"`
	ActorID       string         `gorm:"type:uuid;not null"                             json:"actor_id"`
	ActivityType  string         `gorm:"type:varchar(32);not null"                      json:"activity_type"`
	SubjectUserID *string        `gorm:"type:uuid"                                      json:"subject_user_id,omitempty"`
	Reference     string         `gorm:"type:varchar(128);not null;default:''"          json:"reference"`
	Status        string         `gorm:"type:varchar(16);not null"                      json:"status"`
	Details       datatypes.JSON `gorm:"type:jsonb;not null"                            json:"details"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ActivityLog) TableName() string { return "activity_logs" }
