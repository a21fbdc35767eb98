package model

import "time"

const (
	VacationPending  = "PENDING"
	VacationApproved = "APPROVED"
	VacationRejected = "REJECTED"
)

// VacationRequest 休假申请 — 对应 vacation_requests
// 仅 APPROVED 且 start_date <= date <= end_date 时阻断排班
type VacationRequest struct {
	VacationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"vacation_id"`
	UserID     string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	StartDate  Date       `gorm:"type:date;not null"                             json:"start_date"`
	EndDate    Date       `gorm:"type:date;not null"                             json:"end_date"`
	Reason     string     `gorm:"type:varchar(500);not null;default:''"          json:"reason"`
	Status     string     `gorm:"type:varchar(16);not null;default:'PENDING'"    json:"status"`
	ReviewedBy *string    `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	ReviewNote string     `gorm:"type:varchar(500);not null;default:''"          json:"review_note"`
	Timestamps

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (VacationRequest) TableName() string { return "vacation_requests" }

// Covers 是否覆盖指定日期（ISO 字符串可直接按字典序比较）
func (v *VacationRequest) Covers(date Date) bool {
	return v.StartDate <= date && date <= v.EndDate
}
