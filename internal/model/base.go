package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// ── 日历日期类型 ──

// Date 对应 PostgreSQL DATE，始终以 YYYY-MM-DD 字符串在系统内流转，
// 避免日期在时区换算中漂移。
type Date string

// Scan 兼容驱动返回 time.Time / []byte / string 三种形式
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = Date(v.Format("2006-01-02"))
	case []byte:
		*d = Date(trimDate(string(v)))
	case string:
		*d = Date(trimDate(v))
	default:
		return fmt.Errorf("Date.Scan: unsupported type %T", src)
	}
	return nil
}

// Value 以 YYYY-MM-DD 文本写入
func (d Date) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

// String 返回 ISO 日期
func (d Date) String() string { return string(d) }

func trimDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// BaseModel 通用审计字段
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// Timestamps 仅含时间戳的轻量审计字段
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// VersionedModel 支持乐观锁的模型
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}
