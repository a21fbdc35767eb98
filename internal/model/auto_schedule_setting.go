package model

// AutoScheduleSetting 自动排班设置 — 对应 auto_schedule_settings（单行）
// AutoTime24 为次日排班的选择截止时间，同时也是自动生成的触发时间
type AutoScheduleSetting struct {
	Singleton  bool   `gorm:"primaryKey;default:true"                  json:"-"`
	AutoTime24 string `gorm:"type:varchar(5);not null;default:'19:00'" json:"auto_time24"`
	BaseModel
}

// TableName 指定表名
func (AutoScheduleSetting) TableName() string { return "auto_schedule_settings" }
