package dto

// ── 自动排班设置 DTO ──

// UpdateSettingRequest 更新截止/自动生成时间
type UpdateSettingRequest struct {
	AutoTime24 string `json:"auto_time24" binding:"required,hhmm"`
}

// SettingResponse 设置响应
type SettingResponse struct {
	AutoTime24 string `json:"auto_time24"`
	IsDefault  bool   `json:"is_default"` // 未保存过设置，使用配置默认值
	UpdatedAt  string `json:"updated_at,omitempty"`
}
