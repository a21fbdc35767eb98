package dto

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	SessionID    string       `json:"session_id"`
	User         UserResponse `json:"user"`
	// DeviceWarningCount 本次登录触发了设备切换时返回累计切换次数
	DeviceWarningCount int `json:"device_warning_count,omitempty"`
	MaxDeviceSwitches  int `json:"max_device_switches,omitempty"`
}

// ── 用户模块响应 ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// UserDetailResponse 用户详细信息（GET /auth/me、管理端详情）
type UserDetailResponse struct {
	ID                        string   `json:"id"`
	Username                  string   `json:"username"`
	Name                      string   `json:"name"`
	Role                      string   `json:"role"`
	IsActive                  bool     `json:"is_active"`
	DifferentDeviceLoginCount int      `json:"different_device_login_count"`
	Capabilities              []string `json:"capabilities,omitempty"`
	CreatedAt                 string   `json:"created_at"`
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
