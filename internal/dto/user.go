package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role     string `form:"role"      binding:"omitempty,oneof=OFFICER CHECKER ADMIN SUPER_ADMIN"`
	IsActive *bool  `form:"is_active"`
	Keyword  string `form:"keyword"   binding:"omitempty,max=50"`
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role"     binding:"required,oneof=OFFICER CHECKER ADMIN SUPER_ADMIN"`
}

// ImportUserResponse 批量导入用户响应
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []ImportUserError `json:"errors,omitempty"`
	Created []ImportedUser    `json:"created,omitempty"`
}

// ImportUserError 导入错误详情
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportedUser 导入成功的用户及其临时密码（仅返回一次）
type ImportedUser struct {
	Row          int    `json:"row"`
	Username     string `json:"username"`
	TempPassword string `json:"temp_password"`
}
