package dto

// ── 认证模块 DTO ──

// LoginRequest 账号密码登录请求
type LoginRequest struct {
	Username string `json:"username"  binding:"required,max=64"`
	Password string `json:"password"  binding:"required"`
	DeviceID string `json:"device_id" binding:"required,max=128"`
}

// BiometricLoginRequest 生物识别登录请求：设备本地验证通过后以已保存的 refresh token 换取新会话
type BiometricLoginRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	DeviceID     string `json:"device_id"     binding:"required,max=128"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
