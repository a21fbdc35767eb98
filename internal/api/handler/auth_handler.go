package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/service"
	"shift-roster/backend/pkg/response"
)

const refreshCookieName = "refresh_token"

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login 账号密码登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req, loginMeta(c))
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result)
	response.OK(c, result)
}

// BiometricLogin 生物识别登录
// POST /api/v1/auth/biometric
func (h *AuthHandler) BiometricLogin(c *gin.Context) {
	var req dto.BiometricLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.BiometricLogin(c.Request.Context(), &req, loginMeta(c))
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result)
	response.OK(c, result)
}

// RefreshToken 刷新 Token；请求体缺省时读取 refresh_token Cookie
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		if cookie, err := c.Cookie(refreshCookieName); err == nil {
			req.RefreshToken = cookie
		}
	}
	if req.RefreshToken == "" {
		response.BadRequest(c, 10001, "缺少 refresh_token")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result)
	response.OK(c, result)
}

// Logout 登出：删除会话并拉黑当前 access token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), claims); err != nil {
		h.handleAuthError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, "/api/v1/auth", "", false, true)
	response.OK(c, nil)
}

// GetCurrentUser 当前用户信息（含能力列表）
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, result *dto.TokenResponse) {
	if result == nil || result.RefreshToken == "" {
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, result.RefreshToken, 0, "/api/v1/auth", "", false, true)
}

func loginMeta(c *gin.Context) service.LoginMeta {
	return service.LoginMeta{UserAgent: c.Request.UserAgent()}
}

// handleAuthError 统一处理认证模块业务错误
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, "用户名或密码错误")
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, 11002, "登录凭证无效或已过期")
	case errors.Is(err, service.ErrSessionRevoked):
		response.Unauthorized(c, 11003, "会话已失效，请重新登录")
	case errors.Is(err, service.ErrAccountDeactivated):
		response.Forbidden(c, 11004, "账号已停用，请联系管理员")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	default:
		respondByCategory(c, err)
	}
}
