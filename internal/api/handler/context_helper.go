package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shift-roster/backend/internal/access"
	pkgerrors "shift-roster/backend/pkg/errors"
	"shift-roster/backend/pkg/jwt"
	"shift-roster/backend/pkg/response"
)

// 上下文键，由 JWTAuth 中间件写入
const (
	CtxUserID       = "user_id"
	CtxRole         = "role"
	CtxSessionID    = "session_id"
	CtxClaims       = "claims"
	CtxCapabilities = "capabilities"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetClaims 提取当前 access token 的声明
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(CtxClaims)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

// Capabilities 当前请求的能力集合；未认证时为空集合
func Capabilities(c *gin.Context) access.Set {
	if v, ok := c.Get(CtxCapabilities); ok {
		if s, ok := v.(access.Set); ok {
			return s
		}
	}
	return access.Set{}
}

// respondByCategory 模块未专门映射的错误按通用类别兜底
func respondByCategory(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10008, err.Error())
	case errors.Is(err, pkgerrors.ErrInvalidInput):
		response.BadRequest(c, 10001, err.Error())
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		response.Unauthorized(c, 10002, err.Error())
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, 10003, err.Error())
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, 10006, err.Error())
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, 10007, err.Error())
	default:
		response.InternalError(c)
	}
}
