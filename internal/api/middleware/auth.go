package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shift-roster/backend/internal/access"
	"shift-roster/backend/internal/api/handler"
	"shift-roster/backend/internal/service"
	"shift-roster/backend/pkg/jwt"
	"shift-roster/backend/pkg/response"
)

// SessionValidator 会话校验，由 service.AuthService 实现
type SessionValidator interface {
	ValidateSession(ctx context.Context, claims *jwt.Claims) (*service.SessionInfo, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token，
// 再确认会话仍然存在、账号仍在岗，最后按数据库中的角色解析能力集合
func JWTAuth(jwtMgr *jwt.Manager, sessions SessionValidator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		info, err := sessions.ValidateSession(c.Request.Context(), claims)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrAccountDeactivated):
				response.Forbidden(c, 11004, "账号已停用，请联系管理员")
			case errors.Is(err, service.ErrSessionRevoked):
				response.Unauthorized(c, 11003, "会话已失效，请重新登录")
			default:
				logger.Error("会话校验失败", zap.Error(err))
				response.InternalError(c)
			}
			c.Abort()
			return
		}

		// 将用户信息注入上下文
		c.Set(handler.CtxUserID, info.UserID)
		c.Set(handler.CtxRole, info.Role)
		c.Set(handler.CtxSessionID, info.SessionID)
		c.Set(handler.CtxClaims, claims)
		c.Set(handler.CtxCapabilities, access.For(info.Role))

		c.Next()
	}
}

// RequireCapability 能力断言中间件
func RequireCapability(required access.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(handler.CtxCapabilities); !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		if !handler.Capabilities(c).Has(required) {
			response.Forbidden(c, 10003, "无权限访问")
			c.Abort()
			return
		}

		c.Next()
	}
}
