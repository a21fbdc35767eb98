package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Credentials": "true",
	"Access-Control-Allow-Headers":     "Content-Type, Authorization, X-Request-ID",
	"Access-Control-Allow-Methods":     "GET, POST, PUT, DELETE, OPTIONS",
	"Access-Control-Expose-Headers":    "Content-Disposition, X-Request-ID",
	"Access-Control-Max-Age":           "86400",
}

// CORS 按白名单回写跨域头。
// 导出接口的文件名放在 Content-Disposition 中，需暴露给前端读取。
// 非白名单来源的预检请求返回 403。
func CORS(allowOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowOrigins))
	for _, o := range allowOrigins {
		allowed[strings.TrimSuffix(strings.TrimSpace(o), "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		_, ok := allowed[origin]
		if ok {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			for k, v := range corsHeaders {
				c.Header(k, v)
			}
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		if origin != "" && !ok {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.AbortWithStatus(http.StatusNoContent)
	}
}
