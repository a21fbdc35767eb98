package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shift-roster/backend/config"
	"shift-roster/backend/internal/access"
	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/service"
	"shift-roster/backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSessions struct {
	info *service.SessionInfo
	err  error
}

func (s stubSessions) ValidateSession(_ context.Context, _ *jwt.Claims) (*service.SessionInfo, error) {
	return s.info, s.err
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "middleware-test-secret-0123456789",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})
}

func authRouter(mgr *jwt.Manager, sessions SessionValidator, required access.Capability) *gin.Engine {
	r := gin.New()
	r.GET("/protected", JWTAuth(mgr, sessions, zap.NewNop()), RequireCapability(required), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("role"))
	})
	return r
}

func doGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_RoleFromSessionNotToken(t *testing.T) {
	mgr := newTestJWT()
	// 令牌中仍是 OFFICER，数据库中已改为 ADMIN
	token, err := mgr.GenerateAccessToken("u1", model.RoleOfficer, "s1")
	if err != nil {
		t.Fatalf("签发 token 失败: %v", err)
	}
	sessions := stubSessions{info: &service.SessionInfo{UserID: "u1", Role: model.RoleAdmin, SessionID: "s1"}}

	w := doGet(authRouter(mgr, sessions, access.GenerateSchedule), token)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != model.RoleAdmin {
		t.Errorf("上下文角色应取自会话校验结果，实际 %s", w.Body.String())
	}
}

func TestJWTAuth_Failures(t *testing.T) {
	mgr := newTestJWT()
	access1, _ := mgr.GenerateAccessToken("u1", model.RoleOfficer, "s1")
	refresh, _ := mgr.GenerateRefreshToken("u1", model.RoleOfficer, "s1", "dev-1")
	ok := stubSessions{info: &service.SessionInfo{UserID: "u1", Role: model.RoleOfficer, SessionID: "s1"}}

	tests := []struct {
		name       string
		token      string
		sessions   SessionValidator
		required   access.Capability
		wantStatus int
	}{
		{"缺少认证头", "", ok, access.SubmitChoice, http.StatusUnauthorized},
		{"伪造 token", "not-a-jwt", ok, access.SubmitChoice, http.StatusUnauthorized},
		{"使用 refresh token", refresh, ok, access.SubmitChoice, http.StatusUnauthorized},
		{"会话已删除", access1, stubSessions{err: service.ErrSessionRevoked}, access.SubmitChoice, http.StatusUnauthorized},
		{"账号已停用", access1, stubSessions{err: service.ErrAccountDeactivated}, access.SubmitChoice, http.StatusForbidden},
		{"数据库错误", access1, stubSessions{err: errors.New("db down")}, access.SubmitChoice, http.StatusInternalServerError},
		{"能力不足", access1, ok, access.GenerateSchedule, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(authRouter(mgr, tt.sessions, tt.required), tt.token)
			if w.Code != tt.wantStatus {
				t.Errorf("期望 %d，实际 %d", tt.wantStatus, w.Code)
			}
		})
	}
}

type countingLimiter struct {
	n   int
	err error
}

func (l *countingLimiter) CheckRateLimit(_ context.Context, _ string, limit int, _ time.Duration) (bool, error) {
	l.n++
	return l.n <= limit, l.err
}

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{}
	r := gin.New()
	r.POST("/login", RateLimit(limiter, 2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("期望 [200 200 429]，实际 %v", codes)
	}

	// limiter 为 nil 时放行
	r2 := gin.New()
	r2.POST("/login", RateLimit(nil, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r2.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	if w.Code != http.StatusOK {
		t.Errorf("limiter 为 nil 时应放行，实际 %d", w.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("期望 413，实际 %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "abc-123" || w.Body.String() != "abc-123" {
		t.Errorf("应沿用请求头中的 ID，实际 %q", w.Header().Get("X-Request-ID"))
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", 100))
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("超长 ID 应替换为 UUID，实际 %q", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc 123;drop")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got == "abc 123;drop" || len(got) != 36 {
		t.Errorf("含非法字符的 ID 应替换为 UUID，实际 %q", got)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("预检请求期望 204，实际 %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("白名单来源应回写 Allow-Origin")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden || w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("非白名单预检期望 403 且无 Allow-Origin，实际 %d", w.Code)
	}
}
