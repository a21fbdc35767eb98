package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shift-roster/backend/config"
	"shift-roster/backend/internal/access"
	"shift-roster/backend/internal/api/handler"
	"shift-roster/backend/internal/api/middleware"
	"shift-roster/backend/pkg/jwt"
)

// maxBodyBytes 全局请求体上限；导入接口在 handler 内另有限制
const maxBodyBytes = 8 << 20

// Pinger 健康检查依赖，由 repository.Repository 实现
type Pinger interface {
	Ping(ctx context.Context) error
}

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时登录接口不限流
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	sessions middleware.SessionValidator,
	limiter middleware.RateLimiter,
	db Pinger,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.Warn("健康检查失败", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	loginLimit := middleware.RateLimit(limiter, cfg.Server.RateLimit.LoginLimit, cfg.Server.RateLimit.LoginWindow)
	need := middleware.RequireCapability

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", loginLimit, h.Auth.Login)
			auth.POST("/biometric", loginLimit, h.Auth.BiometricLogin)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, sessions, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 人员管理
			users := authorized.Group("/users", need(access.ManageUsers))
			{
				users.GET("", h.User.ListUsers)
				users.POST("", h.User.CreateUser)
				users.POST("/import", h.User.ImportUsers)
				users.GET("/:id", h.User.GetUser)
				users.POST("/:id/activate", h.User.Activate)
				users.POST("/:id/deactivate", h.User.Deactivate)
			}

			// 自动排班设置
			settings := authorized.Group("/settings")
			{
				settings.GET("/auto-schedule", need(access.ViewRoster), h.Setting.GetSetting)
				settings.PUT("/auto-schedule", need(access.ManageSettings), h.Setting.UpdateSetting)
			}

			// 配额规则与排班
			roster := authorized.Group("/roster")
			{
				roster.GET("/rules/:date", need(access.ViewRoster), h.Roster.GetRule)
				roster.PUT("/rules/:date", need(access.ManageRules), h.Roster.SetRule)
				roster.DELETE("/rules/:date", need(access.ManageRules), h.Roster.DeleteRule)

				roster.POST("/generate", need(access.GenerateSchedule), h.Roster.Generate)
				roster.GET("/preview/:date", need(access.GenerateSchedule), h.Roster.Preview)
				roster.GET("/logs", need(access.GenerateSchedule), h.Roster.ListLogs)

				roster.GET("/days/:date", need(access.ViewRoster), h.Roster.GetDay)
				roster.GET("/my", need(access.ViewOwnShifts), h.Roster.MyShifts)
			}

			// 班次志愿
			choices := authorized.Group("/choices")
			{
				choices.GET("/window/:date", h.Choice.Window)
				choices.PUT("", need(access.SubmitChoice), h.Choice.Submit)
				choices.DELETE("/:date", need(access.SubmitChoice), h.Choice.Withdraw)
				choices.GET("/me/:date", need(access.SubmitChoice), h.Choice.Mine)
				choices.GET("/date/:date", need(access.GenerateSchedule), h.Choice.ListByDate)
			}

			// 固定班型
			patterns := authorized.Group("/patterns", need(access.ManagePatterns))
			{
				patterns.PUT("", h.Pattern.SetPattern)
				patterns.DELETE("", h.Pattern.RemovePattern)
				patterns.GET("/:user_id", h.Pattern.ListByUser)
			}

			// 休假
			vacations := authorized.Group("/vacations")
			{
				vacations.GET("", h.Vacation.List) // 无审批能力时仅返回本人（Handler 层收窄）
				vacations.POST("", need(access.RequestVacation), h.Vacation.Request)
				vacations.POST("/:id/review", need(access.ReviewVacation), h.Vacation.Review)
				vacations.DELETE("/:id", need(access.RequestVacation), h.Vacation.Cancel)
			}

			// 窗口业务记录
			activities := authorized.Group("/activities")
			{
				activities.POST("/payment-verifications", need(access.VerifyDocuments), h.Activity.VerifyPayment)
				activities.POST("/evisa-verifications", need(access.VerifyDocuments), h.Activity.VerifyEVisa)
				activities.POST("/penalties", need(access.RecordPenalty), h.Activity.RecordPenalty)
				activities.GET("", need(access.ViewActivity), h.Activity.List)
			}

			// 导出
			export := authorized.Group("/export")
			{
				export.GET("/roster", need(access.ExportRoster), h.Export.ExportRoster)
				export.GET("/calendar.ics", need(access.ViewOwnShifts), h.Export.MyCalendar)
			}
		}
	}

	return r
}
