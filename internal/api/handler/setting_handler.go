package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/service"
	"shift-roster/backend/pkg/response"
)

// SettingHandler 自动排班设置 HTTP 处理器
type SettingHandler struct {
	settingSvc service.SettingService
}

// NewSettingHandler 创建 SettingHandler
func NewSettingHandler(settingSvc service.SettingService) *SettingHandler {
	return &SettingHandler{settingSvc: settingSvc}
}

// GetSetting 当前截止时间
// GET /api/v1/settings/auto-schedule
func (h *SettingHandler) GetSetting(c *gin.Context) {
	setting, err := h.settingSvc.Get(c.Request.Context())
	if err != nil {
		respondByCategory(c, err)
		return
	}

	response.OK(c, setting)
}

// UpdateSetting 修改截止时间
// PUT /api/v1/settings/auto-schedule
func (h *SettingHandler) UpdateSetting(c *gin.Context) {
	var req dto.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 18001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	setting, err := h.settingSvc.Update(c.Request.Context(), &req, callerID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAutoTime) {
			response.BadRequest(c, 18101, "截止时间格式应为 HH:MM")
			return
		}
		respondByCategory(c, err)
		return
	}

	response.OK(c, setting)
}
