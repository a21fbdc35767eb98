package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/service"
	"shift-roster/backend/pkg/response"
)

// PatternHandler 周期性约束 HTTP 处理器
type PatternHandler struct {
	patternSvc service.PatternService
}

// NewPatternHandler 创建 PatternHandler
func NewPatternHandler(patternSvc service.PatternService) *PatternHandler {
	return &PatternHandler{patternSvc: patternSvc}
}

// SetPattern 设置（或覆盖）某官员某星期的约束
// PUT /api/v1/patterns
func (h *PatternHandler) SetPattern(c *gin.Context) {
	var req dto.SetPatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	p, err := h.patternSvc.Set(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.OK(c, p)
}

// RemovePattern 删除约束
// DELETE /api/v1/patterns
func (h *PatternHandler) RemovePattern(c *gin.Context) {
	var req dto.RemovePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.patternSvc.Remove(c.Request.Context(), &req, callerID); err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListByUser 官员全部约束
// GET /api/v1/patterns/:user_id
func (h *PatternHandler) ListByUser(c *gin.Context) {
	list, err := h.patternSvc.ListByUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.OK(c, list)
}

func (h *PatternHandler) handlePatternError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPattern):
		response.BadRequest(c, 14101, "约束参数不合法")
	case errors.Is(err, service.ErrPatternNotFound):
		response.NotFound(c, 14102, "约束不存在")
	case errors.Is(err, service.ErrOfficerNotFound):
		response.NotFound(c, 14103, "官员不存在或未在岗")
	default:
		respondByCategory(c, err)
	}
}
