package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/service"
	"shift-roster/backend/pkg/response"
)

// ChoiceHandler 班次偏好 HTTP 处理器
type ChoiceHandler struct {
	choiceSvc service.ChoiceService
}

// NewChoiceHandler 创建 ChoiceHandler
func NewChoiceHandler(choiceSvc service.ChoiceService) *ChoiceHandler {
	return &ChoiceHandler{choiceSvc: choiceSvc}
}

// Window 某日选择窗口状态
// GET /api/v1/choices/window/:date
func (h *ChoiceHandler) Window(c *gin.Context) {
	w, err := h.choiceSvc.Window(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.handleChoiceError(c, err)
		return
	}

	response.OK(c, w)
}

// Submit 提交或替换自己的班次偏好
// PUT /api/v1/choices
func (h *ChoiceHandler) Submit(c *gin.Context) {
	var req dto.SubmitChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	choice, err := h.choiceSvc.Submit(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleChoiceError(c, err)
		return
	}

	response.OK(c, choice)
}

// Withdraw 撤回自己的偏好
// DELETE /api/v1/choices/:date
func (h *ChoiceHandler) Withdraw(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.choiceSvc.Withdraw(c.Request.Context(), userID, c.Param("date")); err != nil {
		h.handleChoiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// Mine 自己在某日的偏好
// GET /api/v1/choices/me/:date
func (h *ChoiceHandler) Mine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	choice, err := h.choiceSvc.Mine(c.Request.Context(), userID, c.Param("date"))
	if err != nil {
		h.handleChoiceError(c, err)
		return
	}

	response.OK(c, choice)
}

// ListByDate 某日全部偏好（管理端）
// GET /api/v1/choices/date/:date
func (h *ChoiceHandler) ListByDate(c *gin.Context) {
	list, err := h.choiceSvc.ListByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.handleChoiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// handleChoiceError 统一处理偏好模块业务错误
func (h *ChoiceHandler) handleChoiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 12002, "日期格式应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrWindowClosed):
		response.Conflict(c, 12101, err.Error())
	case errors.Is(err, service.ErrOfficerBlocked):
		response.Conflict(c, 12102, "该日已有休息/休假/全天/锁定安排，不能自选班次")
	case errors.Is(err, service.ErrQuotaFull):
		response.Conflict(c, 12103, "该班次名额已满")
	case errors.Is(err, service.ErrNotOfficer):
		response.Forbidden(c, 12104, "仅在岗官员可提交班次偏好")
	case errors.Is(err, service.ErrChoiceNotFound):
		response.NotFound(c, 12105, "未提交过该日偏好")
	case errors.Is(err, service.ErrInvalidChoice):
		response.BadRequest(c, 12106, "只能选择 MORNING 或 AFTERNOON")
	default:
		respondByCategory(c, err)
	}
}
