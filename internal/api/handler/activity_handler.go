package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/service"
	"shift-roster/backend/pkg/response"
)

// ActivityHandler 检查员业务活动 HTTP 处理器
type ActivityHandler struct {
	activitySvc service.ActivityService
}

// NewActivityHandler 创建 ActivityHandler
func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

// VerifyPayment 缴费核验
// POST /api/v1/activities/payment-verifications
func (h *ActivityHandler) VerifyPayment(c *gin.Context) {
	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 17001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.activitySvc.VerifyPayment(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.Created(c, result)
}

// VerifyEVisa 电子签证核验
// POST /api/v1/activities/evisa-verifications
func (h *ActivityHandler) VerifyEVisa(c *gin.Context) {
	var req dto.VerifyEVisaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 17001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.activitySvc.VerifyEVisa(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.Created(c, result)
}

// RecordPenalty 记录罚款
// POST /api/v1/activities/penalties
func (h *ActivityHandler) RecordPenalty(c *gin.Context) {
	var req dto.RecordPenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 17001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.activitySvc.RecordPenalty(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.Created(c, result)
}

// List 活动记录
// GET /api/v1/activities
func (h *ActivityHandler) List(c *gin.Context) {
	var req dto.ActivityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 17001, "参数校验失败")
		return
	}

	list, total, err := h.activitySvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

func (h *ActivityHandler) handleActivityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPenalty):
		response.BadRequest(c, 17101, "罚款参数不合法")
	case errors.Is(err, service.ErrOfficerNotFound):
		response.NotFound(c, 17102, "官员不存在")
	default:
		respondByCategory(c, err)
	}
}
