package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shift-roster/backend/internal/access"
	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/service"
	"shift-roster/backend/pkg/response"
)

// VacationHandler 休假模块 HTTP 处理器
type VacationHandler struct {
	vacationSvc service.VacationService
}

// NewVacationHandler 创建 VacationHandler
func NewVacationHandler(vacationSvc service.VacationService) *VacationHandler {
	return &VacationHandler{vacationSvc: vacationSvc}
}

// Request 提交休假申请
// POST /api/v1/vacations
func (h *VacationHandler) Request(c *gin.Context) {
	var req dto.CreateVacationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	v, err := h.vacationSvc.Request(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleVacationError(c, err)
		return
	}

	response.Created(c, v)
}

// Review 审批
// POST /api/v1/vacations/:id/review
func (h *VacationHandler) Review(c *gin.Context) {
	var req dto.ReviewVacationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}
	reviewerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	v, err := h.vacationSvc.Review(c.Request.Context(), c.Param("id"), reviewerID, &req)
	if err != nil {
		h.handleVacationError(c, err)
		return
	}

	response.OK(c, v)
}

// Cancel 撤销自己待审批的申请
// DELETE /api/v1/vacations/:id
func (h *VacationHandler) Cancel(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.vacationSvc.Cancel(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleVacationError(c, err)
		return
	}

	response.OK(c, nil)
}

// List 休假列表；无审批能力时只能看到自己的申请
// GET /api/v1/vacations
func (h *VacationHandler) List(c *gin.Context) {
	var req dto.VacationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if !Capabilities(c).Has(access.ReviewVacation) {
		req.UserID = userID
	}

	list, total, err := h.vacationSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleVacationError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

func (h *VacationHandler) handleVacationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRange):
		response.BadRequest(c, 15002, "结束日期不能早于开始日期")
	case errors.Is(err, service.ErrVacationTooLong):
		response.BadRequest(c, 15003, "单次休假时长超出上限")
	case errors.Is(err, service.ErrVacationNotFound):
		response.NotFound(c, 15101, "休假申请不存在")
	case errors.Is(err, service.ErrVacationOverlap):
		response.Conflict(c, 15102, "与已有休假申请时间重叠")
	case errors.Is(err, service.ErrVacationNotPending):
		response.Conflict(c, 15103, "仅待审批的申请可操作")
	case errors.Is(err, service.ErrVacationNotOwner):
		response.Forbidden(c, 15104, "只能撤销自己的申请")
	case errors.Is(err, service.ErrVacationSelfReview):
		response.Forbidden(c, 15105, "不能审批自己的申请")
	default:
		respondByCategory(c, err)
	}
}
