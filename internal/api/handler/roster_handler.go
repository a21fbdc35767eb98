package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/service"
	"shift-roster/backend/pkg/response"
)

// RosterHandler 日配额与排班生成 HTTP 处理器
type RosterHandler struct {
	ruleSvc service.ShiftRuleService
	genSvc  service.GenerationService
}

// NewRosterHandler 创建 RosterHandler
func NewRosterHandler(ruleSvc service.ShiftRuleService, genSvc service.GenerationService) *RosterHandler {
	return &RosterHandler{ruleSvc: ruleSvc, genSvc: genSvc}
}

// ────────────────────── 日配额 ──────────────────────

// GetRule 某日配额（手动值优先，否则为推导值）
// GET /api/v1/roster/rules/:date
func (h *RosterHandler) GetRule(c *gin.Context) {
	rule, err := h.ruleSvc.Get(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, rule)
}

// SetRule 手动设置某日配额
// PUT /api/v1/roster/rules/:date
func (h *RosterHandler) SetRule(c *gin.Context) {
	var req dto.SetRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rule, err := h.ruleSvc.Set(c.Request.Context(), c.Param("date"), &req, callerID)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, rule)
}

// DeleteRule 删除手动配额
// DELETE /api/v1/roster/rules/:date
func (h *RosterHandler) DeleteRule(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.ruleSvc.Delete(c.Request.Context(), c.Param("date"), callerID); err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── 生成 ──────────────────────

// Generate 手动生成某日排班，date 缺省为明天
// POST /api/v1/roster/generate
func (h *RosterHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 13001, "参数校验失败")
			return
		}
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.genSvc.Generate(c.Request.Context(), req.Date, callerID, false)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.Created(c, result)
}

// Preview 试算某日排班，不写库
// GET /api/v1/roster/preview/:date
func (h *RosterHandler) Preview(c *gin.Context) {
	result, err := h.genSvc.Preview(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, result)
}

// GetDay 某日已生成排班
// GET /api/v1/roster/days/:date
func (h *RosterHandler) GetDay(c *gin.Context) {
	result, err := h.genSvc.Roster(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, result)
}

// MyShifts 当前官员区间内的排班
// GET /api/v1/roster/my?from=&to=
func (h *RosterHandler) MyShifts(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	items, err := h.genSvc.MyShifts(c.Request.Context(), userID, req.From, req.To)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// ListLogs 生成记录
// GET /api/v1/roster/logs
func (h *RosterHandler) ListLogs(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	logs, total, err := h.genSvc.Logs(c.Request.Context(), &req)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OKPage(c, logs, total, req.GetPage(), req.GetPageSize())
}

// handleRosterError 统一处理排班模块业务错误
func (h *RosterHandler) handleRosterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 13002, "日期格式应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrAlreadyGenerated):
		response.Conflict(c, 13101, "该日期排班已生成")
	case errors.Is(err, service.ErrRuleNotFound):
		response.NotFound(c, 13102, "该日期未设置手动配额")
	case errors.Is(err, service.ErrInvalidRule):
		response.BadRequest(c, 13103, "配额不能为负数")
	case errors.Is(err, service.ErrNoEligibleOfficers):
		response.Conflict(c, 13104, "没有可参与排班的在岗官员")
	case errors.Is(err, service.ErrInvalidRange):
		response.BadRequest(c, 13105, "结束日期不能早于开始日期")
	case errors.Is(err, service.ErrRangeTooLarge):
		response.BadRequest(c, 13106, "查询区间过大")
	default:
		respondByCategory(c, err)
	}
}
