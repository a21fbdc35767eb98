package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/service"
	"shift-roster/backend/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc   service.ExportService
	calendarSvc service.CalendarService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, calendarSvc service.CalendarService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, calendarSvc: calendarSvc}
}

// ExportRoster 导出区间排班表
// GET /api/v1/export/roster?from=&to=
func (h *ExportHandler) ExportRoster(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "from/to 不能为空且格式应为 YYYY-MM-DD")
		return
	}

	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context(), req.From, req.To)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, filename, xlsxContentType, buf.Bytes())
}

// MyCalendar 当前用户的排班日历订阅
// GET /api/v1/export/calendar.ics?from=&to=
func (h *ExportHandler) MyCalendar(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "from/to 不能为空且格式应为 YYYY-MM-DD")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	body, err := h.calendarSvc.OfficerCalendar(c.Request.Context(), userID, req.From, req.To)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	filename := fmt.Sprintf("shifts_%s_%s.ics", req.From, req.To)
	response.Attachment(c, filename, icsContentType, []byte(body))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoShifts):
		response.NotFound(c, 16101, "所选区间内暂无排班")
	case errors.Is(err, service.ErrInvalidRange):
		response.BadRequest(c, 16102, "结束日期不能早于开始日期")
	case errors.Is(err, service.ErrRangeTooLarge):
		response.BadRequest(c, 16103, "查询区间过大")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		respondByCategory(c, err)
	}
}
