package handler

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/service"
	"shift-roster/backend/pkg/response"
)

// maxImportFileSize 导入文件大小上限
const maxImportFileSize = 5 << 20

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// CreateUser 创建用户
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.CreateUser(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.Created(c, user)
}

// GetUser 用户详情
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// ListUsers 用户列表
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// Activate 重新启用账号（清零设备切换计数）
// POST /api/v1/users/:id/activate
func (h *UserHandler) Activate(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.Activate(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// Deactivate 停用账号
// POST /api/v1/users/:id/deactivate
func (h *UserHandler) Deactivate(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.Deactivate(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// ImportUsers Excel 批量导入
// POST /api/v1/users/import (multipart, 字段 file)
func (h *UserHandler) ImportUsers(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "请上传 Excel 文件")
		return
	}
	if fh.Size > maxImportFileSize {
		response.BadRequest(c, 20104, "文件大小不能超过 5MB")
		return
	}
	if strings.ToLower(filepath.Ext(fh.Filename)) != ".xlsx" {
		response.BadRequest(c, 20104, "仅支持 .xlsx 文件")
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 20104, "无法读取上传文件")
		return
	}
	defer f.Close()

	rows, err := h.userSvc.ParseImportFile(f)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	result, err := h.userSvc.ImportUsers(c.Request.Context(), rows, callerID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, result)
}

// handleUserError 统一处理用户模块业务错误
func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, 20101, "用户名已存在")
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, 20102, "未知角色")
	case errors.Is(err, service.ErrUserSelfChange):
		response.Forbidden(c, 20103, "不能停用自己")
	case errors.Is(err, service.ErrImportNoData),
		errors.Is(err, service.ErrImportTooManyRows),
		errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 20104, err.Error())
	default:
		respondByCategory(c, err)
	}
}
