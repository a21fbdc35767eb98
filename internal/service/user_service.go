package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"shift-roster/backend/internal/audit"
	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/repository"
	pkgerrors "shift-roster/backend/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrUsernameExists = fmt.Errorf("%w: 用户名已存在", pkgerrors.ErrConflict)
	ErrInvalidRole    = fmt.Errorf("%w: 未知角色", pkgerrors.ErrInvalidInput)
	ErrUserSelfChange = fmt.Errorf("%w: 不能停用自己", pkgerrors.ErrForbidden)
)

// UserService 用户业务接口
type UserService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserDetailResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserDetailResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	// Activate 重新启用账号并清零设备切换计数
	Activate(ctx context.Context, id string, callerID string) (*dto.UserDetailResponse, error)
	// Deactivate 停用账号并清除全部会话
	Deactivate(ctx context.Context, id string, callerID string) (*dto.UserDetailResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error)
}

// ImportUserRow Excel 导入解析后的单行数据
type ImportUserRow struct {
	Row      int
	Username string
	Name     string
	Role     string
}

type userService struct {
	repo     *repository.Repository
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, recorder *audit.Recorder, logger *zap.Logger) UserService {
	return &userService{repo: repo, recorder: recorder, logger: logger}
}

// ────────────────────── CreateUser ──────────────────────

func (s *userService) CreateUser(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserDetailResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}

	// 检查用户名唯一性
	if _, err := s.repo.User.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameExists
	} else if !isNotFound(err) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	user.CreatedBy = strPtr(callerID)

	if err := s.repo.User.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, ErrUsernameExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionUserCreate,
		ActorID:    callerID,
		TargetType: "user",
		TargetID:   user.UserID,
		Details:    map[string]interface{}{"username": user.Username, "role": user.Role},
	})

	return toUserDetailResponse(user), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toUserDetailResponse(user), nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filter := repository.UserFilter{
		Role:     req.Role,
		IsActive: req.IsActive,
		Keyword:  req.Keyword,
	}

	users, total, err := s.repo.User.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Activate ──────────────────────

func (s *userService) Activate(ctx context.Context, id string, callerID string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	user.IsActive = true
	user.DifferentDeviceLoginCount = 0
	user.UpdatedBy = strPtr(callerID)
	if err := s.repo.User.Update(ctx, user); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("启用用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionUserActivate,
		ActorID:    callerID,
		TargetType: "user",
		TargetID:   id,
	})
	return toUserDetailResponse(user), nil
}

// ────────────────────── Deactivate ──────────────────────

func (s *userService) Deactivate(ctx context.Context, id string, callerID string) (*dto.UserDetailResponse, error) {
	if id == callerID {
		return nil, ErrUserSelfChange
	}

	var user *model.User
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		user, err = tx.User.GetByID(ctx, id)
		if err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}

		user.IsActive = false
		user.UpdatedBy = strPtr(callerID)
		if err := tx.User.Update(ctx, user); err != nil {
			return err
		}
		_, err = tx.Session.DeleteByUser(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("停用用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionUserDeactivate,
		ActorID:    callerID,
		TargetType: "user",
		TargetID:   id,
	})
	return toUserDetailResponse(user), nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = fmt.Errorf("%w: Excel文件无数据行（第一行为表头）", pkgerrors.ErrInvalidInput)
	ErrImportTooManyRows = fmt.Errorf("%w: 数据行数超过上限 %d 行", pkgerrors.ErrInvalidInput, maxImportRows)
	ErrImportBadHeader   = fmt.Errorf("%w: Excel表头缺少必要列（用户名/姓名）", pkgerrors.ErrInvalidInput)
)

// ParseImportFile 解析导入 Excel 文件，返回解析后的行数据
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: 无法解析Excel文件: %v", pkgerrors.ErrInvalidInput, err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: 读取工作表失败: %v", pkgerrors.ErrInvalidInput, err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序）
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["username"] < 0 || colIndex["name"] < 0 {
		return nil, ErrImportBadHeader
	}

	cell := func(row []string, key string) string {
		idx := colIndex[key]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		item := ImportUserRow{
			Row:      i + 1,
			Username: cell(excelRows[i], "username"),
			Name:     cell(excelRows[i], "name"),
			Role:     strings.ToUpper(cell(excelRows[i], "role")),
		}
		// 跳过全空行
		if item.Username == "" && item.Name == "" && item.Role == "" {
			continue
		}
		if item.Role == "" {
			item.Role = model.RoleOfficer
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{"username": -1, "name": -1, "role": -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "用户名", "username":
			idx["username"] = i
		case "姓名", "name":
			idx["name"] = i
		case "角色", "role":
			idx["role"] = i
		}
	}
	return idx
}

// ────────────────────── ImportUsers ──────────────────────

func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}

	// 第一阶段：数据预校验（不接触数据库写操作）
	type validatedRow struct {
		row      ImportUserRow
		password string
		hash     []byte
	}
	var validRows []validatedRow
	seen := make(map[string]bool, len(rows))

	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	for _, row := range rows {
		if row.Username == "" || row.Name == "" {
			fail(row.Row, "必填字段为空")
			continue
		}
		if !model.ValidRole(row.Role) {
			fail(row.Row, fmt.Sprintf("未知角色: %s", row.Role))
			continue
		}
		if seen[row.Username] {
			fail(row.Row, fmt.Sprintf("文件内用户名重复: %s", row.Username))
			continue
		}
		if _, err := s.repo.User.GetByUsername(ctx, row.Username); err == nil {
			fail(row.Row, fmt.Sprintf("用户名已存在: %s", row.Username))
			continue
		} else if !isNotFound(err) {
			s.logger.Error("查询用户失败", zap.Error(err))
			return nil, err
		}

		pwd, err := generateTempPassword(10)
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
		if err != nil {
			fail(row.Row, "密码哈希失败")
			continue
		}

		seen[row.Username] = true
		validRows = append(validRows, validatedRow{row: row, password: pwd, hash: hash})
	}

	if len(validRows) == 0 {
		return resp, nil
	}

	// 第二阶段：在事务中批量创建所有通过校验的用户，任一失败全部回滚
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, vr := range validRows {
			user := &model.User{
				Username:     vr.row.Username,
				Name:         vr.row.Name,
				PasswordHash: string(vr.hash),
				Role:         vr.row.Role,
				IsActive:     true,
			}
			user.CreatedBy = strPtr(callerID)
			if err := tx.User.Create(ctx, user); err != nil {
				return fmt.Errorf("第 %d 行写入数据库失败，已回滚全部导入: %w", vr.row.Row, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("导入用户写入失败，事务回滚", zap.Error(err))
		return nil, err
	}

	for _, vr := range validRows {
		resp.Success++
		resp.Created = append(resp.Created, dto.ImportedUser{
			Row:          vr.row.Row,
			Username:     vr.row.Username,
			TempPassword: vr.password,
		})
	}
	return resp, nil
}

// generateTempPassword 生成指定长度的临时密码（保证包含字母和数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 8 {
		length = 8
	}

	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	result := make([]byte, length)
	var err error
	if result[0], err = pick(letters); err != nil {
		return "", err
	}
	if result[1], err = pick(digits); err != nil {
		return "", err
	}
	for i := 2; i < length; i++ {
		if result[i], err = pick(all); err != nil {
			return "", err
		}
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}
	return string(result), nil
}
