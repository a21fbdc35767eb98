package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"shift-roster/backend/config"
	"shift-roster/backend/internal/access"
	"shift-roster/backend/internal/audit"
	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/repository"
	"shift-roster/backend/pkg/clock"
	"shift-roster/backend/pkg/jwt"
	pkgerrors "shift-roster/backend/pkg/errors"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials = fmt.Errorf("%w: 用户名或密码错误", pkgerrors.ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: 登录凭证无效或已过期", pkgerrors.ErrUnauthorized)
	ErrSessionRevoked     = fmt.Errorf("%w: 会话已失效，请重新登录", pkgerrors.ErrUnauthorized)
	ErrAccountDeactivated = fmt.Errorf("%w: 账号已停用，请联系管理员", pkgerrors.ErrForbidden)
	ErrUserNotFound       = fmt.Errorf("%w: 用户不存在", pkgerrors.ErrNotFound)
)

// TokenBlacklist Token 黑名单，由 pkg/redis.Client 实现
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// LoginMeta 登录请求的附加信息
type LoginMeta struct {
	UserAgent string
}

// SessionInfo 已校验会话的身份信息
type SessionInfo struct {
	UserID    string
	Role      string
	SessionID string
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest, meta LoginMeta) (*dto.TokenResponse, error)
	// BiometricLogin 设备本地生物识别通过后，以该设备持有的 refresh token 重新登录
	BiometricLogin(ctx context.Context, req *dto.BiometricLoginRequest, meta LoginMeta) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	Me(ctx context.Context, userID string) (*dto.UserDetailResponse, error)
	// ValidateSession 校验 access token 对应的会话仍然有效
	ValidateSession(ctx context.Context, claims *jwt.Claims) (*SessionInfo, error)
}

type authService struct {
	cfg       *config.AuthConfig
	repo      *repository.Repository
	civil     *clock.Civil
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	recorder  *audit.Recorder
	logger    *zap.Logger
	pinned    map[string]bool
}

// NewAuthService 创建 AuthService 实例；blacklist 可为 nil
func NewAuthService(
	cfg *config.AuthConfig,
	repo *repository.Repository,
	civil *clock.Civil,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	recorder *audit.Recorder,
	logger *zap.Logger,
) AuthService {
	pinned := make(map[string]bool, len(cfg.PinnedRoles))
	for _, r := range cfg.PinnedRoles {
		pinned[r] = true
	}
	return &authService{
		cfg:       cfg,
		repo:      repo,
		civil:     civil,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		recorder:  recorder,
		logger:    logger,
		pinned:    pinned,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, meta LoginMeta) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByUsername(ctx, req.Username)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 停用账号在设备计数之前拒绝
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	// 4. 设备绑定 + 建立会话
	return s.establish(ctx, user, req.DeviceID, meta)
}

// ────────────────────── BiometricLogin ──────────────────────

func (s *authService) BiometricLogin(ctx context.Context, req *dto.BiometricLoginRequest, meta LoginMeta) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	// refresh token 只能在签发它的设备上使用
	if claims.DeviceID != req.DeviceID {
		return nil, ErrInvalidToken
	}
	if s.isBlacklisted(ctx, claims.ID) {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	resp, err := s.establish(ctx, user, req.DeviceID, meta)
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, claims)
	return resp, nil
}

// ═══════════════════════════════════════════════════════════
// 设备绑定
// ═══════════════════════════════════════════════════════════
//
// 受约束角色（默认 OFFICER / CHECKER）：
//   - 没有会话，或已有会话来自同一设备：直接新建会话
//   - 来自新设备：切换计数 +1
//     达到上限 → 停用账号并清除全部会话，本次登录被拒绝
//     未达上限 → 清除旧会话后新建会话，返回累计切换次数作为警告

func (s *authService) establish(ctx context.Context, user *model.User, deviceID string, meta LoginMeta) (*dto.TokenResponse, error) {
	var (
		session     model.UserSession
		warning     int
		deactivated bool
	)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if s.pinned[user.Role] {
			sessions, err := tx.Session.ListByUser(ctx, user.UserID)
			if err != nil {
				return err
			}

			if !sameDevice(sessions, deviceID) {
				user.DifferentDeviceLoginCount++
				if user.DifferentDeviceLoginCount >= s.cfg.MaxDeviceSwitches {
					user.IsActive = false
					deactivated = true
				} else {
					warning = user.DifferentDeviceLoginCount
				}
				if err := tx.User.Update(ctx, user); err != nil {
					return err
				}
				if _, err := tx.Session.DeleteByUser(ctx, user.UserID); err != nil {
					return err
				}
				if deactivated {
					// 停用需要提交，登录本身在事务外拒绝
					return nil
				}
			}
		}

		now := s.civil.Now().UTC()
		session = model.UserSession{
			UserID:     user.UserID,
			DeviceID:   deviceID,
			UserAgent:  truncate(meta.UserAgent, 255),
			ExpiresAt:  now.Add(s.jwtMgr.RefreshTTL()),
			LastSeenAt: now,
			CreatedAt:  now,
		}
		return tx.Session.Create(ctx, &session)
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("建立登录会话失败", zap.String("user_id", user.UserID), zap.Error(err))
		return nil, err
	}

	if deactivated {
		s.logger.Warn("设备切换次数达到上限，账号已停用",
			zap.String("user_id", user.UserID),
			zap.Int("count", user.DifferentDeviceLoginCount),
		)
		s.recorder.Record(ctx, audit.Event{
			Action:     audit.ActionAccountLocked,
			ActorID:    user.UserID,
			TargetType: "user",
			TargetID:   user.UserID,
			Details: map[string]interface{}{
				"device_id": deviceID,
				"count":     user.DifferentDeviceLoginCount,
			},
		})
		return nil, ErrAccountDeactivated
	}

	if warning > 0 {
		s.recorder.Record(ctx, audit.Event{
			Action:     audit.ActionDeviceSwitch,
			ActorID:    user.UserID,
			TargetType: "user",
			TargetID:   user.UserID,
			Details:    map[string]interface{}{"device_id": deviceID, "count": warning},
		})
	}
	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionLogin,
		ActorID:    user.UserID,
		TargetType: "session",
		TargetID:   session.SessionID,
	})

	resp, err := s.issueTokens(user, &session)
	if err != nil {
		return nil, err
	}
	if warning > 0 {
		resp.DeviceWarningCount = warning
		resp.MaxDeviceSwitches = s.cfg.MaxDeviceSwitches
	}
	return resp, nil
}

func sameDevice(sessions []model.UserSession, deviceID string) bool {
	if len(sessions) == 0 {
		return true
	}
	for _, s := range sessions {
		if s.DeviceID == deviceID {
			return true
		}
	}
	return false
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	info, err := s.ValidateSession(ctx, claims)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User.GetByID(ctx, info.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	session, err := s.repo.Session.GetByID(ctx, claims.SessionID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionRevoked
		}
		s.logger.Error("查询会话失败", zap.Error(err))
		return nil, err
	}

	resp, err := s.issueTokens(user, session)
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, claims)
	return resp, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if err := s.repo.Session.Delete(ctx, claims.SessionID); err != nil {
		s.logger.Error("删除会话失败", zap.String("session_id", claims.SessionID), zap.Error(err))
		return err
	}
	s.revoke(ctx, claims)

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionLogout,
		ActorID:    claims.UserID,
		TargetType: "session",
		TargetID:   claims.SessionID,
	})
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	return toUserDetailResponse(user), nil
}

// ────────────────────── ValidateSession ──────────────────────

func (s *authService) ValidateSession(ctx context.Context, claims *jwt.Claims) (*SessionInfo, error) {
	if claims.SessionID == "" {
		return nil, ErrSessionRevoked
	}
	if s.isBlacklisted(ctx, claims.ID) {
		return nil, ErrSessionRevoked
	}

	session, err := s.repo.Session.GetByID(ctx, claims.SessionID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionRevoked
		}
		s.logger.Error("查询会话失败", zap.Error(err))
		return nil, err
	}
	if session.UserID != claims.UserID || s.civil.Now().After(session.ExpiresAt) {
		return nil, ErrSessionRevoked
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionRevoked
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	// 角色以数据库为准，令牌中的角色可能已过时
	return &SessionInfo{UserID: user.UserID, Role: user.Role, SessionID: session.SessionID}, nil
}

// ── 内部辅助方法 ──

func (s *authService) issueTokens(user *model.User, session *model.UserSession) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role, session.SessionID)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, session.SessionID, session.DeviceID)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTTL().Seconds()),
		SessionID:    session.SessionID,
		User:         *toUserResponse(user),
	}, nil
}

// revoke 将令牌加入黑名单直到其自然过期
func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("加入 Token 黑名单失败", zap.Error(err))
	}
}

func (s *authService) isBlacklisted(ctx context.Context, jti string) bool {
	if s.blacklist == nil || jti == "" {
		return false
	}
	hit, err := s.blacklist.IsBlacklisted(ctx, jti)
	if err != nil {
		// Redis 不可用时放行，会话表仍是权威判定
		s.logger.Warn("查询 Token 黑名单失败", zap.Error(err))
		return false
	}
	return hit
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:       u.UserID,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}

func toUserDetailResponse(u *model.User) *dto.UserDetailResponse {
	caps := access.For(u.Role).List()
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, string(c))
	}
	return &dto.UserDetailResponse{
		ID:                        u.UserID,
		Username:                  u.Username,
		Name:                      u.Name,
		Role:                      u.Role,
		IsActive:                  u.IsActive,
		DifferentDeviceLoginCount: u.DifferentDeviceLoginCount,
		Capabilities:              names,
		CreatedAt:                 formatTime(u.CreatedAt),
	}
}
