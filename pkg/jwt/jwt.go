package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"shift-roster/backend/config"
)

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	issuer = "shift-roster"
)

// Claims 自定义 JWT 声明
// SessionID 与 user_sessions 表对应，会话被清除后 Token 随之失效
type Claims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	DeviceID  string `json:"device_id,omitempty"` // 仅 refresh token 使用
	TokenType string `json:"token_type"`          // "access" | "refresh"
	jwtv5.RegisteredClaims
}

// Manager JWT 管理器
type Manager struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:          []byte(cfg.JWTSecret),
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
	}
}

// AccessTTL Access Token 有效期
func (m *Manager) AccessTTL() time.Duration { return m.accessTokenTTL }

// RefreshTTL Refresh Token 有效期
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTokenTTL }

// GenerateAccessToken 生成 Access Token
func (m *Manager) GenerateAccessToken(userID, role, sessionID string) (string, error) {
	return m.sign(Claims{
		UserID:    userID,
		Role:      role,
		SessionID: sessionID,
		TokenType: TokenTypeAccess,
	}, m.accessTokenTTL)
}

// GenerateRefreshToken 生成 Refresh Token，绑定签发设备
func (m *Manager) GenerateRefreshToken(userID, role, sessionID, deviceID string) (string, error) {
	return m.sign(Claims{
		UserID:    userID,
		Role:      role,
		SessionID: sessionID,
		DeviceID:  deviceID,
		TokenType: TokenTypeRefresh,
	}, m.refreshTokenTTL)
}

func (m *Manager) sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwtv5.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   claims.UserID,
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		Issuer:    issuer,
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 解析并验证 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
