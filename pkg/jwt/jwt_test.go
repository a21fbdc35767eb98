package jwt

import (
	"errors"
	"testing"
	"time"

	"shift-roster/backend/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	})
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("user-1", "OFFICER", "sess-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("期望 UserID=user-1，实际=%s", claims.UserID)
	}
	if claims.Role != "OFFICER" {
		t.Errorf("期望 Role=OFFICER，实际=%s", claims.Role)
	}
	if claims.SessionID != "sess-1" {
		t.Errorf("期望 SessionID=sess-1，实际=%s", claims.SessionID)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("期望 TokenType=access，实际=%s", claims.TokenType)
	}
	if claims.Issuer != "shift-roster" {
		t.Errorf("期望 Issuer=shift-roster，实际=%s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI 不应为空")
	}
}

func TestGenerateRefreshToken_BindsDevice(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken("user-1", "CHECKER", "sess-1", "device-A")
	if err != nil {
		t.Fatalf("GenerateRefreshToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if claims.TokenType != TokenTypeRefresh {
		t.Errorf("期望 TokenType=refresh，实际=%s", claims.TokenType)
	}
	if claims.DeviceID != "device-A" {
		t.Errorf("期望 DeviceID=device-A，实际=%s", claims.DeviceID)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 29*24*time.Hour || ttl > 31*24*time.Hour {
		t.Errorf("RefreshToken TTL 期望约30天，实际=%v", ttl)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	_, err := m.ParseToken("invalid.token.string")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "different-secret-key",
		AccessTokenTTL: 15 * time.Minute,
	})

	token, _ := m1.GenerateAccessToken("user-1", "ADMIN", "sess-1")
	if _, err := m2.ParseToken(token); err == nil {
		t.Error("不同密钥签名的 token 不应通过验证")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret",
		AccessTokenTTL: 1 * time.Millisecond,
	})

	token, _ := m.GenerateAccessToken("user-1", "ADMIN", "sess-1")
	time.Sleep(1100 * time.Millisecond)

	_, err := m.ParseToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}
