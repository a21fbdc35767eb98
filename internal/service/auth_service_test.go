package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shift-roster/backend/config"
	"shift-roster/backend/internal/audit"
	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/model"
	"shift-roster/backend/pkg/jwt"
)

// ── 测试辅助 ──

type memBlacklist struct {
	mu   sync.Mutex
	jtis map[string]bool
}

func (b *memBlacklist) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = true
	return nil
}

func (b *memBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jtis[jti], nil
}

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:         "test-secret-key-for-unit-testing",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   24 * time.Hour,
		MaxDeviceSwitches: 5,
		PinnedRoles:       []string{model.RoleOfficer, model.RoleChecker},
	}
}

func setupTestAuthService(env *testEnv) (AuthService, *jwt.Manager, *memBlacklist) {
	cfg := testAuthConfig()
	mgr := jwt.NewManager(cfg)
	bl := &memBlacklist{jtis: make(map[string]bool)}
	return NewAuthService(cfg, env.repo, env.civil, mgr, bl, env.recorder, env.logger), mgr, bl
}

func login(svc AuthService, username, device string) (*dto.TokenResponse, error) {
	return svc.Login(context.Background(), &dto.LoginRequest{
		Username: username, Password: testPassword, DeviceID: device,
	}, LoginMeta{UserAgent: "test"})
}

// ── Login ──

func TestLogin_Success(t *testing.T) {
	env := newTestEnv()
	env.addOfficers(t, "officer1")
	svc, mgr, _ := setupTestAuthService(env)

	resp, err := login(svc, "officer1", "device-A")
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" || resp.SessionID == "" {
		t.Fatalf("令牌或会话缺失: %+v", resp)
	}
	if resp.DeviceWarningCount != 0 {
		t.Errorf("首次登录不应产生警告，实际 %d", resp.DeviceWarningCount)
	}

	claims, err := mgr.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("解析 AccessToken 失败: %v", err)
	}
	if claims.SessionID != resp.SessionID || claims.Role != model.RoleOfficer {
		t.Errorf("令牌声明不符: %+v", claims)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv()
	env.addOfficers(t, "officer1")
	svc, _, _ := setupTestAuthService(env)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Username: "officer1", Password: "wrong", DeviceID: "device-A",
	}, LoginMeta{})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("密码错误期望 ErrInvalidCredentials，实际: %v", err)
	}

	if _, err := login(svc, "nobody", "device-A"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("用户不存在期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_InactiveRejectedBeforeCounting(t *testing.T) {
	env := newTestEnv()
	u := env.addOfficers(t, "officer1")[0]
	env.mocks.user.users[u.UserID].IsActive = false
	svc, _, _ := setupTestAuthService(env)

	if _, err := login(svc, "officer1", "device-B"); !errors.Is(err, ErrAccountDeactivated) {
		t.Errorf("期望 ErrAccountDeactivated，实际: %v", err)
	}
	if env.mocks.user.users[u.UserID].DifferentDeviceLoginCount != 0 {
		t.Error("停用账号登录不应累计设备切换")
	}
}

func TestLogin_SameDeviceDoesNotCount(t *testing.T) {
	env := newTestEnv()
	u := env.addOfficers(t, "officer1")[0]
	svc, _, _ := setupTestAuthService(env)

	for i := 0; i < 3; i++ {
		if _, err := login(svc, "officer1", "device-A"); err != nil {
			t.Fatalf("第 %d 次登录失败: %v", i+1, err)
		}
	}
	if n := env.mocks.user.users[u.UserID].DifferentDeviceLoginCount; n != 0 {
		t.Errorf("同一设备不计数，实际 %d", n)
	}
}

func TestLogin_DeviceSwitchSequence(t *testing.T) {
	env := newTestEnv()
	u := env.addOfficers(t, "officer1")[0]
	svc, _, _ := setupTestAuthService(env)

	steps := []struct {
		device  string
		warning int
	}{
		{"device-A", 0},
		{"device-B", 1},
		{"device-C", 2},
		{"device-D", 3},
		{"device-E", 4},
	}
	for _, st := range steps {
		resp, err := login(svc, "officer1", st.device)
		if err != nil {
			t.Fatalf("%s 登录失败: %v", st.device, err)
		}
		if resp.DeviceWarningCount != st.warning {
			t.Errorf("%s: 期望警告次数 %d，实际 %d", st.device, st.warning, resp.DeviceWarningCount)
		}
		if st.warning > 0 && resp.MaxDeviceSwitches != 5 {
			t.Errorf("%s: 警告中应携带上限 5，实际 %d", st.device, resp.MaxDeviceSwitches)
		}
		if n := env.mocks.session.countByUser(u.UserID); n != 1 {
			t.Errorf("%s: 受约束角色仅保留一个会话，实际 %d", st.device, n)
		}
	}

	// 第五次切换达到上限
	if _, err := login(svc, "officer1", "device-F"); !errors.Is(err, ErrAccountDeactivated) {
		t.Fatalf("device-F 期望 ErrAccountDeactivated，实际: %v", err)
	}
	stored := env.mocks.user.users[u.UserID]
	if stored.IsActive || stored.DifferentDeviceLoginCount != 5 {
		t.Errorf("期望账号停用且计数为 5，实际 active=%v count=%d", stored.IsActive, stored.DifferentDeviceLoginCount)
	}
	if n := env.mocks.session.countByUser(u.UserID); n != 0 {
		t.Errorf("停用后应清除全部会话，实际 %d", n)
	}

	// 原设备也无法再登录
	if _, err := login(svc, "officer1", "device-E"); !errors.Is(err, ErrAccountDeactivated) {
		t.Errorf("停用后期望 ErrAccountDeactivated，实际: %v", err)
	}

	found := false
	for _, a := range env.sink.actions() {
		if a == audit.ActionAccountLocked {
			found = true
		}
	}
	if !found {
		t.Error("期望记录账号停用审计")
	}
}

func TestLogin_UnpinnedRoleKeepsSessions(t *testing.T) {
	env := newTestEnv()
	admin := env.addUser(t, "admin1", model.RoleAdmin)
	svc, _, _ := setupTestAuthService(env)

	for _, d := range []string{"laptop", "desktop", "tablet"} {
		resp, err := login(svc, "admin1", d)
		if err != nil {
			t.Fatalf("%s 登录失败: %v", d, err)
		}
		if resp.DeviceWarningCount != 0 {
			t.Errorf("管理员不受设备绑定约束，实际警告 %d", resp.DeviceWarningCount)
		}
	}
	if n := env.mocks.session.countByUser(admin.UserID); n != 3 {
		t.Errorf("管理员可多设备并存，期望 3 个会话，实际 %d", n)
	}
}

// ── Refresh / Logout / Session ──

func TestRefresh_RotatesToken(t *testing.T) {
	env := newTestEnv()
	env.addOfficers(t, "officer1")
	svc, _, _ := setupTestAuthService(env)
	ctx := context.Background()

	first, _ := login(svc, "officer1", "device-A")

	second, err := svc.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh 失败: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Error("刷新不应更换会话")
	}

	if _, err := svc.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: first.RefreshToken}); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("已使用的 refresh token 期望 ErrSessionRevoked，实际: %v", err)
	}
	if _, err := svc.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: first.AccessToken}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token 不能用于刷新，实际: %v", err)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	env := newTestEnv()
	env.addOfficers(t, "officer1")
	svc, mgr, _ := setupTestAuthService(env)
	ctx := context.Background()

	resp, _ := login(svc, "officer1", "device-A")
	claims, _ := mgr.ParseToken(resp.AccessToken)

	if _, err := svc.ValidateSession(ctx, claims); err != nil {
		t.Fatalf("登出前会话应有效: %v", err)
	}
	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout 失败: %v", err)
	}
	if _, err := svc.ValidateSession(ctx, claims); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("登出后期望 ErrSessionRevoked，实际: %v", err)
	}
}

func TestValidateSession_DeviceSwitchRevokesOldSession(t *testing.T) {
	env := newTestEnv()
	env.addOfficers(t, "officer1")
	svc, mgr, _ := setupTestAuthService(env)

	old, _ := login(svc, "officer1", "device-A")
	oldClaims, _ := mgr.ParseToken(old.AccessToken)
	_, _ = login(svc, "officer1", "device-B")

	if _, err := svc.ValidateSession(context.Background(), oldClaims); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("切换设备后旧会话应失效，实际: %v", err)
	}
}

func TestValidateSession_RoleFromDatabase(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "admin1", model.RoleAdmin)
	svc, mgr, _ := setupTestAuthService(env)

	resp, _ := login(svc, "admin1", "laptop")
	claims, _ := mgr.ParseToken(resp.AccessToken)
	env.mocks.user.users[u.UserID].Role = model.RoleSuperAdmin

	info, err := svc.ValidateSession(context.Background(), claims)
	if err != nil {
		t.Fatalf("ValidateSession 失败: %v", err)
	}
	if info.Role != model.RoleSuperAdmin {
		t.Errorf("角色应以数据库为准，实际 %s", info.Role)
	}
}

func TestValidateSession_ExpiryFollowsInjectedClock(t *testing.T) {
	env := newTestEnv()
	env.addOfficers(t, "officer1")
	svc, mgr, _ := setupTestAuthService(env)

	resp, err := login(svc, "officer1", "device-A")
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}
	session := env.mocks.session.sessions[resp.SessionID]
	if session == nil {
		t.Fatal("会话未写入")
	}
	loginAt := env.civil.Now().UTC()
	if !session.CreatedAt.Equal(loginAt) || !session.LastSeenAt.Equal(loginAt) {
		t.Errorf("会话时间应取自注入时钟 %v，实际 created=%v last_seen=%v", loginAt, session.CreatedAt, session.LastSeenAt)
	}
	if want := loginAt.Add(testAuthConfig().RefreshTokenTTL); !session.ExpiresAt.Equal(want) {
		t.Errorf("期望过期时间 %v，实际 %v", want, session.ExpiresAt)
	}

	claims, _ := mgr.ParseToken(resp.AccessToken)

	// 同一会话在两天后的时钟下已过期
	env.civil = civilAt(2026, 3, 12, 10, 0)
	later, _, _ := setupTestAuthService(env)
	if _, err := later.ValidateSession(context.Background(), claims); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("会话过期后期望 ErrSessionRevoked，实际: %v", err)
	}
}

// ── BiometricLogin ──

func TestBiometricLogin(t *testing.T) {
	env := newTestEnv()
	u := env.addOfficers(t, "officer1")[0]
	svc, _, _ := setupTestAuthService(env)
	ctx := context.Background()

	first, _ := login(svc, "officer1", "device-A")

	_, err := svc.BiometricLogin(ctx, &dto.BiometricLoginRequest{RefreshToken: first.RefreshToken, DeviceID: "device-B"}, LoginMeta{})
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("设备不符期望 ErrInvalidToken，实际: %v", err)
	}

	resp, err := svc.BiometricLogin(ctx, &dto.BiometricLoginRequest{RefreshToken: first.RefreshToken, DeviceID: "device-A"}, LoginMeta{})
	if err != nil {
		t.Fatalf("BiometricLogin 失败: %v", err)
	}
	if resp.DeviceWarningCount != 0 || env.mocks.user.users[u.UserID].DifferentDeviceLoginCount != 0 {
		t.Error("同一设备的生物识别登录不应计数")
	}

	// 原 refresh token 已轮换
	_, err = svc.BiometricLogin(ctx, &dto.BiometricLoginRequest{RefreshToken: first.RefreshToken, DeviceID: "device-A"}, LoginMeta{})
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("重复使用 refresh token 期望 ErrInvalidToken，实际: %v", err)
	}
}

// ── Me ──

func TestMe_IncludesCapabilities(t *testing.T) {
	env := newTestEnv()
	u := env.addUser(t, "checker1", model.RoleChecker)
	svc, _, _ := setupTestAuthService(env)

	me, err := svc.Me(context.Background(), u.UserID)
	if err != nil {
		t.Fatalf("Me 失败: %v", err)
	}
	if len(me.Capabilities) == 0 {
		t.Error("期望返回能力列表")
	}
	for _, c := range me.Capabilities {
		if c == "choice:submit" {
			t.Error("检查员不应具备选班能力")
		}
	}

	if _, err := svc.Me(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
