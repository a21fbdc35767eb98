package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"shift-roster/backend/internal/audit"
	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/repository"
	"shift-roster/backend/pkg/clock"
)

// ── 测试辅助 ──

const testPassword = "Passw0rd!"

// civilAt 以 UTC+3 民用时间构造时钟
func civilAt(year int, month time.Month, day, hour, minute int) *clock.Civil {
	loc := time.FixedZone("UTC+3", 3*3600)
	return clock.NewCivil(clock.Fixed{T: time.Date(year, month, day, hour, minute, 0, 0, loc)}, 3)
}

type testEnv struct {
	mocks    *mockRepos
	repo     *repository.Repository
	sink     *memSink
	recorder *audit.Recorder
	civil    *clock.Civil
	logger   *zap.Logger
}

// newTestEnv 默认民用时间 2026-03-10 10:00（周二），明天为周三
func newTestEnv() *testEnv {
	mocks := newMockRepos()
	sink := &memSink{}
	logger := zap.NewNop()
	return &testEnv{
		mocks:    mocks,
		repo:     mocks.repository(),
		sink:     sink,
		recorder: audit.NewRecorder(logger, sink),
		civil:    civilAt(2026, 3, 10, 10, 0),
		logger:   logger,
	}
}

func (e *testEnv) settings() SettingService {
	return NewSettingService(e.repo, e.civil, "19:00", e.recorder, e.logger)
}

func (e *testEnv) addUser(t *testing.T, username, role string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("密码哈希失败: %v", err)
	}
	u := &model.User{
		UserID:       "id-" + username,
		Username:     username,
		Name:         "姓名-" + username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := e.mocks.user.Create(context.Background(), u); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	return u
}

func (e *testEnv) addOfficers(t *testing.T, usernames ...string) []*model.User {
	t.Helper()
	out := make([]*model.User, 0, len(usernames))
	for _, name := range usernames {
		out = append(out, e.addUser(t, name, model.RoleOfficer))
	}
	return out
}

func intPtr(v int) *int { return &v }
