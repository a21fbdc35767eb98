package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shift-roster/backend/internal/audit"
	"shift-roster/backend/internal/dto"
	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/repository"
	"shift-roster/backend/pkg/clock"
	pkgerrors "shift-roster/backend/pkg/errors"
)

// ── 自动排班设置模块业务错误 ──

var ErrInvalidAutoTime = fmt.Errorf("%w: 截止时间格式应为 HH:MM", pkgerrors.ErrInvalidInput)

// Setting 单次操作内使用的设置快照
type Setting struct {
	AutoTime24   string
	CutoffMinute int
	IsDefault    bool
	UpdatedAt    time.Time
}

// SettingService 自动排班设置业务接口
type SettingService interface {
	// Current 读取当前生效设置；未保存过或记录损坏时回退到配置默认值
	Current(ctx context.Context) (Setting, error)
	Get(ctx context.Context) (*dto.SettingResponse, error)
	Update(ctx context.Context, req *dto.UpdateSettingRequest, callerID string) (*dto.SettingResponse, error)
}

type settingService struct {
	repo        *repository.Repository
	civil       *clock.Civil
	defaultTime string
	recorder    *audit.Recorder
	logger      *zap.Logger
}

// NewSettingService 创建 SettingService 实例
func NewSettingService(repo *repository.Repository, civil *clock.Civil, defaultTime string, recorder *audit.Recorder, logger *zap.Logger) SettingService {
	return &settingService{repo: repo, civil: civil, defaultTime: defaultTime, recorder: recorder, logger: logger}
}

// ────────────────────── Current ──────────────────────

func (s *settingService) Current(ctx context.Context) (Setting, error) {
	row, err := s.repo.Setting.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.fallback(), nil
		}
		s.logger.Error("查询自动排班设置失败", zap.Error(err))
		return Setting{}, err
	}

	h, m, err := clock.ParseHHMM(row.AutoTime24)
	if err != nil {
		s.logger.Warn("自动排班设置格式异常，使用默认值",
			zap.String("auto_time24", row.AutoTime24),
			zap.String("default", s.defaultTime),
		)
		return s.fallback(), nil
	}

	return Setting{
		AutoTime24:   row.AutoTime24,
		CutoffMinute: h*60 + m,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func (s *settingService) fallback() Setting {
	h, m, _ := clock.ParseHHMM(s.defaultTime)
	return Setting{AutoTime24: s.defaultTime, CutoffMinute: h*60 + m, IsDefault: true}
}

// ────────────────────── Get ──────────────────────

func (s *settingService) Get(ctx context.Context) (*dto.SettingResponse, error) {
	cur, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return toSettingResponse(cur), nil
}

// ────────────────────── Update ──────────────────────

func (s *settingService) Update(ctx context.Context, req *dto.UpdateSettingRequest, callerID string) (*dto.SettingResponse, error) {
	if !clock.ValidHHMM(req.AutoTime24) {
		return nil, ErrInvalidAutoTime
	}

	row := &model.AutoScheduleSetting{AutoTime24: req.AutoTime24}
	row.UpdatedBy = &callerID
	row.UpdatedAt = s.civil.Now().UTC()
	if err := s.repo.Setting.Save(ctx, row); err != nil {
		s.logger.Error("保存自动排班设置失败", zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionSettingUpdate,
		ActorID:    callerID,
		TargetType: "setting",
		Details:    map[string]interface{}{"auto_time24": req.AutoTime24},
	})

	cur, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return toSettingResponse(cur), nil
}

func toSettingResponse(cur Setting) *dto.SettingResponse {
	resp := &dto.SettingResponse{AutoTime24: cur.AutoTime24, IsDefault: cur.IsDefault}
	if !cur.UpdatedAt.IsZero() {
		resp.UpdatedAt = cur.UpdatedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}
