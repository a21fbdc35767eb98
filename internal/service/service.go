package service

import (
	"go.uber.org/zap"

	"shift-roster/backend/config"
	"shift-roster/backend/internal/audit"
	"shift-roster/backend/internal/repository"
	"shift-roster/backend/pkg/clock"
	"shift-roster/backend/pkg/jwt"
)

// Deps Service 层依赖
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Civil     *clock.Civil
	Blacklist TokenBlacklist // 可为 nil
	Recorder  *audit.Recorder
	Verifier  Verifier
	Logger    *zap.Logger
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	User       UserService
	Setting    SettingService
	Rule       ShiftRuleService
	Choice     ChoiceService
	Generation GenerationService
	Pattern    PatternService
	Vacation   VacationService
	Activity   ActivityService
	Export     ExportService
	Calendar   CalendarService
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	verifier := d.Verifier
	if verifier == nil {
		verifier = NewHTTPVerifier(&d.Config.Verification)
	}
	hours := d.Config.Schedule.ShiftHours

	setting := NewSettingService(d.Repo, d.Civil, d.Config.Schedule.DefaultAutoTime, d.Recorder, d.Logger)
	return &Service{
		Auth:       NewAuthService(&d.Config.Auth, d.Repo, d.Civil, d.JWT, d.Blacklist, d.Recorder, d.Logger),
		User:       NewUserService(d.Repo, d.Recorder, d.Logger),
		Setting:    setting,
		Rule:       NewShiftRuleService(d.Repo, d.Recorder, d.Logger),
		Choice:     NewChoiceService(d.Repo, d.Civil, setting, d.Recorder, d.Logger),
		Generation: NewGenerationService(d.Repo, d.Civil, hours, d.Recorder, d.Logger),
		Pattern:    NewPatternService(d.Repo, d.Recorder, d.Logger),
		Vacation:   NewVacationService(d.Repo, d.Civil, d.Recorder, d.Logger),
		Activity:   NewActivityService(d.Repo, verifier, d.Logger),
		Export:     NewExportService(d.Repo, d.Logger),
		Calendar:   NewCalendarService(d.Repo, d.Civil, hours, d.Logger),
	}
}
