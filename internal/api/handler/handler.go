package handler

import "shift-roster/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Setting  *SettingHandler
	Roster   *RosterHandler
	Choice   *ChoiceHandler
	Pattern  *PatternHandler
	Vacation *VacationHandler
	Activity *ActivityHandler
	Export   *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		User:     NewUserHandler(svc.User),
		Setting:  NewSettingHandler(svc.Setting),
		Roster:   NewRosterHandler(svc.Rule, svc.Generation),
		Choice:   NewChoiceHandler(svc.Choice),
		Pattern:  NewPatternHandler(svc.Pattern),
		Vacation: NewVacationHandler(svc.Vacation),
		Activity: NewActivityHandler(svc.Activity),
		Export:   NewExportHandler(svc.Export, svc.Calendar),
	}
}
