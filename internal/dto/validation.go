package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"shift-roster/backend/internal/model"
	"shift-roster/backend/pkg/clock"
)

// RegisterValidators 向 gin 的 binding 引擎注册自定义校验标签：
//
//	isodate      YYYY-MM-DD
//	hhmm         24 小时制 HH:MM
//	shiftchoice  MORNING | AFTERNOON
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return clock.ValidDate(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return clock.ValidHHMM(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("shiftchoice", func(fl validator.FieldLevel) bool {
		return model.ShiftType(fl.Field().String()).IsChoosable()
	})
}
