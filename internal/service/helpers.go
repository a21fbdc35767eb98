package service

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"shift-roster/backend/pkg/clock"
)

const timeLayout = "2006-01-02T15:04:05Z"

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func validDate(s string) bool {
	return clock.ValidDate(s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// shiftHoursKey 班次时段配置键（viper 会将 map 键转为小写）
func shiftHoursKey(kind string) string {
	return strings.ToLower(kind)
}
