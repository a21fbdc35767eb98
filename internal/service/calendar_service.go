package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/repository"
	"shift-roster/backend/pkg/clock"
)

const calendarProductID = "-//shift-roster//roster calendar//ZH"

// CalendarService 个人排班日历订阅
type CalendarService interface {
	// OfficerCalendar 生成官员在区间内的 .ics 日历
	OfficerCalendar(ctx context.Context, userID, from, to string) (string, error)
}

type calendarService struct {
	repo       *repository.Repository
	civil      *clock.Civil
	shiftHours map[string]string
	logger     *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, civil *clock.Civil, shiftHours map[string]string, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, civil: civil, shiftHours: shiftHours, logger: logger}
}

func (s *calendarService) OfficerCalendar(ctx context.Context, userID, from, to string) (string, error) {
	fromDate, toDate, err := parseRange(from, to)
	if err != nil {
		return "", err
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return "", ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return "", err
	}

	shifts, err := s.repo.Shift.ListByUserRange(ctx, userID, fromDate, toDate)
	if err != nil {
		s.logger.Error("查询个人排班失败", zap.String("user_id", userID), zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(fmt.Sprintf("%s 的排班", user.Name))

	stamp := s.civil.Now().UTC()
	for _, sh := range shifts {
		if sh.ShiftType == model.ShiftDayOff {
			continue
		}
		day, err := clock.ParseDate(sh.Date.String())
		if err != nil {
			continue
		}

		ev := cal.AddEvent(fmt.Sprintf("%s-%s@shift-roster", sh.UserID, sh.Date))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(shiftLabels[sh.ShiftType])

		start, end, ok := s.span(day, sh.ShiftType)
		if !ok {
			ev.SetAllDayStartAt(day)
			ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
			continue
		}
		ev.SetStartAt(start)
		ev.SetEndAt(end)
	}

	return cal.Serialize(), nil
}

// span 按配置的班次时段计算起止时间；休假或未配置时段返回 false
func (s *calendarService) span(day time.Time, kind model.ShiftType) (time.Time, time.Time, bool) {
	if kind == model.ShiftVacation {
		return time.Time{}, time.Time{}, false
	}
	hours, ok := s.shiftHours[shiftHoursKey(string(kind))]
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	parts := strings.Split(hours, "-")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, false
	}
	sh, sm, err := clock.ParseHHMM(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	eh, em, err := clock.ParseHHMM(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	loc := s.civil.Location()
	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc)
	return start, end, true
}
