// Package clock 提供固定时区（默认 UTC+3，无夏令时）的民用时间视图。
// 业务判断一律经由 Civil 取当前时间，禁止直接调用 time.Now()。
package clock

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout ISO 日期格式
const DateLayout = "2006-01-02"

// DefaultOffsetHours 默认民用时区偏移
const DefaultOffsetHours = 3

var (
	ErrInvalidDate = errors.New("日期格式应为 YYYY-MM-DD")
	ErrInvalidTime = errors.New("时间格式应为 HH:MM")
)

// Clock 时间源
type Clock interface {
	Now() time.Time
}

// System 系统时间源
type System struct{}

// Now 返回当前系统时间
func (System) Now() time.Time { return time.Now() }

// Fixed 固定时间源，用于测试与命令行回放
type Fixed struct {
	T time.Time
}

// Now 返回固定时间
func (f Fixed) Now() time.Time { return f.T }

// Parts 民用时区下的时间分量
type Parts struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// MinuteOfDay 当日已过分钟数
func (p Parts) MinuteOfDay() int { return p.Hour*60 + p.Minute }

// Civil 固定偏移时区的时钟适配器
type Civil struct {
	src Clock
	loc *time.Location
}

// NewCivil 创建民用时钟；src 为 nil 时使用系统时间
func NewCivil(src Clock, offsetHours int) *Civil {
	if src == nil {
		src = System{}
	}
	name := fmt.Sprintf("UTC%+d", offsetHours)
	return &Civil{
		src: src,
		loc: time.FixedZone(name, offsetHours*3600),
	}
}

// Location 民用时区
func (c *Civil) Location() *time.Location { return c.loc }

// Now 民用时区下的当前时间
func (c *Civil) Now() time.Time { return c.src.Now().In(c.loc) }

// NowParts 民用时区下的当前时间分量
func (c *Civil) NowParts() Parts {
	t := c.Now()
	return Parts{
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// TodayISO 民用时区今天
func (c *Civil) TodayISO() string {
	return c.Now().Format(DateLayout)
}

// TomorrowISO 民用时区明天
func (c *Civil) TomorrowISO() string {
	t := c.Now()
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, c.loc).Format(DateLayout)
}

// ── 纯日期工具（与时区无关） ──

// ParseDate 严格解析 YYYY-MM-DD，返回该日 UTC 零点
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ValidDate 是否为合法 ISO 日期
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// Weekday 将日期按 UTC 零点解释后取星期（0=周日 … 6=周六）。
// 与民用时区无关：日历日期本身决定星期。
func Weekday(date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return int(t.Weekday()), nil
}

// AddDays 日期加减天数
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// SpanDays 闭区间 [from, to] 的天数，to 早于 from 时返回 0。
// 只做算术，不展开日期，调用方可先据此限制区间长度。
func SpanDays(from, to string) (int, error) {
	start, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	end, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	if end.Before(start) {
		return 0, nil
	}
	// time.Duration 只能表示约 292 年，按 Unix 秒相减
	return int((end.Unix()-start.Unix())/86400) + 1, nil
}

// DaysBetween 闭区间 [from, to] 内的全部日期
func DaysBetween(from, to string) ([]string, error) {
	start, err := ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(to)
	if err != nil {
		return nil, err
	}
	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days, nil
}

// ParseHHMM 解析 24 小时制 HH:MM
func ParseHHMM(s string) (hour, minute int, err error) {
	if len(s) != 5 {
		return 0, 0, ErrInvalidTime
	}
	t, perr := time.Parse("15:04", s)
	if perr != nil {
		return 0, 0, ErrInvalidTime
	}
	return t.Hour(), t.Minute(), nil
}

// ValidHHMM 是否为合法 HH:MM
func ValidHHMM(s string) bool {
	_, _, err := ParseHHMM(s)
	return err == nil
}
