package roster

import (
	"errors"

	"shift-roster/backend/internal/model"
)

var ErrNegativeLimit = errors.New("配额不能为负数")

// Rule 某日早/晚班配额
type Rule struct {
	Date           model.Date
	MorningLimit   int
	AfternoonLimit int
	IsManual       bool
	Persisted      bool // 是否已存在于 shift_rules
}

// DeriveLimits 按 3:5 早班加权拆分可用人数：早班 ceil(3n/5)，晚班取余
func DeriveLimits(available int) (morning, afternoon int) {
	if available <= 0 {
		return 0, 0
	}
	morning = (available*3 + 4) / 5
	afternoon = available - morning
	if afternoon < 0 {
		afternoon = 0
	}
	return morning, afternoon
}

// DeriveRule 由可用人数推导配额（未持久化）
func DeriveRule(date model.Date, available int) Rule {
	m, a := DeriveLimits(available)
	return Rule{Date: date, MorningLimit: m, AfternoonLimit: a}
}

// RuleFromModel 由已存储的规则构造
func RuleFromModel(r *model.ShiftRule) Rule {
	return Rule{
		Date:           r.Date,
		MorningLimit:   r.MorningLimit,
		AfternoonLimit: r.AfternoonLimit,
		IsManual:       r.IsManual,
		Persisted:      true,
	}
}

// ValidateLimits 校验配额
func ValidateLimits(morning, afternoon int) error {
	if morning < 0 || afternoon < 0 {
		return ErrNegativeLimit
	}
	return nil
}

// Limit 指定班次的配额；非早/晚班返回 0
func (r Rule) Limit(kind model.ShiftType) int {
	switch kind {
	case model.ShiftMorning:
		return r.MorningLimit
	case model.ShiftAfternoon:
		return r.AfternoonLimit
	}
	return 0
}

// ToModel 转换为持久化模型
func (r Rule) ToModel() *model.ShiftRule {
	return &model.ShiftRule{
		Date:           r.Date,
		MorningLimit:   r.MorningLimit,
		AfternoonLimit: r.AfternoonLimit,
		IsManual:       r.IsManual,
	}
}
