// Package audit 审计事件记录。写入失败只记录日志，不影响业务调用方。
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/repository"
)

// 审计动作
const (
	ActionScheduleGenerate = "schedule.generate"
	ActionRuleSet          = "rule.set"
	ActionRuleDelete       = "rule.delete"
	ActionChoiceSubmit     = "choice.submit"
	ActionChoiceWithdraw   = "choice.withdraw"
	ActionLogin            = "auth.login"
	ActionLogout           = "auth.logout"
	ActionDeviceSwitch     = "auth.device_switch"
	ActionAccountLocked    = "auth.account_deactivated"
	ActionUserCreate       = "user.create"
	ActionUserActivate     = "user.activate"
	ActionUserDeactivate   = "user.deactivate"
	ActionPatternSet       = "pattern.set"
	ActionPatternRemove    = "pattern.remove"
	ActionVacationReview   = "vacation.review"
	ActionSettingUpdate    = "setting.update"
)

// Event 一条审计事件
type Event struct {
	Action     string                 `json:"action"`
	ActorID    string                 `json:"actor_id,omitempty"` // 系统任务为空
	TargetType string                 `json:"target_type,omitempty"`
	TargetID   string                 `json:"target_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Sink 审计事件落地目标
type Sink interface {
	Write(ctx context.Context, e Event) error
}

// Recorder 将事件分发到所有 Sink
// nil Recorder 可安全调用
type Recorder struct {
	sinks   []Sink
	timeout time.Duration
	logger  *zap.Logger
}

// NewRecorder 创建 Recorder
func NewRecorder(logger *zap.Logger, sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks, timeout: 3 * time.Second, logger: logger}
}

// Record 记录事件；调用方的 ctx 被取消时仍会尝试写入
func (r *Recorder) Record(ctx context.Context, e Event) {
	if r == nil || len(r.sinks) == 0 {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	for _, sink := range r.sinks {
		if err := sink.Write(wctx, e); err != nil {
			r.logger.Warn("审计事件写入失败",
				zap.String("action", e.Action),
				zap.String("target_id", e.TargetID),
				zap.Error(err),
			)
		}
	}
}

// ── GORM Sink ──

// GormSink 写入 audit_logs 表
type GormSink struct {
	repo repository.AuditLogRepository
}

// NewGormSink 创建数据库 Sink
func NewGormSink(repo repository.AuditLogRepository) *GormSink {
	return &GormSink{repo: repo}
}

func (s *GormSink) Write(ctx context.Context, e Event) error {
	details := e.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}

	log := &model.AuditLog{
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Details:    datatypes.JSON(raw),
		CreatedAt:  e.OccurredAt,
	}
	if e.ActorID != "" {
		actor := e.ActorID
		log.ActorID = &actor
	}
	return s.repo.Create(ctx, log)
}

// ── MQ Sink ──

// Publisher 消息发布接口，由 pkg/mq.Publisher 实现
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
}

// MQSink 将事件投递到 RabbitMQ，供下游订阅
type MQSink struct {
	pub        Publisher
	routingKey string
}

// NewMQSink 创建消息队列 Sink
func NewMQSink(pub Publisher, routingKey string) *MQSink {
	return &MQSink{pub: pub, routingKey: routingKey}
}

func (s *MQSink) Write(ctx context.Context, e Event) error {
	return s.pub.Publish(ctx, s.routingKey+"."+e.Action, e)
}
