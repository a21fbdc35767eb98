package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"shift-roster/backend/config"
)

var ErrPublisherClosed = errors.New("消息发布器已关闭")

// Publisher RabbitMQ JSON 消息发布器
// 连接在创建时建立；channel 懒加载，被服务端关闭后下次发布时重建
type Publisher struct {
	conn     *amqp.Connection
	exchange string
	logger   *zap.Logger

	mu     sync.Mutex
	ch     *amqp.Channel
	closed bool
}

// NewPublisher 连接 RabbitMQ 并声明 topic 交换机
func NewPublisher(cfg *config.MQConfig, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ 连接失败: %w", err)
	}

	p := &Publisher{conn: conn, exchange: cfg.Exchange, logger: logger}

	ch, err := p.channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("声明交换机失败: %w", err)
	}

	logger.Info("RabbitMQ 连接成功", zap.String("exchange", cfg.Exchange))
	return p, nil
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPublisherClosed
	}
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("打开发布 channel 失败: %w", err)
	}
	p.ch = ch

	closeCh := ch.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if amqpErr, ok := <-closeCh; ok && amqpErr != nil {
			p.logger.Warn("发布 channel 已关闭，下次发布时重建",
				zap.String("reason", amqpErr.Reason),
			)
		}
	}()

	return ch, nil
}

// Publish 以 JSON 发布持久化消息
func (p *Publisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	err = ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         payload,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}
	return nil
}

// Close 关闭 channel 与连接
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.ch != nil {
		p.ch.Close()
	}
	return p.conn.Close()
}
