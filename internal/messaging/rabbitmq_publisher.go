package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var _ PlanEventPublisher = (*RabbitMQPlanPublisher)(nil)

// RabbitMQPlanPublisher публикует события в fanout exchange plan_events.
// Соединение принадлежит вызывающему коду, Close закрывает только канал.
type RabbitMQPlanPublisher struct {
	mu     sync.Mutex
	ch     *amqp091.Channel
	logger *zap.Logger
}

// NewRabbitMQPlanPublisher открывает канал и объявляет durable fanout exchange.
func NewRabbitMQPlanPublisher(conn *amqp091.Connection, logger *zap.Logger) (*RabbitMQPlanPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	log := logger.Named("PlanEventPublisher")

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangePlanEvents, // name
		"fanout",           // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", ExchangePlanEvents, err)
	}

	log.Info("Plan events exchange declared", zap.String("exchange", ExchangePlanEvents))
	return &RabbitMQPlanPublisher{ch: ch, logger: log}, nil
}

func (p *RabbitMQPlanPublisher) PublishPlanEvent(ctx context.Context, event PlanEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal plan event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		ExchangePlanEvents, // exchange
		"",                 // routing key, fanout
		false,              // mandatory
		false,              // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    event.OccurredAt,
			Type:         string(event.Type),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish plan event",
			zap.String("type", string(event.Type)),
			zap.String("planID", event.PlanID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish plan event: %w", err)
	}
	p.logger.Debug("Plan event published", zap.String("type", string(event.Type)), zap.String("planID", event.PlanID))
	return nil
}

func (p *RabbitMQPlanPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}

// Connect подключается к RabbitMQ с повторными попытками.
func Connect(ctx context.Context, amqpURL string, attempts int, delay time.Duration, logger *zap.Logger) (*amqp091.Connection, error) {
	if attempts < 1 {
		attempts = 1
	}
	logger.Info("Connecting to RabbitMQ",
		zap.String("url", maskURL(amqpURL)),
		zap.Int("max_attempts", attempts),
		zap.Duration("retry_delay", delay),
	)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := amqp091.Dial(amqpURL)
		if err == nil {
			logger.Info("Connected to RabbitMQ", zap.Int("attempt", attempt))
			go func() {
				if closeErr := <-conn.NotifyClose(make(chan *amqp091.Error, 1)); closeErr != nil {
					logger.Error("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
				}
			}()
			return conn, nil
		}
		lastErr = err
		logger.Warn("RabbitMQ connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}

// maskURL скрывает пароль в URL для логов.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	return u.Redacted()
}
