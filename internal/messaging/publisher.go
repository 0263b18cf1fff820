package messaging

import (
	"context"
	"time"
)

// ExchangePlanEvents - fanout exchange событий жизненного цикла планов.
const ExchangePlanEvents = "plan_events"

// PlanEventType - тип события плана.
type PlanEventType string

const (
	PlanCreated       PlanEventType = "plan.created"
	PlanUpdated       PlanEventType = "plan.updated"
	PlanDeleted       PlanEventType = "plan.deleted"
	PlanTaskCompleted PlanEventType = "plan.task_completed"
)

// PlanEvent - сообщение о изменении плана.
type PlanEvent struct {
	Type       PlanEventType `json:"type"`
	PlanID     string        `json:"planId"`
	TaskID     string        `json:"taskId,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// PlanEventPublisher публикует события планов.
type PlanEventPublisher interface {
	PublishPlanEvent(ctx context.Context, event PlanEvent) error
	Close() error
}

// NoopPublisher используется, когда брокер не настроен.
type NoopPublisher struct{}

var _ PlanEventPublisher = NoopPublisher{}

func (NoopPublisher) PublishPlanEvent(context.Context, PlanEvent) error { return nil }
func (NoopPublisher) Close() error                                      { return nil }
