package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"go.uber.org/zap"
)

func TestRabbitMQPlanPublisher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := rabbitmq.Run(ctx, "rabbitmq:3.13-management-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	amqpURL, err := container.AmqpURL(ctx)
	require.NoError(t, err)

	conn, err := Connect(ctx, amqpURL, 5, time.Second, zap.NewNop())
	require.NoError(t, err)
	defer conn.Close()

	publisher, err := NewRabbitMQPlanPublisher(conn, zap.NewNop())
	require.NoError(t, err)
	defer publisher.Close()

	// Очередь-подписчик на fanout exchange
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "", ExchangePlanEvents, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	require.NoError(t, publisher.PublishPlanEvent(ctx, PlanEvent{Type: PlanTaskCompleted, PlanID: "p1", TaskID: "task-1"}))

	select {
	case d := <-deliveries:
		assert.Equal(t, "application/json", d.ContentType)
		assert.Equal(t, string(PlanTaskCompleted), d.Type)
		assert.Equal(t, amqp091.Persistent, d.DeliveryMode)
		var got PlanEvent
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, "p1", got.PlanID)
		assert.Equal(t, "task-1", got.TaskID)
		assert.False(t, got.OccurredAt.IsZero())
	case <-time.After(10 * time.Second):
		t.Fatal("plan event was not delivered")
	}
}
