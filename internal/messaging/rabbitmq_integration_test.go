//go:build integration

package messaging_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"modulys-admin/internal/domain"
	"modulys-admin/internal/messaging"
	"modulys-admin/internal/session"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRabbitMQ starts a RabbitMQ container and returns its connection URL
func setupRabbitMQ(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.12-management-alpine",
		ExposedPorts: []string{"5672/tcp"},
		Env: map[string]string{
			"RABBITMQ_DEFAULT_USER": "guest",
			"RABBITMQ_DEFAULT_PASS": "guest",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("Server startup complete"),
			wait.ForListeningPort("5672/tcp"),
		).WithDeadline(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start RabbitMQ container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)

	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}

// bindAuditQueue declares a throwaway queue on the audit exchange.
func bindAuditQueue(t *testing.T, url string) <-chan amqp.Delivery {
	t.Helper()

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ch, err := conn.Channel()
	require.NoError(t, err)

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "", messaging.AuditExchange, false, nil))

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)
	return msgs
}

func TestRabbitMQConnection(t *testing.T) {
	url := setupRabbitMQ(t)

	t.Run("connects_with_retry", func(t *testing.T) {
		rmq, err := messaging.NewRabbitMQWithRetry(context.Background(), url, 10, 500*time.Millisecond)
		require.NoError(t, err)
		defer rmq.Close()

		assert.False(t, rmq.IsClosed())
		assert.NoError(t, rmq.Ping(context.Background()))
	})

	t.Run("close_connection", func(t *testing.T) {
		rmq, err := messaging.NewRabbitMQWithRetry(context.Background(), url, 10, 500*time.Millisecond)
		require.NoError(t, err)

		require.NoError(t, rmq.Close())
		assert.True(t, rmq.IsClosed())
		assert.Error(t, rmq.Ping(context.Background()))
	})
}

func TestAuditFlow(t *testing.T) {
	url := setupRabbitMQ(t)

	rmq, err := messaging.NewRabbitMQWithRetry(context.Background(), url, 10, 500*time.Millisecond)
	require.NoError(t, err)
	defer rmq.Close()

	msgs := bindAuditQueue(t, url)
	observer := messaging.NewAuditObserver(rmq, 5*time.Second)

	observer.Observe(context.Background(), session.Event{
		Kind:     session.EventLogin,
		Identity: &domain.Identity{ID: "1", Email: "admin@modulys.com"},
		At:       time.Now(),
	})

	select {
	case msg := <-msgs:
		var event messaging.AuditEvent
		require.NoError(t, json.Unmarshal(msg.Body, &event))
		assert.Equal(t, "login", event.Kind)
		assert.Equal(t, "1", event.UserID)
		assert.Equal(t, event.ID, msg.MessageId)
		assert.Equal(t, "application/json", msg.ContentType)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for audit event")
	}
}
