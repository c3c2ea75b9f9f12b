package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/conduit/internal/domain"
)

// fakeAcknowledger записывает ack/nack.
type fakeAcknowledger struct {
	acked   int
	nacked  int
	requeue bool
}

func (f *fakeAcknowledger) Ack(uint64, bool) error {
	f.acked++
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(uint64, bool) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func completedInvocation() *domain.Invocation {
	inv := domain.NewInvocation("GET /users/{id}", "user")
	inv.Method = "GET"
	inv.URL = "http://upstream/users/1"
	inv.MarkSucceeded(200, true)
	return inv
}

func TestNewInvocationCompletedPayload(t *testing.T) {
	inv := completedInvocation()
	p := NewInvocationCompletedPayload(inv)

	assert.Equal(t, inv.ID, p.InvocationID)
	assert.Equal(t, "GET /users/{id}", p.Route)
	assert.Equal(t, "SUCCEEDED", p.Status)
	assert.Equal(t, 200, p.ResponseStatus)
	assert.True(t, p.Dispatched)
}

func TestParsePayload_RoundTrip(t *testing.T) {
	msg := NewMessage(MessageTypeInvocationCompleted, NewInvocationCompletedPayload(completedInvocation()))

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, MessageTypeInvocationCompleted, decoded.Type)

	payload, err := ParsePayload[InvocationCompletedPayload](&decoded)
	require.NoError(t, err)
	assert.Equal(t, "user", payload.Action)
	assert.Equal(t, "http://upstream/users/1", payload.URL)
}

func TestConsumer_HandleDelivery(t *testing.T) {
	body, err := json.Marshal(NewMessage(MessageTypeInvocationCompleted, map[string]any{"route": "GET /x"}))
	require.NoError(t, err)

	t.Run("ack on success", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		var got *Delivery
		c := NewConsumer(nil, testLogger(), ConsumerConfig{
			Queue: QueueInvocationsCompleted,
			Handler: func(_ context.Context, d *Delivery) error {
				got = d
				return nil
			},
		})

		c.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})

		require.NotNil(t, got)
		assert.Equal(t, MessageTypeInvocationCompleted, got.Message.Type)
		assert.Equal(t, 1, ack.acked)
		assert.Zero(t, ack.nacked)
	})

	t.Run("nack on handler error", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		c := NewConsumer(nil, testLogger(), ConsumerConfig{
			Queue:   QueueInvocationsCompleted,
			Requeue: true,
			Handler: func(context.Context, *Delivery) error { return errors.New("boom") },
		})

		c.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})

		assert.Equal(t, 1, ack.nacked)
		assert.True(t, ack.requeue)
	})

	t.Run("malformed message goes to dlq", func(t *testing.T) {
		ack := &fakeAcknowledger{}
		called := false
		c := NewConsumer(nil, testLogger(), ConsumerConfig{
			Queue:   QueueInvocationsCompleted,
			Requeue: true,
			Handler: func(context.Context, *Delivery) error { called = true; return nil },
		})

		c.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")})

		assert.False(t, called)
		assert.Equal(t, 1, ack.nacked)
		assert.False(t, ack.requeue)
	})
}

func TestConsumer_ProcessDeliveriesStopsOnClose(t *testing.T) {
	c := NewConsumer(nil, testLogger(), ConsumerConfig{
		Handler: func(context.Context, *Delivery) error { return nil },
	})

	deliveries := make(chan amqp.Delivery)
	close(deliveries)

	err := c.processDeliveries(context.Background(), deliveries)
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = c.processDeliveries(ctx, make(chan amqp.Delivery))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTopology(t *testing.T) {
	assert.Contains(t, TopologyInfo(), string(ExchangeInvocations))
	assert.Contains(t, TopologyInfo(), string(QueueInvocationsCompleted))
	require.Len(t, topologyBindings, 2)
	assert.Equal(t, RoutingKeyCompleted, topologyBindings[0].routingKey)
}
