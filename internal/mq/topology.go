package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeInvocations Exchange = "conduit.invocations"
	ExchangeDLQ         Exchange = "conduit.dlq"
)

// Queues — имена очередей.
const (
	QueueInvocationsCompleted Queue = "invocations.completed"
	QueueDLQInvocations       Queue = "dlq.invocations"
)

// Routing keys.
const (
	RoutingKeyCompleted      RoutingKey = "completed"
	RoutingKeyDLQInvocations RoutingKey = "invocations"
)

type queueBinding struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

var topologyBindings = []queueBinding{
	{QueueInvocationsCompleted, RoutingKeyCompleted, ExchangeInvocations},
	{QueueDLQInvocations, RoutingKeyDLQInvocations, ExchangeDLQ},
}

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// DeclareTailQueue создаёт временную эксклюзивную очередь, привязанную
// к событиям завершения. Удаляется сервером при закрытии канала.
func DeclareTailQueue(ctx context.Context, conn *Connection) (Queue, error) {
	var name Queue

	err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}

		q, err := ch.QueueDeclare(
			"",    // server-named
			false, // durable
			true,  // delete when unused
			true,  // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare tail queue: %w", err)
		}

		if err := ch.QueueBind(q.Name, string(RoutingKeyCompleted), string(ExchangeInvocations), false, nil); err != nil {
			return fmt.Errorf("bind tail queue: %w", err)
		}

		name = Queue(q.Name)
		return nil
	})

	return name, err
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	for _, ex := range []Exchange{ExchangeInvocations, ExchangeDLQ} {
		err := ch.ExchangeDeclare(
			string(ex), // name
			"direct",   // type
			true,       // durable
			false,      // auto-deleted
			false,      // internal
			false,      // no-wait
			nil,        // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}
	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// события, которые не удалось обработать, уходят в DLQ
		{QueueInvocationsCompleted, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQInvocations),
		}},
		{QueueDLQInvocations, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}
	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	for _, b := range topologyBindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Conduit RabbitMQ Topology:

    conduit.invocations (direct)
    └── invocations.completed [routing: completed]
            DLQ: dlq.invocations

    conduit.dlq (direct)
    └── dlq.invocations [routing: invocations]
`
}
