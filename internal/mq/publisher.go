package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/conduit/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeInvocationCompleted MessageType = "invocation.completed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// InvocationCompletedPayload — payload события о завершённом вызове.
type InvocationCompletedPayload struct {
	InvocationID   uuid.UUID `json:"invocation_id"`
	Route          string    `json:"route"`
	Action         string    `json:"action,omitempty"`
	Method         string    `json:"method,omitempty"`
	URL            string    `json:"url,omitempty"`
	Status         string    `json:"status"` // SUCCEEDED или FAILED
	ResponseStatus int       `json:"response_status,omitempty"`
	Dispatched     bool      `json:"dispatched"`
	Error          string    `json:"error,omitempty"`
	DurationMs     int64     `json:"duration_ms"`
}

// NewInvocationCompletedPayload строит payload из вызова.
func NewInvocationCompletedPayload(inv *domain.Invocation) InvocationCompletedPayload {
	return InvocationCompletedPayload{
		InvocationID:   inv.ID,
		Route:          inv.Route,
		Action:         inv.Action,
		Method:         inv.Method,
		URL:            inv.URL,
		Status:         string(inv.Status),
		ResponseStatus: inv.ResponseStatus,
		Dispatched:     inv.Dispatched,
		Error:          inv.Error,
		DurationMs:     inv.Duration().Milliseconds(),
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Type:         string(msg.Type),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishInvocationCompleted публикует событие о завершённом вызове action.
func (p *Publisher) PublishInvocationCompleted(ctx context.Context, inv *domain.Invocation) error {
	msg := NewMessage(MessageTypeInvocationCompleted, NewInvocationCompletedPayload(inv))
	return p.Publish(ctx, ExchangeInvocations, RoutingKeyCompleted, msg)
}
