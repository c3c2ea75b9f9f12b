package action

import (
	"context"
	"fmt"
)

// ResponseSink — канал ответа вызывающему.
type ResponseSink interface {
	Send(ctx context.Context, value any) error
}

// SinkFunc — адаптер функции к ResponseSink.
type SinkFunc func(ctx context.Context, value any) error

// Send реализует ResponseSink.
func (f SinkFunc) Send(ctx context.Context, value any) error {
	return f(ctx, value)
}

// Dispatch решает, что отправить вызывающему.
//
//   - MappingNone     — ничего
//   - MappingRaw      — сырое тело ответа
//   - MappingTemplate — шаблон, уже разрешённый по телу ответа
//
// Без sink отправка пропускается. Возвращает true, если значение отправлено.
func Dispatch(ctx context.Context, mapped *Config, rawBody any, sink ResponseSink) (bool, error) {
	if sink == nil || mapped == nil {
		return false, nil
	}

	var value any
	switch mapped.ResponseMapping.Mode {
	case MappingRaw:
		value = rawBody
	case MappingTemplate:
		value = mapped.ResponseMapping.Template
	default:
		return false, nil
	}

	if err := sink.Send(ctx, value); err != nil {
		return false, fmt.Errorf("dispatch response: %w", err)
	}
	return true, nil
}
