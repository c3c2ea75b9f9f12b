package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// ErrResponseAlreadySent — ответ вызывающему уже отправлен.
var ErrResponseAlreadySent = errors.New("response already sent")

// responseSink — action.ResponseSink поверх http.ResponseWriter.
//
// Пишет ответ ровно один раз: строки как text/plain, nil как пустое
// тело, остальное как JSON.
type responseSink struct {
	mu   sync.Mutex
	w    http.ResponseWriter
	sent bool
}

func newResponseSink(w http.ResponseWriter) *responseSink {
	return &responseSink{w: w}
}

// Send реализует action.ResponseSink.
func (s *responseSink) Send(_ context.Context, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sent {
		return ErrResponseAlreadySent
	}

	var (
		body        []byte
		contentType string
	)
	switch v := value.(type) {
	case nil:
	case string:
		body = []byte(v)
		contentType = "text/plain; charset=utf-8"
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		body = append(b, '\n')
		contentType = "application/json"
	}

	s.sent = true

	if contentType != "" {
		s.w.Header().Set("Content-Type", contentType)
	}
	s.w.WriteHeader(http.StatusOK)
	if len(body) > 0 {
		if _, err := s.w.Write(body); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return nil
}

// Sent возвращает true, если ответ уже отправлен.
func (s *responseSink) Sent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}
