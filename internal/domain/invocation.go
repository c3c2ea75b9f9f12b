package domain

import (
	"time"

	"github.com/google/uuid"
)

// Invocation — запись об одном вызове action через gateway.
//
// Создаётся перед отправкой запроса и завершается после диспетчеризации
// ответа или ошибки. Сохраняется в журнал вызовов и публикуется в MQ.
type Invocation struct {
	// ID — уникальный идентификатор вызова.
	ID uuid.UUID `json:"id"`

	// Route — маршрут gateway в виде "METHOD /path".
	Route string `json:"route"`

	// Action — имя action из определения (может быть пустым).
	Action string `json:"action,omitempty"`

	// Method и URL — отправленный запрос. Пусто, если конфигурация не прошла схему.
	Method string `json:"method,omitempty"`
	URL    string `json:"url,omitempty"`

	// Status — итог вызова.
	Status InvocationStatus `json:"status"`

	// ResponseStatus — HTTP статус ответа upstream, 0 если ответа нет.
	ResponseStatus int `json:"response_status,omitempty"`

	// Dispatched — было ли что-то отправлено вызывающему.
	Dispatched bool `json:"dispatched"`

	// Error — текст ошибки для FAILED.
	Error string `json:"error,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewInvocation создаёт вызов в статусе RUNNING.
func NewInvocation(route, action string) *Invocation {
	return &Invocation{
		ID:        uuid.New(),
		Route:     route,
		Action:    action,
		Status:    InvocationStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// Duration возвращает продолжительность вызова.
// Возвращает 0, если вызов ещё не завершён.
func (i *Invocation) Duration() time.Duration {
	if i.FinishedAt == nil {
		return 0
	}
	return i.FinishedAt.Sub(i.StartedAt)
}

// IsFinished возвращает true, если вызов завершён.
func (i *Invocation) IsFinished() bool {
	return i.Status.IsTerminal()
}

// MarkSucceeded переводит вызов в статус SUCCEEDED.
func (i *Invocation) MarkSucceeded(responseStatus int, dispatched bool) {
	now := time.Now().UTC()
	i.Status = InvocationStatusSucceeded
	i.ResponseStatus = responseStatus
	i.Dispatched = dispatched
	i.FinishedAt = &now
}

// MarkFailed переводит вызов в статус FAILED с ошибкой.
func (i *Invocation) MarkFailed(err string) {
	now := time.Now().UTC()
	i.Status = InvocationStatusFailed
	i.FinishedAt = &now
	i.Error = err
}
