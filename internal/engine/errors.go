package engine

import (
	"errors"
	"strings"
)

// Ошибки схемы и валидации.
var (
	// ErrSchemaViolation — значение не соответствует схеме.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrInvalidSchema — документ схемы не удалось разобрать.
	ErrInvalidSchema = errors.New("invalid schema")
)

// Ошибки рендеринга шаблонов.
var (
	// ErrTemplateRender — ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render failed")
)

// FieldIssue — нарушение схемы в одном поле.
type FieldIssue struct {
	Field  string // путь поля: url, headers.accept
	Reason string // описание нарушения
	Value  any    // значение, не прошедшее проверку
}

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	Schema  string       // имя схемы
	Field   string       // первое поле, вызвавшее ошибку
	Message string       // описание ошибки
	Issues  []FieldIssue // все найденные нарушения
	Err     error        // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Schema != "" {
		b.WriteString(e.Schema)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)

	for i, issue := range e.Issues {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(issue.Field)
		b.WriteString(": ")
		b.WriteString(issue.Reason)
	}
	return b.String()
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// HasField проверяет, есть ли нарушение для поля.
func (e *ValidationError) HasField(field string) bool {
	for _, issue := range e.Issues {
		if issue.Field == field {
			return true
		}
	}
	return false
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(schema string, issues []FieldIssue, err error) *ValidationError {
	e := &ValidationError{
		Schema:  schema,
		Message: "validation failed",
		Issues:  issues,
		Err:     err,
	}
	if len(issues) > 0 {
		e.Field = issues[0].Field
	}
	return e
}
