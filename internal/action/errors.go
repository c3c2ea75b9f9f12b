package action

import (
	"errors"
	"fmt"
)

// Ошибки action.
var (
	// ErrActionNotFound — тип action не найден в реестре.
	ErrActionNotFound = errors.New("action type not found")
)

// TransportError — запрос не удалось выполнить (сеть, отмена, таймаут).
//
// Ответы с любым HTTP статусом ошибкой не являются.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

// Error реализует интерфейс error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap возвращает базовую ошибку.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError проверяет, является ли ошибка ошибкой транспорта.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
