package domain

// InvocationStatus — статус вызова action.
//
// Жизненный цикл:
//
//	RUNNING → SUCCEEDED
//	        ↘ FAILED
//
// Ответ upstream с любым HTTP статусом считается SUCCEEDED.
type InvocationStatus string

const (
	// InvocationStatusRunning — вызов выполняется.
	InvocationStatusRunning InvocationStatus = "RUNNING"

	// InvocationStatusSucceeded — ответ получен и обработан.
	InvocationStatusSucceeded InvocationStatus = "SUCCEEDED"

	// InvocationStatusFailed — ошибка конфигурации или транспорта.
	InvocationStatusFailed InvocationStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s InvocationStatus) IsTerminal() bool {
	switch s {
	case InvocationStatusSucceeded, InvocationStatusFailed:
		return true
	default:
		return false
	}
}

// IsValid проверяет, что статус известен.
func (s InvocationStatus) IsValid() bool {
	switch s {
	case InvocationStatusRunning, InvocationStatusSucceeded, InvocationStatusFailed:
		return true
	default:
		return false
	}
}
