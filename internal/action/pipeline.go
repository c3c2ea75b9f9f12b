package action

import (
	"context"
	"net/http"
)

// Stage — этап конвейера action.
//
// Жизненный цикл:
//
//	Start → ConfigResolved → RequestBuilt → ResponseCaptured → ConfigReResolved → Dispatched → Done
//
// Ошибки возможны только при разрешении конфигурации и при отправке запроса.
type Stage int

const (
	StageStart Stage = iota
	StageConfigResolved
	StageRequestBuilt
	StageResponseCaptured
	StageConfigReResolved
	StageDispatched
	StageDone
)

var stageNames = [...]string{
	StageStart:            "start",
	StageConfigResolved:   "config_resolved",
	StageRequestBuilt:     "request_built",
	StageResponseCaptured: "response_captured",
	StageConfigReResolved: "config_re_resolved",
	StageDispatched:       "dispatched",
	StageDone:             "done",
}

// String возвращает имя этапа.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// State — состояние конвейера между этапами.
//
// Каждый этап получает State по значению и возвращает новое значение,
// предыдущее состояние не изменяется.
type State struct {
	Stage      Stage
	Definition map[string]any     // исходное определение, шаблон для обоих проходов
	Config     *Config            // первый проход: контекст вызывающего
	Request    *RequestDescriptor // исходящий запрос
	Response   *Response          // захваченный ответ
	Mapped     *Config            // второй проход: тело ответа
	Dispatched bool               // значение отправлено вызывающему
}

// NewState создаёт начальное состояние.
func NewState(definition map[string]any) State {
	return State{Stage: StageStart, Definition: definition}
}

// Invocation — входные данные одного вызова action.
type Invocation struct {
	// Definition — сырое определение action с шаблонами.
	Definition map[string]any

	// Hydration — контекст вызывающего для первого прохода.
	Hydration any

	// InboundHeaders — заголовки входящего запроса для passThroughHeaders.
	InboundHeaders http.Header

	// Sink — канал ответа вызывающему. Может быть nil.
	Sink ResponseSink
}

// Result — результат вызова action.
type Result struct {
	// Output — сырое тело ответа, собственный результат action.
	Output any

	// StatusCode — HTTP статус ответа.
	StatusCode int

	// Request — отправленный запрос.
	Request *RequestDescriptor

	// Dispatched — было ли что-то отправлено вызывающему.
	Dispatched bool

	// Final — состояние конвейера после последнего этапа.
	Final State
}

// resolveConfig — этап Config Resolver (первый проход).
func resolveConfig(state State, hydration any) (State, error) {
	cfg, err := Resolve(state.Definition, hydration)
	if err != nil {
		return state, err
	}
	state.Config = cfg
	state.Stage = StageConfigResolved
	return state, nil
}

// buildRequest — этап Request Builder.
func buildRequest(state State, inbound http.Header) State {
	state.Request = Build(state.Config, inbound)
	state.Stage = StageRequestBuilt
	return state
}

// dispatchOutput — этап Output Dispatcher.
func dispatchOutput(ctx context.Context, state State, sink ResponseSink) (State, error) {
	dispatched, err := Dispatch(ctx, state.Mapped, state.Response.Body, sink)
	if err != nil {
		return state, err
	}
	state.Dispatched = dispatched
	state.Stage = StageDispatched
	return state, nil
}

// Run проводит определение через все этапы конвейера.
//
// Ошибки (*engine.ValidationError, *TransportError) возвращаются без
// обёртки вместе с состоянием, на котором конвейер остановился.
func Run(ctx context.Context, transport Transport, inv *Invocation) (State, error) {
	state := NewState(inv.Definition)

	state, err := resolveConfig(state, inv.Hydration)
	if err != nil {
		return state, err
	}

	state = buildRequest(state, inv.InboundHeaders)

	state, err = bindResponse(ctx, transport, state)
	if err != nil {
		return state, err
	}

	state, err = dispatchOutput(ctx, state, inv.Sink)
	if err != nil {
		return state, err
	}

	state.Stage = StageDone
	return state, nil
}
