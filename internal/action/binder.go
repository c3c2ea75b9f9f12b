package action

import (
	"context"
)

// bindResponse — этап Response Binder.
//
// Отправляет запрос, захватывает тело и повторно разрешает исходное
// определение (а не конфигурацию первого прохода), используя тело ответа
// как контекст. Схема та же, поэтому defaults и валидация совпадают.
// Шаблон в схеме или хосте url ("{{ base }}/users"), которого нет в теле
// ответа, во втором проходе не проходит format: uri.
func bindResponse(ctx context.Context, transport Transport, state State) (State, error) {
	resp, err := transport.Send(ctx, state.Request)
	if err != nil {
		return state, err
	}
	state.Response = resp
	state.Stage = StageResponseCaptured

	mapped, err := Resolve(state.Definition, resp.Body)
	if err != nil {
		return state, err
	}
	state.Mapped = mapped
	state.Stage = StageConfigReResolved

	return state, nil
}
