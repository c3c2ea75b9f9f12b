// Package engine содержит движок разрешения шаблонной конфигурации.
//
// Включает:
//   - template.go — подстановка выражений {{ path }} из hydration context
//   - schema.go   — JSON Schema конфигурации: значения по умолчанию и валидация
//   - errors.go   — ValidationError и ошибки рендеринга
//
// Resolve выполняет полный цикл: рендеринг → defaults → валидация.
// Один и тот же Schema используется для любого числа вызовов Resolve
// с разными окружениями, поэтому правила валидации всегда совпадают.
//
//	schema := engine.MustSchema("action", doc)
//	cfg, err := engine.Resolve(definition, schema, engine.Options{
//	    Hydration:    map[string]any{"id": 42},
//	    AllowUnknown: true,
//	})
//	var verr *engine.ValidationError
//	if errors.As(err, &verr) {
//	    // verr.Issues — все нарушения схемы
//	}
package engine
