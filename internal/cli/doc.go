// Package cli реализует инструмент командной строки conduit.
//
// # Обзор
//
// CLI решает две задачи:
//   - локальный запуск и проверка определений action (action run, action validate)
//     без gateway, через тот же конвейер, что и gateway;
//   - просмотр состояния gateway через management API (routes, invocations)
//     и поток событий завершения из RabbitMQ (invocations tail).
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для /api/v1. Инкапсулирует запросы, парсинг ответов
// (dataResponse, listResponse, errorResponse) и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	invocations, err := client.ListInvocations(cli.ListInvocationsOpts{Status: "FAILED"})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: conduit invocations list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - action: run, validate
//   - routes: list
//   - invocations: list, show, tail
//   - schedules: list
//
// Каждая группа создаётся через фабричную функцию (NewRoutesCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
