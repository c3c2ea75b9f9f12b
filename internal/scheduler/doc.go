// Package scheduler выполняет action по расписанию.
//
// Расписания задаются в конфигурации gateway (schedules). Каждое
// расписание — cron-выражение или интервал, статический контекст и список
// определений action. Когда время подошло, action выполняются через тот же
// реестр, что и маршруты gateway, и записываются теми же Recorder с
// маршрутом "schedule:<name>".
//
// Структура:
//   - scheduler.go — основная логика Scheduler (Run, Tick, processSchedule)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Контекст шаблонов:
//
//	schedule.name      — имя расписания
//	schedule.fired_at  — время запуска (RFC 3339, UTC)
//	context.*          — статический контекст из конфигурации
//	actions.<name>     — выходы предыдущих action расписания
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Schedules: cfg.Schedules,
//	    Registry:  registry,
//	    Recorders: recorders,
//	    Locker:    repo.NewAdvisoryLock(pool, repo.SchedulerLockKey), // опционально
//	    Logger:    logger,
//	})
//	go sched.Run(ctx)
//
// Leader Election:
//
// Если несколько реплик gateway используют одну БД, Locker
// (pg_try_advisory_lock) гарантирует, что Tick выполняет только одна.
// Без Locker каждая реплика запускает расписания самостоятельно.
package scheduler
