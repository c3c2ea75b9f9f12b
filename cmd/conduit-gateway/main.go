package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaiso/conduit/internal/action"
	"github.com/shaiso/conduit/internal/config"
	"github.com/shaiso/conduit/internal/gateway"
	"github.com/shaiso/conduit/internal/mq"
	"github.com/shaiso/conduit/internal/repo"
	"github.com/shaiso/conduit/internal/scheduler"
	"github.com/shaiso/conduit/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to gateway config (default: $CONDUIT_CONFIG or conduit.yaml)")
	flag.Parse()

	// Инициализируем structured logging
	logger := telemetry.SetupLogger()

	if err := config.LoadDotEnv(); err != nil {
		logger.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Info("starting conduit-gateway", "routes", len(cfg.Routes))

	shutdownTracer, err := telemetry.InitTracer("conduit-gateway", cfg.Tracing, logger)
	if err != nil {
		logger.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer shutdownTracer(context.Background())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hcfg := gateway.Config{
		Routes:   cfg.Routes,
		Registry: action.DefaultRegistry(action.NewHTTPTransport(cfg.Server.HTTPTimeout)),
		Metrics:  telemetry.NewMetrics(nil),
		Logger:   logger,
	}

	var locker scheduler.Locker

	// Журнал вызовов в PostgreSQL
	if cfg.Storage.DBURL != "" {
		pool, err := repo.NewPool(ctx, cfg.Storage.DBURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("connected to database")

		if cfg.Storage.Migrate {
			if err := repo.Migrate(ctx, pool); err != nil {
				logger.Error("failed to migrate database", "error", err)
				os.Exit(1)
			}
		}

		if len(cfg.Schedules) > 0 {
			locker = repo.NewAdvisoryLock(pool, repo.SchedulerLockKey)
		}

		invocationRepo := repo.NewInvocationRepo(pool)
		hcfg.Store = invocationRepo
		hcfg.Recorders = append(hcfg.Recorders, gateway.RepoRecorder(invocationRepo))
	}

	// События о завершённых вызовах в RabbitMQ
	if cfg.MQ.URL != "" {
		conn, err := mq.NewConnection(cfg.MQ.URL, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		if err := mq.SetupTopology(ctx, conn); err != nil {
			logger.Error("failed to setup topology", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to rabbitmq", "topology", mq.TopologyInfo())

		hcfg.Recorders = append(hcfg.Recorders, gateway.PublisherRecorder(mq.NewPublisher(conn, logger)))
	}

	// Расписания выполняются тем же реестром и записываются теми же Recorder
	if len(cfg.Schedules) > 0 {
		sched, err := scheduler.New(scheduler.Config{
			Schedules: cfg.Schedules,
			Registry:  hcfg.Registry,
			Recorders: hcfg.Recorders,
			Metrics:   hcfg.Metrics,
			Locker:    locker,
			Logger:    logger.With("component", "scheduler"),
		})
		if err != nil {
			logger.Error("invalid schedules", "error", err)
			os.Exit(1)
		}
		hcfg.Schedules = sched

		go func() {
			if err := sched.Run(ctx); err != nil {
				logger.Error("scheduler error", "error", err)
			}
		}()
	}

	handler, err := gateway.NewHandler(hcfg)
	if err != nil {
		logger.Error("invalid gateway config", "error", err)
		os.Exit(1)
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
