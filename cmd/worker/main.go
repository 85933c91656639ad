package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/forgeline-erp/forgeline/internal/app"
	"github.com/forgeline-erp/forgeline/internal/attendance"
	"github.com/forgeline-erp/forgeline/internal/demand"
	"github.com/forgeline-erp/forgeline/internal/inventory"
	jobmetrics "github.com/forgeline-erp/forgeline/internal/jobs"
	"github.com/forgeline-erp/forgeline/internal/platform/cache"
	"github.com/forgeline-erp/forgeline/internal/platform/db"
	"github.com/forgeline-erp/forgeline/internal/procurement"
	"github.com/forgeline-erp/forgeline/internal/shared"
	"github.com/forgeline-erp/forgeline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// jobs cannot run without the queue backend, so a dead redis is fatal here
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	metrics := jobmetrics.NewMetrics(nil)
	dashboardCache := inventory.NewCache(redisClient, cfg.DashboardCacheTTL)

	demandService := demand.NewService(demand.NewRepository(pool))
	procurementService := procurement.NewService(procurement.NewRepository(pool), auditLogger, dashboardCache, nil, logger)
	inventoryService := inventory.NewService(inventory.NewRepository(pool), demandService, procurementService, auditLogger, dashboardCache, logger)
	attendanceService := attendance.NewService(attendance.NewRepository(pool), nil, auditLogger, int64(cfg.WorkdayMinutes), logger)

	recomputeJob := jobs.NewSummaryRecomputeJob(attendanceService, logger, metrics)
	overreceiptJob := jobs.NewOverreceiptScanJob(pool, logger, metrics)
	healthJob := jobs.NewHealthScanJob(inventoryService, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAttendanceRecompute, Handler: recomputeJob.Handle},
			{Type: jobs.TaskOverreceiptScan, Handler: overreceiptJob.Handle},
			{Type: jobs.TaskHealthScan, Handler: healthJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: jobs.NewOverreceiptScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 1 * * *", Task: jobs.NewHealthScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
