package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/forgeline-erp/forgeline/internal/app"
	"github.com/forgeline-erp/forgeline/internal/attendance"
	"github.com/forgeline-erp/forgeline/internal/demand"
	"github.com/forgeline-erp/forgeline/internal/inventory"
	"github.com/forgeline-erp/forgeline/internal/masterdata"
	"github.com/forgeline-erp/forgeline/internal/observability"
	"github.com/forgeline-erp/forgeline/internal/platform/db"
	"github.com/forgeline-erp/forgeline/internal/procurement"
	"github.com/forgeline-erp/forgeline/internal/shared"
	"github.com/forgeline-erp/forgeline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()
	dashboardCache := inventory.NewCache(redisClient, cfg.DashboardCacheTTL)

	taskClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Warn("task client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	masterdataRepo := masterdata.NewRepository(dbpool)
	masterdataService := masterdata.NewService(masterdataRepo, auditLogger)
	masterdataHandler := masterdata.NewHandler(logger, masterdataService)

	demandRepo := demand.NewRepository(dbpool)
	demandService := demand.NewService(demandRepo)
	demandHandler := demand.NewHandler(logger, demandService)

	procurementRepo := procurement.NewRepository(dbpool)
	procurementService := procurement.NewService(procurementRepo, auditLogger, dashboardCache, metrics, logger)
	procurementHandler := procurement.NewHandler(logger, procurementService)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, demandService, procurementService, auditLogger, dashboardCache, logger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	attendanceRepo := attendance.NewRepository(dbpool)
	attendanceService := attendance.NewService(attendanceRepo, taskClient, auditLogger, int64(cfg.WorkdayMinutes), logger)
	attendanceHandler := attendance.NewHandler(logger, attendanceService)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		MasterDataHandler:  masterdataHandler,
		InventoryHandler:   inventoryHandler,
		ProcurementHandler: procurementHandler,
		DemandHandler:      demandHandler,
		AttendanceHandler:  attendanceHandler,
		JobsHandler:        jobsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
