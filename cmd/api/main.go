package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/srgjo27/hotel_ledger/internal/adapter/handler"
	"github.com/srgjo27/hotel_ledger/internal/adapter/repository/postgres"
	"github.com/srgjo27/hotel_ledger/internal/core/services"
	"github.com/srgjo27/hotel_ledger/internal/platform/config"
	"github.com/srgjo27/hotel_ledger/internal/platform/database"
	"github.com/srgjo27/hotel_ledger/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logCfg := logger.DefaultConfig()
	if cfg.IsProduction() {
		logCfg = logger.ProductionConfig()
	}
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logCfg.Output = cfg.Log.Output
	logCfg.Service = cfg.App.Name
	logCfg.Env = cfg.App.Env

	zl, closeLog, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(ctx, cfg.Database, zl)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.App.AutoMigrate {
		if err := database.Migrate(ctx, db, postgres.Schema); err != nil {
			zl.Fatal("failed to migrate database", zap.Error(err))
		}
		zl.Info("database schema applied")
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis, zl)
	if err != nil {
		zl.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	roomRepo := postgres.NewRoomRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	reportRepo := postgres.NewReportRepository(db)

	opts := []services.Option{
		services.WithLocation(cfg.Hotel.Location()),
		services.WithCurrency(cfg.Hotel.Currency),
		services.WithLockTTL(cfg.Booking.LockTTL),
		services.WithDefaultDueDays(cfg.Billing.DefaultDueDays),
		services.WithTaxRate(cfg.Billing.TaxRateDecimal()),
		services.WithCacheTTL(cfg.Report.CacheTTL),
	}

	bookingService := services.NewBookingService(roomRepo, bookingRepo, redisClient,
		append(opts, services.WithLogger(zl.Named("booking")))...)
	billingService := services.NewBillingService(bookingRepo, invoiceRepo, paymentRepo, redisClient,
		append(opts, services.WithLogger(zl.Named("billing")))...)
	reportService := services.NewReportService(bookingRepo, invoiceRepo, paymentRepo, roomRepo, reportRepo, redisClient,
		append(opts, services.WithLogger(zl.Named("report")))...)

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		bookingService.RunBackgroundCleanup(ctx, cfg.Booking.NoShowSweepInterval)
	}()
	go func() {
		defer workers.Done()
		billingService.RunOverdueSweep(ctx, cfg.Billing.OverdueSweepInterval)
	}()

	router := handler.NewRouter(
		handler.NewBookingHandler(bookingService, zl),
		handler.NewBillingHandler(billingService, zl),
		handler.NewReportHandler(reportService, zl),
		zl.Named("http"),
	)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		zl.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.App.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server startup failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	workers.Wait()
	zl.Info("server exiting")
}
