package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/medicore-hms/attendance-backend-go/internal/config"
	"github.com/medicore-hms/attendance-backend-go/internal/domain/device"
	appHTTP "github.com/medicore-hms/attendance-backend-go/internal/handler/http"
	"github.com/medicore-hms/attendance-backend-go/internal/pkg/cron"
	"github.com/medicore-hms/attendance-backend-go/internal/pkg/database"
	"github.com/medicore-hms/attendance-backend-go/internal/pkg/email"
	"github.com/medicore-hms/attendance-backend-go/internal/pkg/sse"
	"github.com/medicore-hms/attendance-backend-go/internal/pkg/zkteco"
	"github.com/medicore-hms/attendance-backend-go/internal/repository/postgresql"
	attendanceService "github.com/medicore-hms/attendance-backend-go/internal/service/attendance"
	syncService "github.com/medicore-hms/attendance-backend-go/internal/service/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DatabaseURL()
	if err := database.Migrate(ctx, dsn); err != nil {
		log.Fatal("Error running migrations: ", err)
	}

	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)

	notifier, err := email.NewNotifier(cfg.SMTP)
	if err != nil {
		log.Fatal("Error initializing email notifier: ", err)
	}

	hub := sse.NewHub()

	transport := zkteco.NewTransport(zkteco.Config{
		Addr:    fmt.Sprintf("%s:%d", cfg.Device.IP, cfg.Device.Port),
		CommKey: cfg.Device.CommKey,
		Timeout: cfg.Device.Timeout,
	})

	syncSvc := syncService.NewSyncService(
		transport,
		attendanceRepo,
		employeeRepo,
		notifier,
		hub,
		cfg.Device,
		cfg.Workday,
	)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, employeeRepo)

	scheduler := cron.NewScheduler()
	scheduler.AddJob("device_sync", cfg.Device.PollInterval, func(ctx context.Context) error {
		syncSvc.TriggerSync(ctx)
		return nil
	})
	cron.NewAttendanceJobs(attendanceRepo, employeeRepo).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	// Realtime punches from the terminal apply as they happen; the polling
	// job remains the catch-up path for anything missed while disconnected.
	go func() {
		if err := transport.Listen(ctx, func(entry device.LogEntry) {
			syncSvc.ProcessEntry(ctx, entry)
		}); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Realtime listener stopped", "error", err)
		}
	}()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	deviceHandler := appHTTP.NewDeviceHandler(transport, syncSvc)
	eventsHandler := appHTTP.NewEventsHandler(hub)

	router := appHTTP.NewRouter(cfg.App.Env, attendanceHandler, deviceHandler, eventsHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error: ", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}
