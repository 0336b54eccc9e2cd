package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/canteen-coupons/api"
	"github.com/angelmondragon/canteen-coupons/api/routes"
	"github.com/angelmondragon/canteen-coupons/internal/auth"
	"github.com/angelmondragon/canteen-coupons/internal/contractors"
	"github.com/angelmondragon/canteen-coupons/internal/coupons"
	"github.com/angelmondragon/canteen-coupons/internal/employees"
	"github.com/angelmondragon/canteen-coupons/internal/insights"
	"github.com/angelmondragon/canteen-coupons/internal/menus"
	"github.com/angelmondragon/canteen-coupons/internal/notifications"
	"github.com/angelmondragon/canteen-coupons/internal/reports"
	"github.com/angelmondragon/canteen-coupons/pkg/auth/session"
	"github.com/angelmondragon/canteen-coupons/pkg/config"
	"github.com/angelmondragon/canteen-coupons/pkg/db"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
	"github.com/angelmondragon/canteen-coupons/pkg/mailer"
	"github.com/angelmondragon/canteen-coupons/pkg/metrics"
	"github.com/angelmondragon/canteen-coupons/pkg/migrate"
	"github.com/angelmondragon/canteen-coupons/pkg/redis"
	"github.com/angelmondragon/canteen-coupons/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Ledger.Location()
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRun(ctx, cfg.DB, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hasher := security.NewArgon2Hasher(cfg.Password)
	// Shared by the ledger and the registry delete cascades.
	ledgerLock := &sync.Mutex{}
	employeeRepo := employees.NewRepository(dbClient.DB())
	contractorRepo := contractors.NewRepository(dbClient.DB())
	couponRepo := coupons.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())

	employeeService, err := employees.NewService(employees.ServiceParams{
		DB:         dbClient,
		Repo:       employeeRepo,
		Hasher:     hasher,
		Ledger:     cfg.Ledger,
		LedgerLock: ledgerLock,
	})
	if err != nil {
		return err
	}
	if seeded, err := employeeService.SeedSuperAdmin(ctx); err != nil {
		return err
	} else if seeded {
		logg.Info(logg.WithField(ctx, "employee_id", cfg.Ledger.SuperAdminID), "super admin seeded")
	}

	contractorService, err := contractors.NewService(dbClient, contractorRepo, hasher, ledgerLock)
	if err != nil {
		return err
	}

	notifier, err := mailer.NewCouponNotifier(cfg.Sendgrid, logg)
	if err != nil {
		return err
	}

	couponService, err := coupons.NewService(coupons.ServiceParams{
		DB:            dbClient,
		Repo:          couponRepo,
		Employees:     employeeRepo,
		Contractors:   contractorRepo,
		Notifications: notificationRepo,
		Notifier:      notifier,
		Metrics:       metrics.NewLedgerMetrics(registry),
		Logger:        logg,
		Ledger:        cfg.Ledger,
		Lock:          ledgerLock,
	})
	if err != nil {
		return err
	}

	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		return err
	}

	menuService, err := menus.NewService(menus.NewRepository(dbClient.DB()), loc)
	if err != nil {
		return err
	}

	reportService, err := reports.NewService(couponRepo, employeeRepo, loc)
	if err != nil {
		return err
	}

	var generator insights.Generator
	if cfg.Insights.Enabled() {
		client, err := insights.NewClient(cfg.Insights.APIKey,
			insights.WithBaseURL(cfg.Insights.BaseURL),
			insights.WithModel(cfg.Insights.Model),
			insights.WithTimeout(cfg.Insights.Timeout),
		)
		if err != nil {
			return err
		}
		generator = client
	}
	insightService, err := insights.NewService(generator, couponRepo, employeeRepo, logg)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Employees:          employeeRepo,
		Contractors:        contractorRepo,
		EmployeePasswords:  employeeService,
		ContractorPassword: contractorService,
		Sessions:           sessionManager,
		Hasher:             hasher,
		JWTConfig:          cfg.JWT,
		SuperAdminID:       cfg.Ledger.SuperAdminID,
	})
	if err != nil {
		return err
	}

	router := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:            dbClient,
		Redis:         redisClient,
		Gatherer:      registry,
		HTTPMetrics:   metrics.NewHTTPMetrics(registry),
		Auth:          authService,
		Employees:     employeeService,
		Contractors:   contractorService,
		Coupons:       couponService,
		Notifications: notificationService,
		Menus:         menuService,
		Reports:       reportService,
		Insights:      insightService,
	})

	server := api.NewServer(cfg, router)
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     server.Addr,
		"driver":   cfg.DB.Driver,
		"timezone": loc.String(),
		"insights": cfg.Insights.Enabled(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return multierr.Append(server.Shutdown(shutdownCtx), <-serveErr)
}
