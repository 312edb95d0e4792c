package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/alerts"
	"github.com/ukydev/fleetdash/internal/analytics"
	"github.com/ukydev/fleetdash/internal/auth"
	"github.com/ukydev/fleetdash/internal/config"
	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/functions"
	"github.com/ukydev/fleetdash/internal/handlers"
	"github.com/ukydev/fleetdash/internal/logger"
	"github.com/ukydev/fleetdash/internal/middleware"
	"github.com/ukydev/fleetdash/internal/notify"
	"github.com/ukydev/fleetdash/internal/realtime"
	"github.com/ukydev/fleetdash/internal/roles"
	"github.com/ukydev/fleetdash/internal/scheduler"
)

const (
	authRateLimit       = 20
	authRateLimitWindow = 60
	shutdownTimeout     = 10 * time.Second
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	store := db.NewStore(client.Database(cfg.MongoDB))
	if err := store.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Warn("Failed to ensure indexes")
	}

	settings, err := config.NewStore(cfg, store.Settings)
	if err != nil {
		log.WithError(err).Warn("Ignoring invalid settings from environment")
	}
	if err := settings.Restore(ctx); err != nil {
		log.WithError(err).Warn("Failed to restore persisted settings")
	}
	settings.Subscribe(func(key, _ string) {
		log.WithField("key", key).Info("Setting updated")
	})

	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if authService.UsesDefaultSecret() {
		log.Warn("JWT_SECRET is not set; using an insecure development secret")
	}
	resolver := roles.NewResolver(store.Profiles, store.Roles)

	hub := realtime.NewHub()
	publisher := realtime.Fanout{hub}
	if cfg.MQTTBroker != "" {
		bridge, err := realtime.DialBridge(cfg.MQTTBroker, cfg.MQTTTopicPrefix, hub)
		if err != nil {
			log.WithError(err).Warn("MQTT bridge unavailable; changes stay local to this instance")
		} else {
			defer bridge.Close()
			publisher = append(publisher, bridge)
		}
	}
	unsubSettings := hub.Subscribe(func(c realtime.Change) {
		if c.Origin == "" {
			return
		}
		if err := settings.Restore(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to reload settings after remote change")
		}
	}, realtime.TableSettings)
	defer unsubSettings()

	refresher := scheduler.NewRefresher(store.Vehicles, store.Trips, notify.NewSlack(cfg.SlackWebhookURL), cfg.RefreshSchedule)
	if err := refresher.Start(hub); err != nil {
		return err
	}
	defer refresher.Stop()

	sessions := alerts.NewSessions()
	source := analytics.Source{
		Vehicles:    store.Vehicles,
		Drivers:     store.Drivers,
		Trips:       store.Trips,
		Fuel:        store.Fuel,
		Maintenance: store.Maintenance,
	}
	h := handlers.Handlers{
		Auth:        handlers.NewAuthHandler(authService, store.Users, store.Profiles, store.Roles, resolver, sessions),
		Vehicles:    handlers.NewVehicleHandler(store.Vehicles, publisher),
		Drivers:     handlers.NewDriverHandler(store.Drivers, publisher),
		Trips:       handlers.NewTripHandler(store.Trips, publisher),
		Maintenance: handlers.NewMaintenanceHandler(store.Maintenance, store.Vehicles, publisher),
		Fuel:        handlers.NewFuelHandler(store.Fuel, publisher),
		Alerts:      handlers.NewAlertHandler(refresher, sessions),
		Analytics:   handlers.NewAnalyticsHandler(source),
		Settings:    handlers.NewSettingsHandler(settings, publisher),
		Functions:   handlers.NewFunctionsHandler(functions.NewService(store.Users, store.Profiles, store.Roles, store.Drivers, authService)),
		Realtime:    handlers.NewRealtimeHandler(hub),
	}
	if cfg.SeedEnabled {
		log.Warn("SEED_ENABLED is set; demo account seeding is open without authentication")
	}
	router := handlers.NewRouter(h, middleware.NewAuthMiddleware(authService, resolver), handlers.RouterOptions{
		SeedEnabled: cfg.SeedEnabled,
		RateLimit:   middleware.NewRateLimitMiddleware().RateLimit(authRateLimit, authRateLimitWindow),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
