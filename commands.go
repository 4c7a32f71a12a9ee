package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/yeremiapane/service-booking/config"
	"github.com/yeremiapane/service-booking/database"
	"github.com/yeremiapane/service-booking/events"
	"github.com/yeremiapane/service-booking/hub"
	"github.com/yeremiapane/service-booking/router"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "service-booking",
	Short: "Service marketplace booking backend.",
	Long: `Booking API connecting customers, workers and administrators:
priced booking creation, the booking status lifecycle and worker assignment.`,
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := bootstrap()
		if err != nil {
			return err
		}
		return database.Migrate(db)
	},
}

var skipMigrate bool

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not migrate the schema on start")
	rootCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not migrate the schema on start")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	utils.ConfigureLogger(cfg.Log.Level, cfg.Log.File)
	utils.DebugMode = cfg.Debug
	utils.SetJWTConfig(cfg.JWT.Secret, cfg.JWT.TTL)

	db, err := config.InitDB(cfg.DB, cfg.Debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	if !skipMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Redis.Addr != "" {
		client, err := utils.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			utils.ErrorLogger.WithError(err).Warn("redis unavailable, token blacklist stays in memory")
		} else {
			defer client.Close()
			utils.SetBlacklist(utils.NewRedisBlacklist(client))
			utils.InfoLogger.Printf("Token blacklist backed by redis at %s", cfg.Redis.Addr)
		}
	}

	var notifiers []services.Notifier
	if cfg.AMQP.URL != "" {
		publisher, err := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			utils.ErrorLogger.WithError(err).Warn("rabbitmq unavailable, booking events are not published")
		} else {
			defer publisher.Close()
			notifiers = append(notifiers, publisher)
		}
	}

	var online services.PaymentGateway
	if cfg.Payment.GatewayURL != "" {
		online = services.NewHTTPGateway(cfg.Payment.GatewayURL, cfg.Payment.GatewayKey, cfg.CurrencyCode, cfg.Payment.Timeout)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r, err := router.SetupRouter(router.Dependencies{
		DB:            db,
		Config:        cfg,
		Hub:           hub.New(),
		Notifiers:     notifiers,
		Registry:      registry,
		OnlineGateway: online,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.ErrorLogger.WithError(err).Error("graceful shutdown failed")
		}
	}()

	utils.InfoLogger.Printf("Listening on port %s", cfg.AppPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	utils.InfoLogger.Println("Server stopped")
	return nil
}
