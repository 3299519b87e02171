package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/cmd/buildCFG"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/api/api"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/consumerWorker"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/mailer"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/payment"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/push"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/rabbit"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/repo"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/service"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/pkg/auth"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)

	masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build DB config")
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
	if err != nil {
		log.Fatal().Msgf("failed to connect to DB: %v", err)
	}
	log.Info().Msg("Database connected successfully")

	store, err := repo.NewStore(db, &log)
	if err != nil {
		log.Fatal().Msgf("failed to initialize store: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot get working directory")
	}
	if err := store.MigrateUp(filepath.Join(cwd, "migrations/postgres")); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("Migrations applied successfully")

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}
	rmq, err := rabbit.NewClient(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
	if err != nil {
		log.Fatal().Msgf("failed to connect to RabbitMQ: %v", err)
	}
	defer rmq.Close()

	authCfg, err := buildCFG.BuildAuthConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load auth config")
	}
	stripeCfg, err := buildCFG.BuildStripeConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load Stripe config")
	}

	tokens := auth.NewTokenManager(authCfg.JWTSecret, authCfg.TokenTTL)
	payments := payment.NewStripeProvider(stripeCfg.SecretKey, &log)
	mail := mailer.NewSMTPMailer(buildCFG.BuildSMTPConfig(cfg), &log)
	hub := push.NewHub(&log)
	paymentTimeout := buildCFG.BuildPaymentTimeout(cfg)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	worker := consumerWorker.NewReader(rmq, store, mail, hub)
	worker.Start(workerCtx)

	app := api.NewRouters(&api.Routers{
		Auth:          service.NewAuthService(store.Users, tokens, &log),
		Events:        service.NewEventService(store.Events, hub, &log),
		Registrations: service.NewRegistrationService(store, payments, mail, hub, rmq, paymentTimeout, &log),
		Comments:      service.NewCommentService(store.Comments, store.Events, store.Registrations, &log),
		Notifications: service.NewNotificationService(store.Notifications, &log),
		Hub:           hub,
		Tokens:        tokens,
		Log:           &log,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := app.Run(":" + serverCfg.Port); err != nil {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	cancelWorker()
	worker.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if closer, ok := interface{}(app).(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(shutdownCtx); err != nil {
			log.Error().Msgf("Error shutting down server: %v", err)
		}
	}

	log.Info().Msg("Shutdown complete")
}
