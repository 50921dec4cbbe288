package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/famquest/family-server-go/internal/config"
	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/handler"
	"github.com/famquest/family-server-go/internal/jobs"
	"github.com/famquest/family-server-go/internal/middleware"
	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/notify"
	redisclient "github.com/famquest/family-server-go/internal/redis"
	"github.com/famquest/family-server-go/internal/repository"
	"github.com/famquest/family-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	notifier := notify.New(db.DB, redisClient)
	rateLimiter := service.NewRateLimiter(redisClient)

	authService := service.NewAuthService(db, cfg)
	pairingService := service.NewPairingService(db, authService, notifier)
	ledgerService := service.NewLedgerService(db, notifier)
	familyService := service.NewFamilyService(db, notifier)
	shopService := service.NewShopService(db, ledgerService, notifier)
	questService := service.NewQuestService(db, ledgerService, notifier)
	adminService := service.NewAdminService(db, familyService, shopService)
	notificationService := service.NewNotificationService(db)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)
	submitLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, cfg.PairingSubmitPerMin, time.Minute, "pairing_submit",
	)
	pollLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, cfg.PairingPollPerMin, time.Minute, "pairing_poll",
	)
	authLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, cfg.AuthPerMin, time.Minute, "auth",
	)

	authHandler := handler.NewAuthHandler(authService)
	pairingHandler := handler.NewPairingHandler(pairingService, submitLimit.Handler, pollLimit.Handler)
	familyHandler := handler.NewFamilyHandler(familyService, ledgerService)
	walletHandler := handler.NewWalletHandler(ledgerService)
	shopHandler := handler.NewShopHandler(shopService)
	questHandler := handler.NewQuestHandler(questService)
	adminHandler := handler.NewAdminHandler(adminService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.With(authLimit.Handler).Mount("/auth", authHandler.Routes())
	r.Mount("/child", pairingHandler.Routes())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handler)

		r.Get("/me", authHandler.Me)
		r.Mount("/notifications", notificationHandler.Routes())

		r.Route("/family", func(r chi.Router) {
			r.Use(middleware.RequireRoles(model.RoleParent, model.RoleAdmin))
			r.Mount("/", familyHandler.Routes())
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Use(middleware.RequireRoles(model.RoleChild))
			r.Mount("/", walletHandler.Routes())
		})

		r.Mount("/shop", shopHandler.Routes())
		r.Mount("/quests", questHandler.Routes())

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRoles(model.RoleAdmin))
			r.Mount("/", adminHandler.Routes())
		})
	})

	accessRequestRepo := repository.NewAccessRequestRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	cleanupJob := jobs.NewCleanupJob(accessRequestRepo, notificationRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
