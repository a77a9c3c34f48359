package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quizops/quizops-api/internal/config"
	"github.com/quizops/quizops-api/internal/domain/events"
	"github.com/quizops/quizops-api/internal/domain/opsauth"
	"github.com/quizops/quizops-api/internal/domain/promo"
	"github.com/quizops/quizops-api/internal/domain/referral"
	"github.com/quizops/quizops-api/internal/domain/webhook"
	"github.com/quizops/quizops-api/internal/middleware"
	"github.com/quizops/quizops-api/internal/pkg/database"
	"github.com/quizops/quizops-api/internal/pkg/jwt"
	pkgresponse "github.com/quizops/quizops-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting QuizOps API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	sessionService := jwt.NewService(cfg.OpsSessionSecret, cfg.OpsSessionTTL)

	// ---------- Repositories ----------
	promoRepo := promo.NewRepository(db)
	referralRepo := referral.NewRepository(db)
	eventsRepo := events.NewRepository(db)
	operatorRepo := opsauth.NewRepository(db)

	// ---------- Services ----------
	promoService := promo.NewService(promoRepo, promo.GuardThresholds{
		LookbackMinutes:   cfg.GuardLookbackMinutes,
		MinFailedAttempts: cfg.GuardMinFailedAttempts,
		MinDistinctUsers:  cfg.GuardMinDistinctUsers,
	})
	referralService := referral.NewService(referralRepo, referral.AlertThresholds{
		MinStarted:            cfg.FraudAlertMinStarted,
		MaxFraudRejectedRate:  cfg.FraudAlertMaxRate,
		MaxRejectedFraudTotal: cfg.FraudAlertMaxRejected,
		MaxReferrerRejected:   cfg.FraudAlertMaxPerReferrer,
	})
	eventsService := events.NewService(eventsRepo)
	opsauthService := opsauth.NewService(operatorRepo, sessionService)

	// ---------- Handlers ----------
	promoHandler := promo.NewHandler(promoService)
	referralHandler := referral.NewHandler(referralService)
	eventsHandler := events.NewHandler(eventsService)
	opsauthHandler := opsauth.NewHandler(opsauthService)
	webhookHandler := webhook.NewHandler(
		cfg.WebhookSecretToken,
		webhook.NewRedisDeduper(redis, cfg.WebhookDedupeTTL),
		webhook.NewRedisEnqueuer(redis),
	)

	internalAuth := middleware.InternalAuth(cfg.InternalAPIToken, sessionService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Mount("/ops", opsauthHandler.Routes())
	r.Mount("/webhook", webhookHandler.Routes())

	r.Route("/internal", func(r chi.Router) {
		r.Mount("/promo", promoHandler.Routes(internalAuth))
		r.Mount("/referrals", referralHandler.Routes(internalAuth))
		r.Mount("/referrals/events", eventsHandler.Routes(internalAuth))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
