// Command server runs the chatbot backend HTTP service.
//
// Startup order:
//  1. Load .env and environment configuration
//  2. Configure structured logging (zerolog)
//  3. Configure OpenTelemetry tracing (optional)
//  4. Open the SQLite idempotency store and the MongoDB chat log; both are
//     degraded collaborators, so a failure logs a warning and the service
//     keeps running without idempotent replay or durable chat logs
//  5. Build the session manager and mount the HTTP API
//  6. Serve until SIGINT/SIGTERM, then shut down gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	_ "github.com/rifath/chatbot-backend/docs"
	"github.com/rifath/chatbot-backend/internal/auth"
	"github.com/rifath/chatbot-backend/internal/chat"
	"github.com/rifath/chatbot-backend/internal/config"
	httpapi "github.com/rifath/chatbot-backend/internal/http"
	"github.com/rifath/chatbot-backend/internal/llm"
	"github.com/rifath/chatbot-backend/internal/observability"
	"github.com/rifath/chatbot-backend/internal/repo"
	"github.com/rifath/chatbot-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// @title        Chatbot Backend API
// @version      1.0
// @description  Single-user authenticated chatbot backend with session transcripts and durable chat logs.
// @BasePath     /api/v1
func main() {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Msg("starting chatbot backend")

	ctx := context.Background()

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Warn().Err(err).Msg("OpenTelemetry setup failed; continuing without tracing")
		shutdownOTel = func(context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(ctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	// Idempotency store (SQLite). Degraded when unavailable.
	var db *gorm.DB
	if d, err := repo.OpenSQLite(cfg.DBPath); err != nil {
		log.Warn().Err(err).Str("path", cfg.DBPath).Msg("idempotency store unavailable; replay disabled")
	} else if err := repo.AutoMigrate(d); err != nil {
		log.Warn().Err(err).Msg("idempotency store migration failed; replay disabled")
	} else {
		db = d
	}

	// Chat log (MongoDB). Degraded when unavailable.
	var recorder chat.Recorder = repo.UnavailableChatLog{}
	if cfg.Mongo.URI == "" {
		log.Warn().Msg("MONGO_URI not set; chats will not be saved")
	} else if client, err := repo.OpenMongo(ctx, cfg.Mongo.URI, cfg.Mongo.ConnectTimeout); err != nil {
		log.Warn().Err(err).Msg("Mongo connection failed; chats will not be saved")
	} else {
		chatLog := repo.NewChatLogRepo(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection)
		if err := chatLog.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("chat log index creation failed")
		}
		recorder = chatLog
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}()
	}

	// Completion client. An empty API key leaves it permanently unavailable
	// and every turn degrades to an inline error reply.
	if cfg.Groq.APIKey == "" {
		log.Warn().Msg("GROQ_API_KEY not set; completions unavailable")
	}
	completer := llm.NewGroq(llm.Options{
		APIKey:  cfg.Groq.APIKey,
		BaseURL: cfg.Groq.BaseURL,
		Timeout: cfg.Groq.Timeout,
	})

	mgr := chat.NewManager(chat.ManagerOptions{
		Gate:           auth.NewGate(cfg.AllowedUsers),
		Completer:      completer,
		Recorder:       recorder,
		Model:          cfg.Groq.Model,
		SystemPrompt:   cfg.Session.SystemPrompt,
		MaxPromptRunes: cfg.Session.MaxPromptRunes,
		IdleTTL:        cfg.Session.IdleTTL,
		Logger:         log.Logger,
	})

	// HTTP engine
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{Manager: mgr, DB: db}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
