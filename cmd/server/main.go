package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-persona-chat/backend/ai"
	"ai-persona-chat/backend/internal/scheduler"
	"ai-persona-chat/backend/internal/service"
	"ai-persona-chat/backend/internal/store"
	"ai-persona-chat/backend/internal/voice"
	"ai-persona-chat/backend/internal/ws"
	"ai-persona-chat/backend/pkg/config"
	"ai-persona-chat/backend/pkg/health"
	"ai-persona-chat/backend/pkg/logger"
	"ai-persona-chat/backend/pkg/router"
	"ai-persona-chat/backend/pkg/secrets"
	"ai-persona-chat/backend/shared/observability"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	cfg := config.New()

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"))

	// Observability: stdout traces plus a Prometheus meter provider backing
	// the /metrics endpoint.
	shutdownTracing := observability.SetupTracing("ai-persona-chat")
	defer shutdownTracing()
	mp := observability.SetupPrometheusMetrics()
	defer mp.Shutdown(context.Background())

	// Secrets manager: Vault when configured, env fallback otherwise.
	if err := secrets.Init(log); err != nil {
		log.LogError(err, "Failed to initialize secrets manager, using environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	backend, err := newStoreBackend(ctx, cfg)
	if err != nil {
		log.LogError(err, "Failed to initialize state store", "backend", cfg.Store.Backend)
		os.Exit(1)
	}
	st := store.New(backend)

	personas, err := service.NewPersonaService(ctx, st)
	if err != nil {
		log.LogError(err, "Failed to load personas")
		os.Exit(1)
	}
	conv, err := service.NewConversationService(ctx, st)
	if err != nil {
		log.LogError(err, "Failed to load conversations")
		os.Exit(1)
	}
	cancel()

	// Model gateway. API keys come from the secrets manager so a Vault
	// deployment never needs them in the environment.
	geminiKey := secrets.GetSecretWithDefault(context.Background(), "GEMINI_API_KEY", cfg.Model.GeminiAPIKey)
	client, err := ai.NewGenaiClient(context.Background(), geminiKey, cfg.Model.Name)
	if err != nil {
		log.LogError(err, "Failed to initialize model client")
		os.Exit(1)
	}
	gateway := ai.NewGateway(client, log)

	elevenLabsKey := secrets.GetSecretWithDefault(context.Background(), "ELEVENLABS_API_KEY", cfg.Speech.ElevenLabsKey)
	openAIKey := secrets.GetSecretWithDefault(context.Background(), "OPENAI_API_KEY", cfg.Speech.OpenAIKey)
	speech := ai.NewSpeechService(elevenLabsKey, openAIKey)
	images := ai.NewImageService(openAIKey)

	hub := ws.NewHub(log)
	go hub.Run()

	sched := scheduler.New(gateway, personas, conv, hub, scheduler.Config{
		GreetingDelay: cfg.Scheduler.GreetingDelay,
		FollowUpDelay: cfg.Scheduler.FollowUpDelay,
		CallTimeout:   cfg.Model.CallTimeout,
	}, log)

	analysis := service.NewAnalysisService(personas, conv, gateway)
	selector := voice.NewSelector(voice.DefaultScoring())

	checker := health.NewChecker(log, 30*time.Second)
	checker.RegisterCheck("store", func() (health.Status, string, error) {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pingCancel()
		if err := st.Ping(pingCtx); err != nil {
			return health.StatusDown, "state store unreachable", err
		}
		return health.StatusUp, "", nil
	})
	checker.Start()
	defer checker.Stop()

	r := router.New(router.Dependencies{
		Personas:  personas,
		Conv:      conv,
		Analysis:  analysis,
		Scheduler: sched,
		Gateway:   gateway,
		Speech:    speech,
		Images:    images,
		Selector:  selector,
		Hub:       hub,
		Health:    checker,
		Logger:    log,
		Config:    cfg,
	})
	r.SetupRoutes()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port, "store_backend", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited")
}

// newStoreBackend selects the blob store from configuration. Memory is for
// development only; nothing survives a restart.
func newStoreBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.Store.Backend {
	case "redis":
		return store.NewRedisBackend(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	case "memory":
		return store.NewMemoryBackend(), nil
	default:
		dsn := store.PostgresDSN(
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Name,
			cfg.Database.SSLMode,
		)
		return store.NewGormBackend(dsn)
	}
}
