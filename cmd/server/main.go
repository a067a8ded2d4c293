package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"documind/internal/access"
	"documind/internal/ai"
	_ "documind/internal/ai/gemini"
	"documind/internal/ai/prompts"
	"documind/internal/api"
	"documind/internal/config"
	"documind/internal/metrics"
	"documind/internal/repositories"
	"documind/internal/routers"
	"documind/internal/save"
	"documind/internal/session"
	"documind/internal/utils"
)

func allowedOrigins() []string {
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		return strings.Split(v, ",")
	}
	return []string{"http://localhost:5173"}
}

func main() {
	utils.InitLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := repositories.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}

	docs := &repositories.DocumentRepository{DB: db}
	users := &repositories.UserRepository{DB: db}
	shares := &repositories.ShareRepository{DB: db}
	summaries := &repositories.SummaryRepository{DB: db}

	checker := access.NewChecker(shares)
	scheduler := save.NewScheduler(docs, cfg.SaveDebounce, logger)

	promptManager, err := prompts.NewManager()
	if err != nil {
		logger.Fatal("Failed to initialize prompt manager", zap.Error(err))
	}
	provider, err := ai.NewProvider(cfg.AIProvider)
	if err != nil {
		logger.Fatal("Failed to initialize AI provider", zap.Error(err))
	}
	pipeline := ai.NewPipeline(provider, promptManager)

	hub := session.NewHub(docs, users, checker, scheduler, pipeline, logger)

	// Optional fan-out of room events across instances. Without Redis the
	// hub is purely in-process.
	var bridge *session.Bridge
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		bridge = session.NewBridge(rdb, hub, logger)
		logger.Info("Cross-instance bridge enabled", zap.String("addr", cfg.RedisAddr))
	}

	handlers := api.NewHandlers(logger, hub, checker, docs, users, shares, summaries, pipeline, cfg.JWTSecret)

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Mount("/", routers.New(handlers))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("Collaboration service starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Collaboration service shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	if bridge != nil {
		bridge.Close()
	}
	// Push out any debounced saves still waiting.
	scheduler.Flush()

	logger.Info("Collaboration service exited")
}
