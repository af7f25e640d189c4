package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"

	"github.com/wolfman30/chatbot-decision-core/cmd/mainconfig"
	"github.com/wolfman30/chatbot-decision-core/internal/api/router"
	"github.com/wolfman30/chatbot-decision-core/internal/app/bootstrap"
	appconfig "github.com/wolfman30/chatbot-decision-core/internal/config"
	"github.com/wolfman30/chatbot-decision-core/internal/escalation"
	"github.com/wolfman30/chatbot-decision-core/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/chatbot-decision-core/internal/http/middleware"
	"github.com/wolfman30/chatbot-decision-core/internal/knowledge"
	"github.com/wolfman30/chatbot-decision-core/internal/llm"
	"github.com/wolfman30/chatbot-decision-core/internal/observability/metrics"
	"github.com/wolfman30/chatbot-decision-core/internal/profile"
	"github.com/wolfman30/chatbot-decision-core/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting chatbot decision core API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	p, err := profile.LoadFile(cfg.ProfilePath)
	if err != nil {
		logger.Error("failed to load configuration profile", "path", cfg.ProfilePath, "error", err)
		os.Exit(1)
	}
	triggers, err := loadTriggers(cfg.TriggersPath)
	if err != nil {
		logger.Error("failed to load escalation triggers", "path", cfg.TriggersPath, "error", err)
		os.Exit(1)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	pool := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL, logger)
	var sessions bootstrap.Sessions
	if pool != nil {
		defer pool.Close()
		sessions = bootstrap.BuildSessions(cfg, redisClient, pool)
	} else {
		sessions = bootstrap.BuildSessions(cfg, redisClient, nil)
	}

	var bedrockAPI llm.BedrockConverseAPI
	var s3Client knowledge.S3API
	if needsAWS(cfg) {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		if cfg.BedrockModelID != "" {
			bedrockAPI = bedrockruntime.NewFromConfig(awsCfg)
		}
		if cfg.KnowledgeBucket != "" {
			s3Client = mainconfig.NewS3Client(awsCfg, cfg)
		}
	}

	llmClient, err := bootstrap.BuildLLMClient(ctx, cfg, bedrockAPI, logger)
	if err != nil {
		logger.Error("failed to initialize llm provider", "error", err)
		os.Exit(1)
	}

	metricsHandler, decisionMetrics := setupMetrics()

	engine, err := bootstrap.BuildEngine(p, triggers, sessions, decisionMetrics, logger)
	if err != nil {
		logger.Error("failed to build decision engine", "error", err)
		os.Exit(1)
	}
	kb := bootstrap.BuildKnowledge(cfg, p, llmClient, redisClient, s3Client, logger)

	knowledgeHandler := handlers.NewKnowledgeHandler(kb.Classifier, kb.Ingestor, decisionMetrics, logger)
	if kb.Source != nil {
		knowledgeHandler.WithSource(kb.Source)
	}

	var rateLimiter *limiter.Limiter
	if cfg.RateLimitPerMinute > 0 {
		rateLimiter, err = httpmiddleware.NewRateLimiter(int64(cfg.RateLimitPerMinute), time.Minute, redisClient)
		if err != nil {
			logger.Error("failed to build rate limiter", "error", err)
			os.Exit(1)
		}
	}

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		DecisionHandler:    handlers.NewDecisionHandler(engine, logger),
		KnowledgeHandler:   knowledgeHandler,
		MetricsHandler:     metricsHandler,
		RateLimiter:        rateLimiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "profile_usable", p.Usable())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers decision metrics and the Go runtime collectors on a
// private registry.
func setupMetrics() (http.Handler, *metrics.DecisionMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewDecisionMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

// loadTriggers reads an escalation trigger file. An empty path returns nil,
// which selects the built-in triggers.
func loadTriggers(path string) ([]escalation.Trigger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return escalation.LoadTriggers(f)
}

func needsAWS(cfg *appconfig.Config) bool {
	return cfg.BedrockModelID != "" || cfg.KnowledgeBucket != ""
}
