package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"lineadvisor.app/advisor/common/id"
	"lineadvisor.app/advisor/common/llm"
	"lineadvisor.app/advisor/common/logger"
	"lineadvisor.app/advisor/common/otel"
	"lineadvisor.app/advisor/core/config"
	"lineadvisor.app/advisor/internal/httpapi"
	"lineadvisor.app/advisor/pkg/classify"
	"lineadvisor.app/advisor/pkg/expert"
	"lineadvisor.app/advisor/pkg/metrics"
	"lineadvisor.app/advisor/pkg/moderator"
	"lineadvisor.app/advisor/pkg/retrieval"
	"lineadvisor.app/advisor/pkg/session"
	"lineadvisor.app/advisor/pkg/workflow"
)

const maxAdapterRetries = 2

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg := config.Load()

	if err := id.Init(1); err != nil {
		os.Stderr.WriteString("failed to initialize id generator: " + err.Error() + "\n")
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "advisor engine starting", "env", cfg.Env)

	dict, err := classify.LoadDictionary()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load issue dictionary", "error", err)
		os.Exit(1)
	}

	provider := buildRetrievalProvider(ctx, cfg)
	classifier := classify.NewClassifier(dict, provider)

	registry, err := expert.NewRegistry(ctx, cfg, maxAdapterRetries)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build expert registry", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "expert registry ready", "experts", registry.Names())

	var mod workflow.Moderator
	if cfg.ExpertD.APIKey != "" {
		moderatorClient, err := llm.NewLangchainClient(llm.Config{
			APIKey: cfg.ExpertD.APIKey, BaseURL: cfg.ExpertD.BaseURL, Model: cfg.ExpertD.Model,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to build moderator client", "error", err)
			os.Exit(1)
		}
		mod = moderator.New(moderatorClient, 0.3)
	} else {
		slog.WarnContext(ctx, "expert D not configured; moderation will fail and every turn will fall back to the highest-confidence expert")
		mod = moderator.New(nil, 0.3)
	}

	engine := &workflow.Engine{
		Classifier: classifier,
		Registry:   registry,
		Moderator:  mod,
		MaxExperts: cfg.MaxExperts,

		TurnTimeout:       cfg.TurnTimeout,
		ClassifierTimeout: cfg.ClassifierTimeout,
		ExpertTimeout:     cfg.ExpertTimeout,
		ModeratorTimeout:  cfg.ModeratorTimeout,
	}

	store := buildSessionStore(ctx, cfg)
	sweeper := session.NewSweeper(store, time.Hour, cfg.SessionIdleTimeout)
	go sweeper.Run(ctx)
	defer sweeper.Stop()

	m := metrics.New()

	handler := &httpapi.Handler{Engine: engine, Store: store, Metrics: m}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(handler, gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.TurnTimeout,
		WriteTimeout:      cfg.TurnTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// buildRetrievalProvider wires the vector and keyword stores when their
// backends are configured. Either (or both) being absent degrades to an
// empty retrieval context rather than blocking startup.
func buildRetrievalProvider(ctx context.Context, cfg config.Config) *retrieval.Provider {
	var (
		vectorStore retrieval.VectorStore
		embedFn     retrieval.EmbedFunc
	)
	if cfg.ArangoURL != "" && cfg.ExpertA.APIKey != "" {
		vs, err := retrieval.NewVectorStore(ctx, retrieval.VectorStoreConfig{
			URL: cfg.ArangoURL, Username: cfg.ArangoUser, Password: cfg.ArangoPassword,
			Database: cfg.ArangoDatabase, Collection: "issue_documents",
		})
		if err != nil {
			slog.WarnContext(ctx, "vector store unavailable", "error", err)
		} else {
			vectorStore = vs
			embedder, err := llm.NewEmbedder(llm.Config{APIKey: cfg.ExpertA.APIKey})
			if err != nil {
				slog.WarnContext(ctx, "embedder unavailable", "error", err)
			} else {
				embedFn = embedder.Embed
			}
		}
	}

	var keywordStore retrieval.KeywordStore
	if cfg.TypesenseURL != "" {
		ks, err := retrieval.NewKeywordStore(retrieval.KeywordStoreConfig{
			URL: cfg.TypesenseURL, APIKey: cfg.TypesenseAPIKey, Collection: "issue_documents",
		})
		if err != nil {
			slog.WarnContext(ctx, "keyword store unavailable", "error", err)
		} else {
			keywordStore = ks
		}
	}

	return retrieval.NewProvider(vectorStore, keywordStore, embedFn)
}

// buildSessionStore prefers the Redis-backed store when configured; it is
// authoritative over the in-memory store when present, per the documented
// backend policy.
func buildSessionStore(ctx context.Context, cfg config.Config) session.Store {
	if cfg.RedisURL == "" {
		slog.InfoContext(ctx, "no REDIS_URL configured; using in-memory session store only")
		return session.NewMemStore(cfg.MaxHistoryTurns)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url, falling back to in-memory session store", "error", err)
		return session.NewMemStore(cfg.MaxHistoryTurns)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis, falling back to in-memory session store", "error", err)
		return session.NewMemStore(cfg.MaxHistoryTurns)
	}

	slog.InfoContext(ctx, "redis connected")
	return session.NewRedisStore(client, cfg.MaxHistoryTurns, cfg.SessionIdleTimeout)
}

const banner = `lineadvisor engine starting`
