// Package main is the entry point for the ranking API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/accessmate/accessrank/internal/api"
	"github.com/accessmate/accessrank/internal/config"
	"github.com/accessmate/accessrank/internal/db"
	"github.com/accessmate/accessrank/internal/eligibility"
	"github.com/accessmate/accessrank/internal/evidence"
	"github.com/accessmate/accessrank/internal/health"
	"github.com/accessmate/accessrank/internal/middleware"
	"github.com/accessmate/accessrank/internal/place"
	"github.com/accessmate/accessrank/internal/rank"
	"github.com/accessmate/accessrank/internal/rankcache"
	"github.com/accessmate/accessrank/internal/scoring"
	"github.com/accessmate/accessrank/internal/sponsorship"
	"github.com/accessmate/accessrank/internal/tracing"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configFile := flag.String("config", "", "path to optional YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("AccessRank API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	ctx := context.Background()

	// Tracing
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "accessrank-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TracingSampling,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Database and venue repository
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	repo := place.NewPostgresVenueRepository(conn, logger)

	// Redis: ranked-result cache and shared rate limit state
	registry := prometheus.NewRegistry()
	mwMetrics := middleware.NewMetrics()
	sponsorMetrics := sponsorship.NewMetrics()
	rankMetrics := rank.NewMetrics()
	for _, m := range []interface {
		Register(prometheus.Registerer) error
	}{mwMetrics, sponsorMetrics, rankMetrics} {
		if err := m.Register(registry); err != nil {
			logger.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
	}

	var redisClient *redis.Client
	var cache *rankcache.Cache
	var rateLimitStore middleware.RateLimitStore = middleware.NewInMemoryRateLimitStore()
	var redisChecker api.HealthChecker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		if cfg.RankCacheEnabled {
			cache = rankcache.New(redisClient, time.Duration(cfg.CacheTTLSeconds)*time.Second, logger)
		}
		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient, mwMetrics)
		redisChecker = health.NewRedisChecker(redisClient)
	}

	// Scoring weights, with optional calibration overrides
	weights, err := scoring.LoadCalibration(cfg.CalibrationFile)
	if err != nil {
		logger.Warn("calibration load failed, using default weights", "error", err)
	}

	// Promotion policy from config
	policy := sponsorship.DefaultPolicy()
	policy.MaxSponsoredPerViewport = cfg.MaxSponsoredPerViewport
	policy.MaxSponsoredPerCategory = cfg.MaxSponsoredPerCategory
	policy.QualityFloor = cfg.SponsorshipQualityFloor
	policy.Deduplicate = cfg.DeduplicateSponsored

	ranker, err := sponsorship.NewRanker(policy, sponsorMetrics)
	if err != nil {
		logger.Error("invalid promotion policy", "error", err)
		os.Exit(1)
	}

	service := rank.NewService(eligibility.NewFilter(repo), ranker, weights, rankMetrics)

	// Evidence resolver (optional, needs object storage credentials)
	var resolver *evidence.Resolver
	if cfg.EvidenceBucketName != "" {
		resolver, err = evidence.NewResolver(evidence.ResolverConfig{
			BucketName:       cfg.EvidenceBucketName,
			AccessKeyID:      cfg.EvidenceAccessKeyID,
			SecretAccessKey:  cfg.EvidenceSecretAccessKey,
			Endpoint:         cfg.EvidenceEndpoint,
			URLExpiryMinutes: cfg.EvidenceURLExpiryMin,
		})
		if err != nil {
			logger.Error("failed to initialize evidence resolver", "error", err)
			os.Exit(1)
		}
	}

	searchHandlers := api.NewSearchHandlers(service, cache)
	placeHandlers := api.NewPlaceHandlers(repo, resolver)
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		DBChecker:    health.NewDBChecker(conn),
		RedisChecker: redisChecker,
	})

	mux := http.NewServeMux()

	// Search carries its own tighter rate limit; ranking a viewport is the
	// most expensive request the service handles.
	searchLimiter := middleware.RateLimiter(rateLimitStore, middleware.DefaultSearchLimit(), middleware.IPKeyFunc(), mwMetrics)
	mux.Handle("/search/places", searchLimiter(http.HandlerFunc(searchHandlers.SearchPlaces)))
	mux.HandleFunc("/places/", placeHandlers.GetPlace)
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Only handle exact root path, everything else returns 404
		if r.URL.Path != "/" {
			api.WriteError(w, r.Context(), http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"accessrank-api","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Apply middleware: RequestID -> Tracing -> Logging -> HTTP metrics -> CORS
	var handler http.Handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		MaxAge:         3600,
	})(mux)
	handler = middleware.HTTPMetrics(mwMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	if cfg.TracingEnabled {
		handler = middleware.Tracing("accessrank-api")(handler)
	}
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracer provider", "error", err)
	}

	logger.Info("server stopped")
}
