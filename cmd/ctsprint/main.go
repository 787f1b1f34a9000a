package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/config"
	dbRedis "github.com/NCIOCPL/clinical-trials-search-print/internal/db/redis"
	dbS3 "github.com/NCIOCPL/clinical-trials-search-print/internal/db/s3"
	logpkg "github.com/NCIOCPL/clinical-trials-search-print/internal/logger"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/metrics"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/repository/printcache"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/tracing"
	chiTransport "github.com/NCIOCPL/clinical-trials-search-print/internal/transport/chi"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/transport/render"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/transport/trialsapi"
	healthuc "github.com/NCIOCPL/clinical-trials-search-print/internal/usecase/health"
	printuc "github.com/NCIOCPL/clinical-trials-search-print/internal/usecase/print"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/version"
)

func main() {
	env := pflag.String("env", config.GetEnv(), "configuration environment (local, dev, prod)")
	logLevel := pflag.String("log-level", "", "override logging.level (debug, info, warn, error)")
	showVersion := pflag.Bool("version", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	logger, err := logpkg.NewLogger(*env, level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting CTS print service",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", *env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("base_path", cfg.HTTP.BasePath),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterCacheMetrics()
	metrics.RegisterTrialsAPIMetrics()

	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(tracing.Config{
		Exporter:    cfg.Tracing.Exporter,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, os.Stdout)
	if err != nil {
		logger.Fatal("Failed to set up tracing", zap.Error(err))
	}

	cache, cachePinger, closeCache, err := buildCache(ctx, cfg.Cache, logger)
	if err != nil {
		logger.Fatal("Failed to create page cache", zap.Error(err))
	}
	defer closeCache()
	logger.Info("Page cache ready", zap.String("driver", cfg.Cache.Driver))

	trialsClient, err := trialsapi.New(&trialsapi.Config{
		BaseURL: cfg.TrialsAPI.BaseURL,
		APIKey:  cfg.TrialsAPI.APIKey,
		Timeout: time.Duration(cfg.TrialsAPI.TimeoutSec) * time.Second,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("Failed to create trials API client", zap.Error(err))
	}

	renderer, err := render.New(cfg.Print.TemplatePath)
	if err != nil {
		logger.Fatal("Failed to load print template", zap.Error(err))
	}

	printSvc := printuc.New(trialsClient, renderer, cache, printuc.Config{
		DefaultNewSearchLink: cfg.Print.DefaultNewSearchLink,
		DisplayURLFormat:     cfg.Print.DisplayURLFormat,
	})
	healthSvc := healthuc.New(cachePinger, trialsClient)

	server := chiTransport.NewServer(printSvc, healthSvc, logger, chiTransport.Options{
		BasePath:     cfg.HTTP.BasePath,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		APIKeys:      cfg.Auth.APIKeys,
	})

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Error flushing traces", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildCache creates the configured page store driver wrapped with metrics.
func buildCache(
	ctx context.Context, cfg config.CacheConfig, logger *zap.Logger,
) (printcache.Cache, healthuc.CachePinger, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case config.DriverS3:
		client, err := dbS3.New(ctx, dbS3.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, nil, noop, fmt.Errorf("create s3 client: %w", err)
		}
		cache := printcache.NewS3Cache(client.API(), client.Bucket(), logger)
		return printcache.NewInstrumented(cache, printcache.DriverS3), client, noop, nil

	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			return nil, nil, noop, fmt.Errorf("create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, nil, noop, fmt.Errorf("redis not ready: %w", err)
		}
		cache := printcache.NewRedisCache(store, cfg.Redis.KeyPrefix, logger)
		return printcache.NewInstrumented(cache, printcache.DriverRedis), store, store.Close, nil

	case config.DriverFS:
		cache, err := printcache.NewFileCache(cfg.FS.Dir, logger)
		if err != nil {
			return nil, nil, noop, err
		}
		return printcache.NewInstrumented(cache, printcache.DriverFS), cache, noop, nil

	case config.DriverMemory:
		cache := printcache.NewMemoryCache()
		return printcache.NewInstrumented(cache, printcache.DriverMemory), cache, noop, nil
	}
	return nil, nil, noop, fmt.Errorf("unknown cache driver %q", cfg.Driver)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
