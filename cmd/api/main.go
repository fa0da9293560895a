package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"knowledgebase/internal/common/pagination"
	"knowledgebase/internal/config"
	hhttp "knowledgebase/internal/handler/http"
	pgRepo "knowledgebase/internal/infra/adapter/persistence/postgres"
	"knowledgebase/internal/infra/db"
	"knowledgebase/internal/infra/session"
	"knowledgebase/internal/infra/storage"
	"knowledgebase/internal/infra/summarizer"
	"knowledgebase/internal/observability/logging"
	"knowledgebase/internal/observability/tracing"
	"knowledgebase/internal/resilience/retry"
	"knowledgebase/internal/service/auth"
	artUC "knowledgebase/internal/usecase/article"
	assetUC "knowledgebase/internal/usecase/asset"
	"knowledgebase/internal/usecase/content"
	credUC "knowledgebase/internal/usecase/credential"
	tagUC "knowledgebase/internal/usecase/tag"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	shutdownTracing := tracing.Setup()
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database := initDatabase(ctx, logger, cfg.Database)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	sessions := initSessions(ctx, logger, cfg.Redis.URL)
	defer func() { _ = sessions.Close() }()

	blobs, err := storage.NewS3(ctx, cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize object storage", slog.Any("error", err))
		os.Exit(1)
	}

	sum, err := summarizer.FromConfig(cfg.Summarizer)
	if err != nil {
		logger.Error("failed to initialize summarizer", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("summarizer configured", slog.String("provider", sum.Name()))

	clientIPs, err := newIPExtractor(logger, cfg.HTTP)
	if err != nil {
		logger.Error("failed to load trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}

	handler := setupRouter(logger, cfg, database, sessions, blobs, sum, clientIPs)
	runServer(ctx, logger, cfg.HTTP, handler)
}

// initDatabase opens the pool, waiting for the server while containers come
// up, and applies pending migrations when enabled.
func initDatabase(ctx context.Context, logger *slog.Logger, cfg config.DatabaseConfig) *sql.DB {
	var database *sql.DB
	err := retry.WithBackoff(ctx, retry.StartupConfig(), func(ctx context.Context) error {
		var err error
		database, err = db.Open(ctx, cfg.URL, db.ConnectionConfig{
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			logger.Warn("database not ready", slog.Any("error", err))
		}
		return err
	})
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.AutoMigrate {
		if err := db.MigrateUp(database); err != nil {
			logger.Error("failed to migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}
	return database
}

func initSessions(ctx context.Context, logger *slog.Logger, url string) *session.RedisStore {
	var store *session.RedisStore
	err := retry.WithBackoff(ctx, retry.StartupConfig(), func(ctx context.Context) error {
		var err error
		store, err = session.NewRedisStore(ctx, url)
		if err != nil {
			logger.Warn("redis not ready", slog.Any("error", err))
		}
		return err
	})
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	return store
}

func setupRouter(
	logger *slog.Logger,
	cfg *config.Config,
	database *sql.DB,
	sessions *session.RedisStore,
	blobs *storage.S3,
	sum *summarizer.Summarizer,
	clientIPs hhttp.IPExtractor,
) http.Handler {
	pageCfg := pagination.Config{
		DefaultPage:  1,
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
	}

	articles := pgRepo.NewArticleRepo(database)
	tags := pgRepo.NewTagRepo(database)
	assets := pgRepo.NewAssetRepo(database)
	tx := pgRepo.NewTransactor(database)
	resolver := content.NewResolver(assets, tx)

	creds := &credUC.Service{
		Users:       pgRepo.NewUserRepo(database),
		Credentials: pgRepo.NewCredentialRepo(database),
		Sessions:    sessions,
		Tokens:      auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL),
		Tx:          tx,
	}

	return hhttp.NewRouter(hhttp.Deps{
		Logger: logger,
		DB:     database,
		Health: map[string]hhttp.Pinger{
			"redis":   sessions,
			"storage": blobs,
		},
		Version: getVersion(),
		Articles: &artUC.Service{
			Repo:       articles,
			Tags:       tags,
			Tx:         tx,
			Assets:     resolver,
			Summarizer: sum,
			PlainText:  content.PlainText,
			Pagination: pageCfg,
		},
		Resolver: resolver,
		Tags: &tagUC.Service{
			Repo:       tags,
			Articles:   articles,
			Pagination: pageCfg,
		},
		Assets: &assetUC.Service{
			Repo:     assets,
			Articles: articles,
			Store:    blobs,
			MaxSize:  cfg.Storage.MaxUploadSize,
		},
		Creds:          creds,
		Auth:           creds,
		Pagination:     pageCfg,
		MaxUploadSize:  cfg.Storage.MaxUploadSize,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		LoginLimiter:   hhttp.NewIPRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginBurst, clientIPs),
	})
}

// newIPExtractor keys rate limits on the peer address unless trusted proxies
// are configured.
func newIPExtractor(logger *slog.Logger, cfg config.HTTPConfig) (hhttp.IPExtractor, error) {
	if !cfg.TrustProxy {
		logger.Info("rate limiting: using RemoteAddr, proxy headers ignored")
		return hhttp.RemoteAddrExtractor{}, nil
	}
	proxies, err := hhttp.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	logger.Info("rate limiting: trusted proxy mode enabled", slog.Int("trusted_proxies_count", len(proxies)))
	return hhttp.NewTrustedProxyExtractor(hhttp.TrustedProxyConfig{Enabled: true, AllowedCIDRs: proxies}), nil
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}

// runServer serves until ctx is cancelled, then drains in-flight requests.
func runServer(ctx context.Context, logger *slog.Logger, cfg config.HTTPConfig, handler http.Handler) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Addr),
			slog.String("version", getVersion()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
