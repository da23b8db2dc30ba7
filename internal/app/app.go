// Package app wires configuration, storage backends and the HTTP router into
// a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/docvault/document-service/docs"
	"github.com/docvault/document-service/internal/api"
	"github.com/docvault/document-service/internal/core/ports"
	"github.com/docvault/document-service/internal/core/service"
	"github.com/docvault/document-service/internal/infrastructure/blob"
	"github.com/docvault/document-service/internal/infrastructure/config"
	"github.com/docvault/document-service/internal/infrastructure/db/memory"
	mongodb "github.com/docvault/document-service/internal/infrastructure/db/mongo"
	"github.com/docvault/document-service/internal/infrastructure/db/postgres"
	redisdb "github.com/docvault/document-service/internal/infrastructure/db/redis"
	"github.com/docvault/document-service/internal/infrastructure/http/handlers"
	"github.com/docvault/document-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// App is a fully wired DocVault server.
type App struct {
	cfg     *config.Config
	log     zerolog.Logger
	echo    *echo.Echo
	closers []func(context.Context) error
}

type repositories struct {
	users      ports.UserRepository
	categories ports.CategoryRepository
	documents  ports.DocumentRepository
}

// New connects every configured backend and builds the router. On error the
// connections opened so far are closed again.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	readiness := map[string]handlers.Checker{}

	repos, err := a.openStore(ctx, readiness)
	if err != nil {
		return nil, err
	}

	blobs, err := a.openBlobStore(ctx, readiness)
	if err != nil {
		return nil, err
	}

	var activity ports.ActivityRepository
	if cfg.Mongo.Enabled {
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)
		repo := mongodb.NewActivityRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		activity = repo
		readiness["mongo"] = mongodb.Ping(client)
		log.Info().Str("database", cfg.Mongo.Database).Msg("activity log enabled")
	}

	var revoker ports.TokenRevoker
	if cfg.Redis.Enabled {
		client, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		revoker = redisdb.NewTokenStore(client)
		readiness["redis"] = redisdb.Ping(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("token revocation enabled")
	}

	authService := service.NewAuthService(
		repos.users, blobs, revoker, cfg.JWTSecret, cfg.JWTTTL,
		logger.Component(log, "auth"),
	)
	categoryService := service.NewCategoryService(
		repos.categories, repos.documents,
		logger.Component(log, "categories"),
	)
	documentService := service.NewDocumentService(
		repos.documents, repos.categories, repos.users, blobs, activity, cfg.Upload.AllowedExtensions,
		logger.Component(log, "documents"),
	)

	if cfg.SeedDefaultCategories {
		if err := categoryService.SeedDefaults(ctx); err != nil {
			return nil, fmt.Errorf("seed categories: %w", err)
		}
	}

	docs.SwaggerInfo.BasePath = cfg.APIPrefix

	a.echo = api.NewRouter(api.Deps{
		Log:            logger.Component(log, "http"),
		Prefix:         cfg.APIPrefix,
		Auth:           authService,
		Categories:     categoryService,
		Documents:      documentService,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		Readiness:      readiness,
	})
	return a, nil
}

func (a *App) openStore(ctx context.Context, readiness map[string]handlers.Checker) (*repositories, error) {
	if a.cfg.Store.Driver == config.DriverMemory {
		a.log.Warn().Msg("using in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &repositories{users: store.Users(), categories: store.Categories(), documents: store.Documents()}, nil
	}

	db, err := postgres.Connect(ctx, postgres.Config{
		URL:          a.cfg.Store.DatabaseURL,
		MaxOpenConns: a.cfg.Store.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })

	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, err
	}
	readiness["postgres"] = db.PingContext
	a.log.Info().Msg("postgres connected and migrated")

	return &repositories{
		users:      postgres.NewUserRepository(db),
		categories: postgres.NewCategoryRepository(db),
		documents:  postgres.NewDocumentRepository(db),
	}, nil
}

func (a *App) openBlobStore(ctx context.Context, readiness map[string]handlers.Checker) (ports.BlobStore, error) {
	if a.cfg.Upload.Backend == config.BlobMinio {
		store, err := blob.NewMinioStore(ctx, blob.MinioConfig{
			Endpoint:  a.cfg.Minio.Endpoint,
			AccessKey: a.cfg.Minio.AccessKey,
			SecretKey: a.cfg.Minio.SecretKey,
			Bucket:    a.cfg.Minio.Bucket,
			UseSSL:    a.cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		readiness["minio"] = store.Ping
		a.log.Info().Str("bucket", a.cfg.Minio.Bucket).Msg("minio blob store ready")
		return store, nil
	}

	store, err := blob.NewDiskStore(a.cfg.Upload.Dir)
	if err != nil {
		return nil, err
	}
	a.log.Info().Str("dir", a.cfg.Upload.Dir).Msg("local blob store ready")
	return store, nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.echo
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	addr := ":" + a.cfg.Port
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Str("env", a.cfg.Env).Msg("http server starting")
		errCh <- a.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return a.Close(shutdownCtx)
}

// Close releases backend connections in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
