// Package server assembles the FlowRev backend: it builds the logger, the
// storage backends, the services and the HTTP server from a Config, and runs
// them until a termination signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/flowrev/internal/logging"
	"github.com/dmitrijs2005/flowrev/internal/server/blobstore"
	"github.com/dmitrijs2005/flowrev/internal/server/cache"
	"github.com/dmitrijs2005/flowrev/internal/server/config"
	"github.com/dmitrijs2005/flowrev/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/flowrev/internal/server/rest"
	"github.com/dmitrijs2005/flowrev/internal/server/services"
)

// Seams for tests.
var (
	openPostgres = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
		return repomanager.OpenPostgres(ctx, dsn)
	}
	newS3Store = func(ctx context.Context, c blobstore.S3Config) (blobstore.Store, error) {
		return blobstore.NewS3Store(ctx, c)
	}
	newRedisClient = cache.NewRedisClient

	logOutput io.Writer = os.Stdout
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	board       *cache.BoardCache
	http        *rest.Server
}

// NewApp builds every component. On error, anything already opened is closed.
func NewApp(ctx context.Context, c *config.Config) (app *App, err error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, logOutput)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	rm, err := newRepositoryManager(ctx, c)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = rm.Close()
		}
	}()

	if err := rm.RunMigrations(ctx); err != nil {
		return nil, err
	}

	store, err := newBlobStore(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureReady(ctx); err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	var client *redis.Client
	if c.RedisURL != "" {
		client, err = newRedisClient(ctx, c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("cache init error: %w", err)
		}
	}
	board := cache.NewBoardCache(client, c.CacheTTL)

	cs := services.NewCardService(rm, board, logger)
	as := services.NewAttachmentService(rm, store, c.PublicBaseURL, logger)
	ms := services.NewCommentService(rm)

	srv := rest.NewServer(rest.Options{
		Address:         c.HTTPAddr,
		MaxUploadSize:   c.MaxUploadSize,
		ShutdownTimeout: c.ShutdownTimeout,
	}, logger, cs, as, ms)

	logger.Info(ctx, "app configured",
		"env", c.Env,
		"storage", c.StorageBackend,
		"attachments", c.AttachmentBackend,
		"cache", client != nil,
	)

	return &App{config: c, logger: logger, repomanager: rm, board: board, http: srv}, nil
}

func newRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.StorageBackend {
	case config.StorageMemory:
		return repomanager.NewInMemoryRepositoryManager(), nil
	case config.StoragePostgres:
		rm, err := openPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		return rm, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

func newBlobStore(ctx context.Context, c *config.Config) (blobstore.Store, error) {
	switch c.AttachmentBackend {
	case config.AttachmentsLocal:
		return blobstore.NewLocalStore(c.UploadDir), nil
	case config.AttachmentsS3:
		s, err := newS3Store(ctx, blobstore.S3Config{
			Endpoint:     c.S3BaseEndpoint,
			Region:       c.S3Region,
			Bucket:       c.S3Bucket,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			UsePathStyle: c.S3UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown attachment backend %q", c.AttachmentBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	stop := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-stop:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(stop)
	}
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives,
// then releases the database and cache connections.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	stop := app.initSignalHandler(cancelFunc)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	runErr := app.http.Run(ctx)
	if runErr != nil {
		app.logger.Error(ctx, "http server failed", "error", runErr)
	}

	closeErr := errors.Join(app.board.Close(), app.repomanager.Close())
	if closeErr != nil {
		app.logger.Error(ctx, "shutdown cleanup failed", "error", closeErr)
	}

	app.logger.Info(ctx, "App stopped")
	return errors.Join(runErr, closeErr)
}
