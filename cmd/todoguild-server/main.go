package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sourcegraph/conc/pool"

	server "github.com/kazz187/todoguild/internal"
	"github.com/kazz187/todoguild/internal/attachment"
	"github.com/kazz187/todoguild/internal/auth"
	"github.com/kazz187/todoguild/internal/config"
	"github.com/kazz187/todoguild/internal/eventbus"
	"github.com/kazz187/todoguild/internal/extension"
	extensionrepo "github.com/kazz187/todoguild/internal/extension/repositoryimpl"
	"github.com/kazz187/todoguild/internal/todo"
	todorepo "github.com/kazz187/todoguild/internal/todo/repositoryimpl"
	"github.com/kazz187/todoguild/pkg/clog"
	"github.com/kazz187/todoguild/pkg/storage"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, env); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

type repositories struct {
	todos      todo.Repository
	extensions extension.Repository
	close      func()
}

func openBlobStorage(ctx context.Context, env *config.StorageEnv) (storage.Storage, error) {
	switch env.BlobStorageType() {
	case "s3":
		s, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:   env.S3Bucket,
			Prefix:   env.S3Prefix,
			Region:   env.S3Region,
			Endpoint: env.S3Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 storage: %w", err)
		}
		return s, nil
	default:
		s, err := storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create local storage: %w", err)
		}
		return s, nil
	}
}

// openRepositories keeps records next to the blobs unless postgres is
// selected.
func openRepositories(ctx context.Context, env *config.StorageEnv, blobs storage.Storage) (*repositories, error) {
	if env.Type != "postgres" {
		return &repositories{
			todos:      todorepo.NewYAMLRepository(blobs),
			extensions: extensionrepo.NewYAMLRepository(blobs),
			close:      func() {},
		}, nil
	}

	db, err := pgxpool.New(ctx, env.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	todos := todorepo.NewPgRepository(db)
	if err := todos.EnsureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	extensions := extensionrepo.NewPgRepository(db)
	if err := extensions.EnsureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &repositories{todos: todos, extensions: extensions, close: db.Close}, nil
}

func run(ctx context.Context, env *config.Env) error {
	blobs, err := openBlobStorage(ctx, &env.StorageEnv)
	if err != nil {
		return err
	}
	repos, err := openRepositories(ctx, &env.StorageEnv, blobs)
	if err != nil {
		return err
	}
	defer repos.close()

	// Setup event bus
	bus, err := eventbus.New(slog.Default())
	if err != nil {
		return err
	}
	bus.AddHandler("log", eventbus.LogHandler)
	bus.AddHandler("archive", eventbus.ArchiveHandler(blobs))

	// Setup servers
	locker := todo.NewLocker()
	srv := server.NewServer(
		env,
		auth.NewVerifier(env.JWTSecret, env.JWTIssuer),
		todo.NewServer(repos.todos, locker, bus),
		extension.NewServer(repos.extensions, repos.todos, locker, bus),
		attachment.NewHandler(repos.todos, attachment.NewStore(blobs)),
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		if err := bus.Run(ctx); err != nil {
			return fmt.Errorf("event bus: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		select {
		case <-bus.Running():
		case <-ctx.Done():
			return nil
		}
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		<-ctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		return bus.Close()
	})
	return p.Wait()
}
