package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"todoboard-backend/internal/analytics"
	"todoboard-backend/internal/auth"
	"todoboard-backend/internal/config"
	"todoboard-backend/internal/server"
	"todoboard-backend/internal/storage"
	"todoboard-backend/internal/tasks"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := config.LoadDotenv(".env"); err != nil {
		slog.Warn("read .env failed", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if cfg.JWTSecret == "SUPER_SECRET_KEY_CHANGE_ME" {
		slog.Warn("using the default JWT secret, set JWT_SECRET")
	}

	kv, closeKV, err := storage.Open(cfg)
	if err != nil {
		slog.Error("open storage failed", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	slog.Info("storage ready", "driver", cfg.StorageDriver)

	srv := server.NewServer(cfg.HTTPAddr, cfg.CORSOrigins, server.Deps{
		Boards:   tasks.NewRegistry(kv, tasks.WithLogger(logger)),
		Users:    auth.NewUsers(kv),
		Issuer:   auth.Issuer{Secret: []byte(cfg.JWTSecret), TTL: cfg.TokenTTL},
		Recorder: analytics.NewRecorder(512, logger),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				slog.Info("shutting down http server")
				// storage closes only after in-flight requests are done
				return errors.Join(srv.Shutdown(ctx), closeKV())
			},
		},
	)

	exitCode := <-wait
	slog.Info("exited", "code", exitCode)
	os.Exit(exitCode)
}
