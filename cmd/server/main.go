package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/snaptab/snaptab/internal/backend"
	"github.com/snaptab/snaptab/internal/config"
	"github.com/snaptab/snaptab/internal/middleware"
	"github.com/snaptab/snaptab/internal/service"
	"github.com/snaptab/snaptab/internal/session"
	"github.com/snaptab/snaptab/internal/storage"
	"github.com/snaptab/snaptab/internal/storage/sqlite"
	"github.com/snaptab/snaptab/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	client := backend.New(cfg.APIURL)
	codec := session.NewCodec(cfg.SessionSecret)

	var sessions storage.SessionStore
	if cfg.SessionBackend == "sqlite" {
		store, err := sqlite.New(cfg.SessionDBPath)
		if err != nil {
			slog.Error("Failed to initialize session store", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		sessions = store
		slog.Info("Session store initialized", "database", cfg.SessionDBPath)
	}

	factory := &middleware.SessionFactory{
		Codec:    codec,
		Secure:   cfg.Production(),
		Sessions: sessions,
		Refresher: session.RefresherFunc(func(ctx context.Context, refreshToken string) (*session.TokenSet, error) {
			tokens, err := client.Refresh(ctx, refreshToken)
			if err != nil {
				return nil, err
			}
			return &session.TokenSet{
				AccessToken:  tokens.AccessToken,
				RefreshToken: tokens.RefreshToken,
				ExpiresIn:    tokens.ExpiresIn,
			}, nil
		}),
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := service.NewRouter(client, factory)

	addr := ":" + cfg.HTTPPort
	slog.Info("Server starting", "address", addr, "backend", cfg.APIURL)
	if err := router.Run(addr); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
