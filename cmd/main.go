package main

import (
	"context"

	"github.com/Kyz7/dashboard/internal/cache"
	"github.com/Kyz7/dashboard/internal/config"
	"github.com/Kyz7/dashboard/internal/database"
	"github.com/Kyz7/dashboard/internal/logger"
	"github.com/Kyz7/dashboard/internal/role"
	"github.com/Kyz7/dashboard/internal/server"
	"github.com/Kyz7/dashboard/internal/storage"
	"github.com/Kyz7/dashboard/internal/utils"
)

func main() {
	cfg := config.Load()

	if err := logger.Initialize(cfg); err != nil {
		logger.Log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := utils.ValidateJWTSecret(cfg.JWTSecret); err != nil {
		logger.Log.Fatalf("JWT configuration error: %v", err)
	}
	utils.SetJWTSecret(cfg.JWTSecret)
	logger.Log.Info("JWT secret validated")

	// ========== DATABASE SETUP ==========
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatalf("Database connection failed: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatalf("Migration failed: %v", err)
	}

	if err := database.RunMigrations(db, "migrations"); err != nil {
		logger.Log.WithError(err).Warn("SQL migrations failed, listing queries may run without indexes")
	} else {
		logger.Log.Info("SQL migrations completed")
	}

	ctx := context.Background()

	// ========== SEED DEFAULT DATA ==========
	if err := role.SeedDefaultRoles(ctx, db); err != nil {
		logger.Log.WithError(err).Warn("Failed to seed default roles")
	} else {
		logger.Log.Info("Default roles seeded")
	}

	// ========== CACHE & STORAGE ==========
	listCache := cache.New(ctx, cfg)

	store, err := storage.New(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize storage: %v", err)
	}
	logger.Log.WithField("mode", store.Mode()).Info("Storage initialized")

	// ========== START SERVER ==========
	app := server.New(server.Deps{
		DB:       db,
		Cache:    listCache,
		CacheTTL: cfg.CacheTTL,
		Storage:  store,
	})

	logger.Log.WithField("addr", cfg.ServerAddr).Info("Dashboard server starting")
	if err := app.Listen(cfg.ServerAddr); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
