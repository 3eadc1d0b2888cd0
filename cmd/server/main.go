package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/gridrules/internal/config"
	"github.com/JonMunkholm/gridrules/internal/core"
	"github.com/JonMunkholm/gridrules/internal/ingest"
	"github.com/JonMunkholm/gridrules/internal/logging"
	"github.com/JonMunkholm/gridrules/internal/rulestore"
	"github.com/JonMunkholm/gridrules/internal/web"
	"github.com/JonMunkholm/gridrules/internal/workspace"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"rule_store", cfg.RuleSets.Store,
		"dataset_max_concurrent", cfg.Dataset.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open rule store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if cfg.RuleSets.SeedDemo {
		n, err := rulestore.SeedIfEmpty(ctx, store, rulestore.DemoRuleSet())
		if err != nil {
			slog.Error("failed to seed rule sets", "error", err)
			os.Exit(1)
		}
		if n > 0 {
			slog.Info("seeded demo rule set", "name", rulestore.DemoRuleSetName)
		}
	}

	ws := workspace.NewService(store, workspace.Options{
		Revalidator: core.Revalidator{
			Workers:   cfg.Dataset.RevalidateWorkers,
			BatchSize: cfg.Dataset.BatchSize,
		},
		Ingest: ingest.Options{
			InferNumbers: cfg.Dataset.InferNumbers,
			MaxRows:      cfg.Dataset.MaxRows,
			MaxBytes:     cfg.Dataset.MaxFileSize,
		},
		Limiter:        workspace.NewLimiter(cfg.Dataset.MaxConcurrent, cfg.Dataset.MaxWaitTime),
		DefaultRuleSet: cfg.RuleSets.Default,
	})

	server := web.NewServer(cfg, ws)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := ws.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for dataset loads to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// openStore builds the configured rule store, wrapped in a read cache.
// The returned func releases its resources.
func openStore(ctx context.Context, cfg *config.Config) (rulestore.Store, func(), error) {
	if !cfg.UsesPostgres() {
		mem, err := rulestore.NewMemoryStore()
		if err != nil {
			return nil, nil, err
		}
		return rulestore.NewCachedStore(mem, cfg.RuleSets.CacheTTL), func() {}, nil
	}

	if cfg.RuleSets.AutoMigrate {
		if err := rulestore.Migrate(cfg.Database.URL); err != nil {
			return nil, nil, err
		}
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	store := rulestore.NewPostgresStore(pool)
	return rulestore.NewCachedStore(store, cfg.RuleSets.CacheTTL), pool.Close, nil
}
