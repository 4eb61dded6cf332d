package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/cpucompare/internal/catalog"
	"github.com/JonMunkholm/cpucompare/internal/config"
	"github.com/JonMunkholm/cpucompare/internal/core"
	"github.com/JonMunkholm/cpucompare/internal/logging"
	"github.com/JonMunkholm/cpucompare/internal/metrics"
	"github.com/JonMunkholm/cpucompare/internal/session"
	"github.com/JonMunkholm/cpucompare/internal/web"
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
	slog.Debug("effective configuration", "config", cfg.String())

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_selected", cfg.Compare.MaxSelected,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	policy, err := core.LoadColumnPolicyFile(cfg.Catalog.ColumnsFile)
	if err != nil {
		slog.Error("failed to load column policy", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	holder := core.NewCatalogHolder()
	store := catalog.NewStore(catalog.Source{
		Location: cfg.Catalog.Source,
		MaxSize:  cfg.Catalog.MaxSize,
		Timeout:  cfg.Catalog.FetchTimeout,
	}, holder, catalog.WithMetrics(m), catalog.WithLogger(slog.Default()))

	// A missing catalog is not fatal: the page shows the error and the
	// catalog can be reloaded once the source is fixed.
	if _, err := store.Load(context.Background()); err != nil {
		slog.Warn("starting without a catalog", "code", core.MapError(err).Code)
	}

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	if cfg.Catalog.Watch {
		go func() {
			if err := store.Watch(jobCtx, catalog.DefaultDebounce); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("catalog watcher stopped", "error", err)
			}
		}()
	}
	if cfg.Catalog.ReloadInterval > 0 {
		go store.Refresh(jobCtx, cfg.Catalog.ReloadInterval)
	}

	sessions := session.NewManager(func() *core.Controller {
		return core.NewController(holder, core.Options{
			MaxSelected: cfg.Compare.MaxSelected,
			SearchLimit: cfg.Compare.SearchLimit,
			Policy:      policy,
		})
	}, session.Options{
		CookieName:  cfg.Session.CookieName,
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
		Secure:      cfg.Session.Secure,
		Metrics:     m,
	})
	go sessions.Run(jobCtx)

	server := web.NewServer(store, sessions, m, web.Options{
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
		TrustedProxies: cfg.Security.TrustedProxies,
		EnableCSP:      cfg.Security.EnableCSP,
		RateLimit: web.RateLimitOptions{
			Enabled:           cfg.Rate.Enabled,
			RequestsPerMinute: cfg.Rate.RequestsPerMinute,
			Burst:             cfg.Rate.Burst,
			ReloadPerMinute:   cfg.Rate.ReloadPerMinute,
		},
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
