package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/patchme-dev/patchme/internal/api"
	"github.com/patchme-dev/patchme/internal/config"
	"github.com/patchme-dev/patchme/internal/ingest"
	"github.com/patchme-dev/patchme/internal/ratelimit"
	"github.com/patchme-dev/patchme/internal/store"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

// @title PatchMe API
// @version 1.0
// @description Software version tracking dashboard API
// @host localhost:3800
// @BasePath /

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// buildInfo returns version, commit, build time, and VCS details from the
// embedded Go build info. ldflags-injected values take priority; VCS info
// from debug.ReadBuildInfo fills in anything left as default.
func buildInfo() (ver, sha, built, dirty string) {
	ver = version
	sha = commit
	built = buildTime
	dirty = "clean"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if sha == "none" {
				sha = s.Value
			}
		case "vcs.time":
			if built == "unknown" {
				built = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" {
				dirty = "dirty"
			}
		}
	}

	return
}

func main() {
	configPath := flag.String("config", "", "path to patchme.yml config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	ver, sha, built, dirty := buildInfo()

	if *showVersion {
		fmt.Printf("patchme %s\n  commit:    %s (%s)\n  built:     %s\n  go:        %s\n  platform:  %s/%s\n",
			ver, sha, dirty, built, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, config.ErrConfigFileNotFound) {
			fmt.Fprintf(os.Stderr, "error: %s\n\n", err)
			fmt.Fprintf(os.Stderr, "Copy the example config to get started:\n")
			fmt.Fprintf(os.Stderr, "  cp patchme.example.yml %s\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "error: loading config (%s): %s\n", *configPath, err)
		}
		os.Exit(1)
	}

	// Configure logging
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("starting patchme",
		"version", ver,
		"commit", sha,
		"built", built,
		"dirty", dirty,
		"go", runtime.Version(),
		"listen", cfg.Listen,
	)

	// Initialize store
	st, err := store.New(cfg.DBPath)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Setup context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Seed the admin account on first run
	if err := seedAdmin(ctx, st, cfg.Admin); err != nil {
		slog.Error("seeding admin account", "error", err)
		os.Exit(1)
	}

	g, ctx := errgroup.WithContext(ctx)

	// Start rate limiter sweep loop
	limiter := ratelimit.New(ratelimit.Config{
		Window:        cfg.RateLimit.Window.Duration,
		Limit:         cfg.RateLimit.Limit,
		SweepInterval: cfg.RateLimit.SweepInterval.Duration,
	})
	g.Go(func() error { return limiter.Run(ctx) })

	// Start pruner
	pruner := store.NewPruner(st, cfg.ActivityLogKeep)
	g.Go(func() error { return pruner.Run(ctx) })

	// Start HTTP server
	pipeline := ingest.New(st, st, ingest.Config{
		MaxRetries:     cfg.Ingest.MaxRetries,
		RetryBaseDelay: cfg.Ingest.RetryBaseDelay.Duration,
		TxTimeout:      cfg.Ingest.TxTimeout.Duration,
	})
	server := api.NewServer(cfg.Listen, st, limiter, pipeline, cfg.Ingest.MaxBodyBytes)
	g.Go(func() error { return server.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("shutdown with error", "error", err)
		os.Exit(1)
	}

	slog.Info("goodbye")
}

// seedAdmin creates the configured admin account when no users exist yet.
func seedAdmin(ctx context.Context, st *store.Store, admin config.AdminConfig) error {
	n, err := st.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if admin.Email == "" || admin.Password == "" {
		slog.Warn("no users exist and no admin account configured, dashboard login is impossible")
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	name := admin.Name
	if name == "" {
		name = "Admin"
	}
	user, err := st.CreateUser(ctx, name, admin.Email, string(hash), "admin")
	if err != nil {
		return err
	}
	slog.Info("seeded admin account", "email", user.Email)
	return nil
}
