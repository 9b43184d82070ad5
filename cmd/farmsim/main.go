// Command farmsim runs the creature farm: a turn-based idle game played from
// the terminal, over HTTP, or both.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/talgya/creature-farm/internal/api"
	"github.com/talgya/creature-farm/internal/catalog"
	"github.com/talgya/creature-farm/internal/config"
	"github.com/talgya/creature-farm/internal/engine"
	"github.com/talgya/creature-farm/internal/entropy"
	"github.com/talgya/creature-farm/internal/persistence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}
	level, _ := cfg.SlogLevel()

	// The REPL owns stdout, so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("creature farm starting", "catalog", cfg.CatalogPath, "db", cfg.DatabasePath, "api_port", cfg.APIPort)

	// ── Catalog ──────────────────────────────────────────────────────
	archetypes, err := catalog.LoadCreatures(cfg.CatalogPath)
	if err != nil {
		// Play cannot continue on a broken catalog.
		slog.Error("catalog unavailable", "error", err)
		fmt.Fprintf(os.Stderr, "\nCannot start: %v\nFix the catalog file (FARMSIM_CATALOG) and try again.\n", err)
		os.Exit(1)
	}
	facilities, err := catalog.DefaultFacilities()
	if err != nil {
		slog.Error("facility table invalid", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded", "archetypes", len(archetypes), "facilities", len(facilities.All()))

	rng := entropy.New(cfg.Seed, cfg.RandomOrgKey)
	rules := cfg.Rules()

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.DatabasePath != "" {
		db, err = openDatabase(cfg.DatabasePath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.DatabasePath)
	}

	// ── Load or Start Game ────────────────────────────────────────────
	var game *engine.Game
	if db != nil && db.HasGame() {
		slog.Info("found saved game, loading...")
		snap, err := db.LoadGame()
		if err != nil {
			slog.Error("failed to load game", "error", err)
			os.Exit(1)
		}
		game, err = engine.RestoreGame(snap, archetypes, facilities, rules, rng)
		if err != nil {
			slog.Error("saved game does not match catalog", "error", err)
			os.Exit(1)
		}
	} else {
		game = engine.NewGame(archetypes, facilities, rules, rng, cfg.Starter)
		if db != nil {
			if err := db.SaveGame(game.Snapshot()); err != nil {
				slog.Error("initial save failed", "error", err)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Auto-advance ─────────────────────────────────────────────────
	var ticker *engine.Ticker
	tickerErr := make(chan error, 1)
	if cfg.AutoAdvance > 0 {
		ticker = engine.ForGame(game, cfg.AutoAdvance)
		go func() { tickerErr <- ticker.Run(ctx) }()
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.APIPort > 0 {
		if cfg.AdminKey == "" {
			slog.Warn("FARMSIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		apiServer := &api.Server{
			Game:        game,
			Ticker:      ticker,
			DB:          db,
			Port:        cfg.APIPort,
			AdminKey:    cfg.AdminKey,
			CORSOrigins: cfg.CORSOrigins,
		}
		apiServer.Start()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	}

	// ── Start ─────────────────────────────────────────────────────────
	replDone := make(chan struct{})
	if cfg.Interactive {
		r := newREPL(game, db, os.Stdout)
		go func() {
			defer close(replDone)
			r.run(os.Stdin)
		}()
	} else {
		fmt.Println("Running headless... (Ctrl+C to stop)")
	}

	exitCode := 0
	select {
	case <-ctx.Done():
		slog.Info("received signal, shutting down")
	case <-replDone:
	case err := <-tickerErr:
		if err != nil {
			slog.Error("auto-advance stopped on integrity violation", "error", err)
			exitCode = 1
		}
	}
	stop()

	// Final save on shutdown.
	if db != nil {
		slog.Info("final save...")
		if err := db.SaveGame(game.Snapshot()); err != nil {
			slog.Error("final save failed", "error", err)
			exitCode = 1
		}
	}

	fmt.Println("Farm closed.")
	if exitCode != 0 {
		if db != nil {
			db.Close()
		}
		os.Exit(exitCode)
	}
}

// openDatabase creates the save file's directory if needed and opens it.
func openDatabase(path string) (*persistence.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}
	return persistence.Open(path)
}
