package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/kbrakke/illustrated-primer/internal/ai"
	"github.com/kbrakke/illustrated-primer/internal/config"
	"github.com/kbrakke/illustrated-primer/internal/database"
	"github.com/kbrakke/illustrated-primer/internal/database/repository"
	"github.com/kbrakke/illustrated-primer/internal/tui"
)

func main() {
	var (
		migrationsPath = flag.String("migrations", "internal/database/migrations", "path to migration files")
		seed           = flag.Bool("seed", true, "seed a demo user into an empty database")
		debug          = flag.Bool("debug", false, "log at debug level")
	)
	flag.Parse()

	// optional; real env always wins
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, closeLog, err := newLogger(cfg, *debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}

	if err := database.RunMigrations(cfg.Database.Path, *migrationsPath); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if *seed {
		if err := database.SeedDefaults(ctx, db); err != nil {
			log.Fatalf("seed defaults: %v", err)
		}
	}

	apiKey := cfg.ResolveAPIKey()
	if apiKey == "" {
		log.Fatalf("no API key: set %s or openai.api_key in the config file", cfg.OpenAI.APIKeyEnv)
	}

	client := ai.NewClient(apiKey,
		ai.WithModel(cfg.OpenAI.Model),
		ai.WithMaxTokens(cfg.OpenAI.MaxTokens),
		ai.WithOrgID(cfg.OpenAI.OrgID),
		ai.WithLogger(logger),
	)

	store := repository.NewStore(db)

	logger.Info("starting", "db", cfg.Database.Path, "model", cfg.OpenAI.Model, "stream", cfg.OpenAI.Stream)

	p := tea.NewProgram(tui.New(ctx, cfg, store, client, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes structured logs to a timestamped file so log lines never
// fight the terminal UI for the screen.
func newLogger(cfg config.Config, debug bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debug || cfg.Log.Level == "debug" {
		level = slog.LevelDebug
	}

	if err := os.MkdirAll(cfg.Log.Dir, 0o755); err != nil {
		return nil, nil, err
	}
	name := filepath.Join(cfg.Log.Dir, fmt.Sprintf("primer-%s.log", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = f
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger, func() { f.Close() }, nil
}
