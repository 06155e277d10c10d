package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/blunderdeck/blunderdeck/internal/config"
	"github.com/blunderdeck/blunderdeck/internal/deckbuilder"
	"github.com/blunderdeck/blunderdeck/internal/obslog"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := obslog.Init(cfg.LogLevel, cfg.LogFormat)
	defer obslog.Sync()

	builder, err := deckbuilder.New(cfg, logger)
	if err != nil {
		logger.Fatal("builder init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path, err := builder.Run(ctx)
	if err != nil {
		logger.Error("analysis failed", zap.Error(err))
		obslog.Sync()
		os.Exit(1)
	}

	fmt.Printf("Anki deck saved to %s\n", path)
}

// parseFlags fills the default configuration from the command line and
// the optional tuning file. Bad flag syntax exits via the flag package.
func parseFlags(args []string) (*config.Config, error) {
	cfg := config.Default()

	fs := flag.NewFlagSet("blunderdeck", flag.ExitOnError)
	fs.StringVar(&cfg.EnginePath, "engine", cfg.EnginePath, "path to the UCI engine executable")
	fs.StringVar(&cfg.PGNPath, "pgn", cfg.PGNPath, "path to the PGN file containing the games")
	fs.StringVar(&cfg.Player, "player", cfg.Player, "player filter (white, black, white/black, winner, loser, or a player name)")
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "output file name for the Anki deck")
	fs.IntVar(&cfg.Threshold, "threshold", cfg.Threshold, "centipawn loss for a move to count as a blunder")
	fs.DurationVar(&cfg.EngineTime, "engine-time", cfg.EngineTime, "engine think time per move")
	fs.StringVar(&cfg.DeckName, "deck-name", cfg.DeckName, "name of the Anki deck")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (console or json)")
	configPath := fs.String("config", "", "optional YAML file with engine and annotation tuning")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		if err := cfg.ApplyFile(*configPath); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
