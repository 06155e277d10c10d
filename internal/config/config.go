package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries everything the deck builder needs. Flag values land
// here directly; an optional YAML file overlays the engine and
// annotation tuning that has no flag.
type Config struct {
	EnginePath string
	PGNPath    string
	Player     string
	OutputPath string
	DeckName   string

	Threshold  int
	EngineTime time.Duration

	LogLevel  string
	LogFormat string

	Engine     EngineConfig
	Annotation AnnotationConfig
}

// EngineConfig holds UCI options applied after the handshake.
type EngineConfig struct {
	Threads int `yaml:"threads"`
	HashMB  int `yaml:"hash_mb"`
	MultiPV int `yaml:"multipv"`
}

// AnnotationConfig tunes the best-continuation search shown on the
// answer side of each card.
type AnnotationConfig struct {
	Depth    int `yaml:"depth"`
	MaxPlies int `yaml:"max_plies"`
}

// Default returns the configuration used when no flag or file overrides
// a value.
func Default() *Config {
	return &Config{
		EnginePath: "/usr/games/stockfish",
		PGNPath:    "sample.pgn",
		Player:     "white/black",
		DeckName:   "Chess Blunders",
		Threshold:  200,
		EngineTime: 200 * time.Millisecond,
		LogLevel:   "info",
		LogFormat:  "console",
		Engine: EngineConfig{
			Threads: 1,
			HashMB:  16,
			MultiPV: 1,
		},
		Annotation: AnnotationConfig{
			Depth:    20,
			MaxPlies: 5,
		},
	}
}

type fileConfig struct {
	Engine     EngineConfig     `yaml:"engine"`
	Annotation AnnotationConfig `yaml:"annotation"`
}

// ApplyFile overlays tuning from a YAML file. Zero values in the file
// leave the current settings untouched.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if fc.Engine.Threads > 0 {
		c.Engine.Threads = fc.Engine.Threads
	}
	if fc.Engine.HashMB > 0 {
		c.Engine.HashMB = fc.Engine.HashMB
	}
	if fc.Engine.MultiPV > 0 {
		c.Engine.MultiPV = fc.Engine.MultiPV
	}
	if fc.Annotation.Depth > 0 {
		c.Annotation.Depth = fc.Annotation.Depth
	}
	if fc.Annotation.MaxPlies > 0 {
		c.Annotation.MaxPlies = fc.Annotation.MaxPlies
	}
	return nil
}

// Validate checks the preconditions for a run. Order matters and is
// observable through the first error reported: engine path, threshold,
// then input file.
func (c *Config) Validate() error {
	if !fileExists(c.EnginePath) {
		return fmt.Errorf("engine path does not exist: %s", c.EnginePath)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("blunder threshold cannot be negative: %d", c.Threshold)
	}
	if !fileExists(c.PGNPath) {
		return fmt.Errorf("PGN file does not exist: %s", c.PGNPath)
	}
	if c.EngineTime <= 0 {
		return fmt.Errorf("engine time must be positive: %s", c.EngineTime)
	}
	if strings.TrimSpace(c.DeckName) == "" {
		return fmt.Errorf("deck name cannot be empty")
	}
	return nil
}

func fileExists(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
