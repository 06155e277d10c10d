// Package gamesource loads recorded games from PGN files and exposes
// their header metadata.
package gamesource

import (
	"fmt"
	"io"
	"os"

	nchess "github.com/corentings/chess/v2"
)

// Load reads every game in a PGN file, in file order.
func Load(path string) ([]*nchess.Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pgn file: %w", err)
	}
	defer f.Close()

	games, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return games, nil
}

// Read parses a stream of PGN games. A malformed game aborts the read;
// partial decks from silently skipped games would be worse than a loud
// failure.
func Read(r io.Reader) ([]*nchess.Game, error) {
	scanner := nchess.NewScanner(r)
	var games []*nchess.Game
	for scanner.HasNext() {
		game, err := scanner.ParseNext()
		if err != nil {
			return nil, fmt.Errorf("parse game %d: %w", len(games)+1, err)
		}
		games = append(games, game)
	}
	return games, nil
}
