// Package blunder holds the detection core: it walks a game's mainline,
// evaluates each move against the engine's best alternative, and
// classifies the losses that clear the configured threshold.
package blunder

import (
	"context"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/blunderdeck/blunderdeck/internal/uci"
)

// Record marks one mainline move as a blunder.
type Record struct {
	// Ply is the 0-based index of the move in the game's mainline.
	Ply int
	// Delta is the mover-relative loss in centipawns. Negative means
	// the move scored worse than the engine's best choice.
	Delta int
}

// Evaluator produces engine analyses for positions. *uci.Session
// implements it; tests substitute a scripted fake.
type Evaluator interface {
	Analyze(ctx context.Context, req uci.AnalysisRequest) (uci.Analysis, error)
}

// mainlineUCI encodes the first ply moves of the game's mainline as
// lowercase UCI tokens, the form the engine replays after
// "position startpos moves".
func mainlineUCI(game *nchess.Game, ply int) []string {
	moves := game.Moves()
	positions := game.Positions()
	if ply > len(moves) {
		ply = len(moves)
	}
	uciNotation := nchess.UCINotation{}
	out := make([]string, 0, ply)
	for i := 0; i < ply && i < len(positions); i++ {
		out = append(out, strings.ToLower(uciNotation.Encode(positions[i], moves[i])))
	}
	return out
}
