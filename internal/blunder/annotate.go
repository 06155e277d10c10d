package blunder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/blunderdeck/blunderdeck/internal/notation"
	"github.com/blunderdeck/blunderdeck/internal/uci"
)

// Annotator asks the engine for the line a player should have found and
// renders it as numbered SAN.
type Annotator struct {
	evaluator Evaluator
	logger    *zap.Logger
	depth     int
	maxPlies  int
}

// NewAnnotator validates the configuration and builds an annotator.
func NewAnnotator(evaluator Evaluator, depth, maxPlies int, logger *zap.Logger) (*Annotator, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if depth <= 0 {
		return nil, fmt.Errorf("annotation depth must be positive: %d", depth)
	}
	if maxPlies <= 0 {
		return nil, fmt.Errorf("annotation length must be positive: %d", maxPlies)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Annotator{
		evaluator: evaluator,
		logger:    logger,
		depth:     depth,
		maxPlies:  maxPlies,
	}, nil
}

// BestContinuation evaluates the position reached after the game's
// first ply moves and returns the engine's principal variation in
// numbered SAN. An unjudgeable position yields an empty line.
func (a *Annotator) BestContinuation(ctx context.Context, game *nchess.Game, ply int) (string, error) {
	moves := game.Moves()
	if ply < 0 || ply > len(moves) {
		return "", fmt.Errorf("ply %d out of range for %d-move game", ply, len(moves))
	}

	uciMoves := mainlineUCI(game, ply)
	analysis, err := a.evaluator.Analyze(ctx, uci.AnalysisRequest{
		FEN:    "startpos",
		Moves:  uciMoves,
		Limits: uci.Limits{Depth: a.depth},
	})
	if errors.Is(err, uci.ErrNoResult) {
		a.logger.Debug("no continuation for position", zap.Int("ply", ply))
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("evaluate continuation at ply %d: %w", ply, err)
	}

	pv := analysis.PV
	if len(pv) > a.maxPlies {
		pv = pv[:a.maxPlies]
	}

	replay := nchess.NewGame()
	for _, text := range uciMoves {
		mv, decodeErr := nchess.UCINotation{}.Decode(replay.Position(), text)
		if decodeErr != nil {
			return "", fmt.Errorf("replay move %q: %w", text, decodeErr)
		}
		if moveErr := replay.Move(mv, nil); moveErr != nil {
			return "", fmt.Errorf("replay move %q: %w", text, moveErr)
		}
	}

	sans := make([]string, 0, len(pv))
	for _, text := range pv {
		text = strings.TrimSpace(text)
		pos := replay.Position()
		mv, decodeErr := nchess.UCINotation{}.Decode(pos, text)
		if decodeErr != nil {
			a.logger.Warn("engine recommended an unplayable move",
				zap.String("move", text), zap.Int("ply", ply))
			break
		}
		if moveErr := replay.Move(mv, nil); moveErr != nil {
			a.logger.Warn("engine recommended an unplayable move",
				zap.String("move", text), zap.Int("ply", ply))
			break
		}
		sans = append(sans, nchess.AlgebraicNotation{}.Encode(pos, mv))
	}
	return notation.SANLine(sans, ply), nil
}
