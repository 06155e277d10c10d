package blunder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/blunderdeck/blunderdeck/internal/gamesource"
	"github.com/blunderdeck/blunderdeck/internal/notation"
	"github.com/blunderdeck/blunderdeck/internal/uci"
)

// sanityBandCP caps the post-move evaluation magnitude a recorded
// blunder may have. Positions already decided beyond this are not
// interesting study material.
const sanityBandCP = 2500

// DetectorConfig tunes one detection run.
type DetectorConfig struct {
	Filter    Filter
	Threshold int
	MoveTime  time.Duration
}

// Detector finds blunders in a game's mainline. One Detector serves one
// engine session; calls are strictly sequential.
type Detector struct {
	evaluator Evaluator
	logger    *zap.Logger
	filter    Filter
	threshold int
	moveTime  time.Duration
}

// NewDetector validates the configuration and builds a detector.
func NewDetector(evaluator Evaluator, cfg DetectorConfig, logger *zap.Logger) (*Detector, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if cfg.Threshold < 0 {
		return nil, fmt.Errorf("threshold cannot be negative: %d", cfg.Threshold)
	}
	if cfg.MoveTime <= 0 {
		return nil, fmt.Errorf("move time must be positive: %s", cfg.MoveTime)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		evaluator: evaluator,
		logger:    logger,
		filter:    cfg.Filter,
		threshold: cfg.Threshold,
		moveTime:  cfg.MoveTime,
	}, nil
}

// Detect walks the mainline and returns the recorded blunders in move
// order. A position the engine cannot judge is skipped, never flagged.
func (d *Detector) Detect(ctx context.Context, game *nchess.Game, meta gamesource.Metadata) ([]Record, error) {
	moves := game.Moves()
	positions := game.Positions()
	if len(moves) == 0 {
		return nil, nil
	}

	uciMoves := mainlineUCI(game, len(moves))
	limits := uci.Limits{MoveTimeMillis: int(d.moveTime / time.Millisecond)}

	var records []Record
	for i := range moves {
		if i+1 >= len(positions) {
			break
		}
		mover := positions[i].Turn()
		moverText := strings.ToLower(mover.String())

		pre, err := d.evaluator.Analyze(ctx, uci.AnalysisRequest{
			FEN:    "startpos",
			Moves:  uciMoves[:i],
			Limits: limits,
		})
		if errors.Is(err, uci.ErrNoResult) {
			d.logger.Debug("no verdict for position before move, skipping",
				zap.Int("ply", i), zap.String("move", uciMoves[i]))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("evaluate position before move %d: %w", i, err)
		}

		post, err := d.evaluator.Analyze(ctx, uci.AnalysisRequest{
			FEN:    "startpos",
			Moves:  uciMoves[:i+1],
			Limits: limits,
		})
		if errors.Is(err, uci.ErrNoResult) {
			d.logger.Debug("no verdict for position after move, skipping",
				zap.Int("ply", i), zap.String("move", uciMoves[i]))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("evaluate position after move %d: %w", i, err)
		}

		best := NormalizeScore(pre.Score, mover)
		actual := NormalizeScore(post.Score, positions[i+1].Turn())

		delta := actual - best
		if mover == nchess.Black {
			delta = best - actual
		}

		d.logger.Debug("move evaluated",
			zap.Int("ply", i),
			zap.Int("moveNumber", i/2+1),
			zap.String("side", moverText),
			zap.String("move", uciMoves[i]),
			zap.String("best", notation.ScoreString(pre.Score, mover)),
			zap.String("actual", notation.ScoreString(post.Score, positions[i+1].Turn())),
			zap.Int("delta", delta))

		if delta > -d.threshold {
			continue
		}
		if actual > sanityBandCP || actual < -sanityBandCP {
			d.logger.Debug("evaluation outside sanity band, skipping",
				zap.Int("ply", i), zap.Int("score", actual))
			continue
		}
		if !d.filter.allows(mover, meta) {
			continue
		}

		d.logger.Info("blunder detected",
			zap.Int("moveNumber", i/2+1),
			zap.Int("ply", i),
			zap.String("side", moverText),
			zap.String("move", uciMoves[i]),
			zap.Int("delta", delta))
		records = append(records, Record{Ply: i, Delta: delta})
	}
	return records, nil
}
