package blunder

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/blunderdeck/blunderdeck/internal/uci"
)

const (
	// mateScore is the centipawn magnitude a mate collapses to before
	// distance scaling. Far above any finite evaluation.
	mateScore = 10000
	// mateStep is subtracted per move of mate distance so nearer mates
	// order above farther ones.
	mateStep = 100
)

// NormalizeScore converts a raw engine score, reported from the
// perspective of the side to move, into a White-positive centipawn
// value. Mate in N maps to ±(10000 − 100·N), keeping any mate above
// any finite swing while preserving distance ordering.
func NormalizeScore(sc uci.Score, turn nchess.Color) int {
	v := sc.CP
	if sc.IsMate {
		n := sc.Mate
		negative := n < 0
		if negative {
			n = -n
		}
		v = mateScore - mateStep*n
		if v < 0 {
			v = 0
		}
		if negative {
			v = -v
		}
	}
	if turn == nchess.Black {
		v = -v
	}
	return v
}
