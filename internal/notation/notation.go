// Package notation renders moves and evaluations as the human-readable
// text that ends up on cards and in logs.
package notation

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/blunderdeck/blunderdeck/internal/uci"
)

// SANLine joins SAN moves into a numbered line. startPly is the 0-based
// mainline index of the first move, so a line resuming mid-game numbers
// itself correctly: "19. f4" for a White move, "19... Rxc3" when the
// line opens with a Black move.
func SANLine(sans []string, startPly int) string {
	var sb strings.Builder
	for i, san := range sans {
		ply := startPly + i
		num := ply/2 + 1
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch {
		case ply%2 == 0:
			fmt.Fprintf(&sb, "%d. %s", num, san)
		case i == 0:
			fmt.Fprintf(&sb, "%d... %s", num, san)
		default:
			sb.WriteString(san)
		}
	}
	return sb.String()
}

// MainlineSAN renders the half-open move range [from, to) of a game's
// mainline as a numbered SAN line.
func MainlineSAN(game *nchess.Game, from, to int) string {
	moves := game.Moves()
	positions := game.Positions()
	if from < 0 {
		from = 0
	}
	if to > len(moves) {
		to = len(moves)
	}
	if from >= to {
		return ""
	}

	algebraic := nchess.AlgebraicNotation{}
	sans := make([]string, 0, to-from)
	for i := from; i < to && i < len(positions); i++ {
		sans = append(sans, algebraic.Encode(positions[i], moves[i]))
	}
	return SANLine(sans, from)
}

// ScoreString renders an engine score the way analysis sites do:
// centipawns as pawns from White's point of view, mates as
// "Mate in N for <side>". turn is the side the raw score belongs to.
func ScoreString(sc uci.Score, turn nchess.Color) string {
	if sc.IsMate {
		n := sc.Mate
		if n < 0 {
			n = -n
		}
		side := "Black"
		if (sc.Mate > 0) == (turn == nchess.White) {
			side = "White"
		}
		return fmt.Sprintf("Mate in %d for %s", n, side)
	}

	cp := sc.CP
	if turn == nchess.Black {
		cp = -cp
	}
	return fmt.Sprintf("%.2f", float64(cp)/100.0)
}
