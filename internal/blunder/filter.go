package blunder

import (
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/blunderdeck/blunderdeck/internal/gamesource"
)

// Filter selects whose blunders get recorded.
type Filter struct {
	mode filterMode
	name string
}

type filterMode int

const (
	filterBoth filterMode = iota
	filterWhite
	filterBlack
	filterWinner
	filterLoser
	filterName
)

// ParseFilter interprets the player flag: white, black, white/black,
// winner, loser, or anything else as an exact player name.
func ParseFilter(s string) Filter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "white/black":
		return Filter{mode: filterBoth}
	case "white":
		return Filter{mode: filterWhite}
	case "black":
		return Filter{mode: filterBlack}
	case "winner":
		return Filter{mode: filterWinner}
	case "loser":
		return Filter{mode: filterLoser}
	default:
		return Filter{mode: filterName, name: strings.TrimSpace(s)}
	}
}

func (f Filter) String() string {
	switch f.mode {
	case filterWhite:
		return "white"
	case filterBlack:
		return "black"
	case filterWinner:
		return "winner"
	case filterLoser:
		return "loser"
	case filterName:
		return "player:" + f.name
	default:
		return "white/black"
	}
}

// allows reports whether a blunder by mover should be recorded for the
// game described by meta. The winner mode keeps blunders that benefit
// the winner, so the mover must be on the losing side; loser is the
// mirror. Name matching is against the mover's own header name only.
func (f Filter) allows(mover nchess.Color, meta gamesource.Metadata) bool {
	switch f.mode {
	case filterWhite:
		return mover == nchess.White
	case filterBlack:
		return mover == nchess.Black
	case filterWinner:
		return mover == decisiveLoser(meta.Result)
	case filterLoser:
		return mover == decisiveWinner(meta.Result)
	case filterName:
		moverName := meta.White
		if mover == nchess.Black {
			moverName = meta.Black
		}
		return strings.EqualFold(f.name, strings.TrimSpace(moverName))
	default:
		return true
	}
}

// decisiveWinner maps a result tag to the winning color, NoColor for
// draws and unfinished games.
func decisiveWinner(result string) nchess.Color {
	switch strings.TrimSpace(result) {
	case "1-0":
		return nchess.White
	case "0-1":
		return nchess.Black
	default:
		return nchess.NoColor
	}
}

func decisiveLoser(result string) nchess.Color {
	switch strings.TrimSpace(result) {
	case "1-0":
		return nchess.Black
	case "0-1":
		return nchess.White
	default:
		return nchess.NoColor
	}
}
