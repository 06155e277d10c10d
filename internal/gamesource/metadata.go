package gamesource

import (
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

// Metadata is one game's header block, the tag set a lichess export
// carries. Absent tags stay empty strings.
type Metadata struct {
	Event           string
	Site            string
	Date            string
	White           string
	Black           string
	Result          string
	UTCDate         string
	UTCTime         string
	WhiteElo        string
	BlackElo        string
	WhiteRatingDiff string
	BlackRatingDiff string
	Variant         string
	TimeControl     string
	ECO             string
	Termination     string
}

// ExtractMetadata reads the header tags of a game. A missing ECO tag is
// backfilled from the opening book when the mainline reaches a known
// position.
func ExtractMetadata(game *nchess.Game) Metadata {
	m := Metadata{
		Event:           game.GetTagPair("Event"),
		Site:            game.GetTagPair("Site"),
		Date:            game.GetTagPair("Date"),
		White:           game.GetTagPair("White"),
		Black:           game.GetTagPair("Black"),
		Result:          game.GetTagPair("Result"),
		UTCDate:         game.GetTagPair("UTCDate"),
		UTCTime:         game.GetTagPair("UTCTime"),
		WhiteElo:        game.GetTagPair("WhiteElo"),
		BlackElo:        game.GetTagPair("BlackElo"),
		WhiteRatingDiff: game.GetTagPair("WhiteRatingDiff"),
		BlackRatingDiff: game.GetTagPair("BlackRatingDiff"),
		Variant:         game.GetTagPair("Variant"),
		TimeControl:     game.GetTagPair("TimeControl"),
		ECO:             game.GetTagPair("ECO"),
		Termination:     game.GetTagPair("Termination"),
	}
	if m.ECO == "" {
		m.ECO = OpeningECO(game)
	}
	return m
}

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

// OpeningECO classifies the game's mainline against the ECO book.
// Returns the empty string when no played position is in book.
func OpeningECO(game *nchess.Game) string {
	moves := game.Moves()
	if len(moves) == 0 {
		return ""
	}
	ecoOnce.Do(func() {
		ecoBook = opening.NewBookECO()
	})
	eco := ecoBook.Find(moves)
	if eco == nil {
		return ""
	}
	return eco.Code()
}
