package deckbuilder

import (
	"github.com/blunderdeck/blunderdeck/internal/anki"
)

// modelFields is part of the model contract: Anki keys note columns by
// position, so the order must never change once decks are in the wild.
var modelFields = []anki.Field{
	{Name: "PuzzleID"},
	{Name: "PGN"},
	{Name: "PGNContinuation"},
	{Name: "Moves"},
	{Name: "White"},
	{Name: "Black"},
	{Name: "Result"},
	{Name: "Date"},
	{Name: "Site"},
	{Name: "Event"},
	{Name: "WhiteElo"},
	{Name: "BlackElo"},
	{Name: "WhiteRatingDiff"},
	{Name: "BlackRatingDiff"},
	{Name: "Variant"},
	{Name: "TimeControl"},
	{Name: "ECO"},
	{Name: "Termination"},
	{Name: "Board"},
}

// The question side loads the pre-blunder position into an embedded
// lichess analysis board. chess.js converts the PGN field to a FEN at
// review time, so the card stays small and the board stays interactive.
// The rendered Board image sits underneath for offline review.
const questionTemplate = `<h1>{{PuzzleID}}</h1>

<div class="ifra" style="height: 100vw; padding-bottom: 50px; overflow: hidden">
<iframe id="iframe" src="https://lichess.org/analysis" allowtransparency="true" frameborder="0" scrolling="no" style="position: relative; top: -60px"></iframe>
</div>

<div class="board">{{Board}}</div>

<script src="https://cdnjs.cloudflare.com/ajax/libs/chess.js/0.10.3/chess.min.js"></script>
<script>
function createURL() {
    const pgn = '{{PGN}}'.toString();
    const chess = new Chess();
    chess.load_pgn(pgn);
    const fen = chess.fen();
    const fenurl = fen.replaceAll(' ', '%20');
    const lichessurl = "https://lichess.org/analysis/";
    document.getElementById("iframe").src = lichessurl.concat(fenurl);
}

createURL()
</script>`

const answerTemplate = `<h1>{{PuzzleID}} - Best next moves {{Moves}}</h1>
<h2>Game continuation...  {{PGNContinuation}}</h2>

<div class="ifr" style="height: 1800px; overflow: hidden">
<iframe id="iframe" src="https://lichess.org/analysis" allowtransparency="true" frameborder="0" scrolling="no" style="position: relative; top: -60px"></iframe>
</div>

<script src="https://cdnjs.cloudflare.com/ajax/libs/chess.js/0.10.3/chess.min.js"></script>
<script>
function createURL() {
    const pgn = '{{PGN}}'.toString();
    const chess = new Chess();
    chess.load_pgn(pgn);
    const fen = chess.fen();
    const fenurl = fen.replaceAll(' ', '%20');
    const lichessurl = "https://lichess.org/analysis/";
    document.getElementById("iframe").src = lichessurl.concat(fenurl);
}

createURL()
</script>`

const cardCSS = `.card {
    margin: 0px;
    font-size: 32px;
    font-size: 8.1vw;
    text-align: center;
    color: black;
}
.board img {
    width: 100%;
    max-width: 600px;
}
.ifr iframe {
    width: 100%;
    max-width: 600px;
    height: 1800px;
}
.ifra iframe {
    width: 100%;
    max-width: 600px;
    max-height: 725px;
    height: 1800px;
}
h1 {
    font-size: 14px;
}
h2 {
    font-size: 10px;
}`

// NewModel builds the note model shared by every card of a run.
func NewModel(id int64) *anki.Model {
	return &anki.Model{
		ID:     id,
		Name:   "Chess Blunder Model",
		Fields: append([]anki.Field(nil), modelFields...),
		Templates: []anki.Template{{
			Name: "Chess Blunder Card",
			Qfmt: questionTemplate,
			Afmt: answerTemplate,
		}},
		CSS: cardCSS,
	}
}
