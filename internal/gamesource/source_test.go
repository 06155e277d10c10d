package gamesource

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const lichessExportPGN = `[Event "Rated blitz game"]
[Site "https://lichess.org/abcd1234"]
[Date "2024.01.27"]
[White "PlayerA"]
[Black "PlayerB"]
[Result "1-0"]
[UTCDate "2024.01.27"]
[UTCTime "18:04:12"]
[WhiteElo "1874"]
[BlackElo "1859"]
[WhiteRatingDiff "+8"]
[BlackRatingDiff "-7"]
[Variant "Standard"]
[TimeControl "300+0"]
[ECO "B01"]
[Termination "Normal"]

1. e4 d5 2. exd5 Qxd5 3. Nc3 1-0

[Event "Casual game"]
[Site "?"]
[Date "2024.02.01"]
[White "PlayerC"]
[Black "PlayerD"]
[Result "*"]

*
`

func writePGN(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "games.pgn")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write pgn: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	games, err := Load(writePGN(t, lichessExportPGN))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("got %d games, want 2", len(games))
	}
	if n := len(games[0].Moves()); n != 5 {
		t.Errorf("first game has %d moves, want 5", n)
	}
	if n := len(games[1].Moves()); n != 0 {
		t.Errorf("second game has %d moves, want 0", n)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.pgn")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadEmptyInput(t *testing.T) {
	games, err := Read(strings.NewReader(""))
	if err != nil {
		t.Fatalf("read empty input: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("got %d games from empty input, want 0", len(games))
	}
}

func TestExtractMetadata(t *testing.T) {
	games, err := Read(strings.NewReader(lichessExportPGN))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	m := ExtractMetadata(games[0])
	want := Metadata{
		Event:           "Rated blitz game",
		Site:            "https://lichess.org/abcd1234",
		Date:            "2024.01.27",
		White:           "PlayerA",
		Black:           "PlayerB",
		Result:          "1-0",
		UTCDate:         "2024.01.27",
		UTCTime:         "18:04:12",
		WhiteElo:        "1874",
		BlackElo:        "1859",
		WhiteRatingDiff: "+8",
		BlackRatingDiff: "-7",
		Variant:         "Standard",
		TimeControl:     "300+0",
		ECO:             "B01",
		Termination:     "Normal",
	}
	if m != want {
		t.Errorf("metadata = %+v,\nwant %+v", m, want)
	}

	sparse := ExtractMetadata(games[1])
	if sparse.White != "PlayerC" || sparse.Black != "PlayerD" {
		t.Errorf("sparse players = %q vs %q", sparse.White, sparse.Black)
	}
	if sparse.WhiteElo != "" || sparse.Variant != "" {
		t.Errorf("absent tags should be empty, got elo %q variant %q", sparse.WhiteElo, sparse.Variant)
	}
	if sparse.ECO != "" {
		t.Errorf("zero-move game should have no ECO, got %q", sparse.ECO)
	}
}

func TestOpeningECOFallback(t *testing.T) {
	const noECOTag = `[Event "Test"]
[Site "?"]
[Date "2024.03.01"]
[White "A"]
[Black "B"]
[Result "1/2-1/2"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 a6 1/2-1/2
`
	games, err := Read(strings.NewReader(noECOTag))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	m := ExtractMetadata(games[0])
	if m.ECO == "" {
		t.Error("expected ECO backfill for a well-known opening line")
	}
}
