package deckbuilder

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/blunderdeck/blunderdeck/internal/blunder"
	"github.com/blunderdeck/blunderdeck/internal/config"
	"github.com/blunderdeck/blunderdeck/internal/uci"
)

// Two casual games. The scripted evaluator makes White's 2. Nf3 in the
// first game a 400 centipawn blunder and keeps everything else flat.
const twoGamePGN = `[Event "Casual Game"]
[Site "https://lichess.org/abcd1234"]
[Date "2024.03.01"]
[White "Alice"]
[Black "Bob"]
[Result "0-1"]
[WhiteElo "1500"]
[BlackElo "1520"]
[ECO "C44"]
[TimeControl "300+0"]
[Termination "Normal"]

1. e4 e5 2. Nf3 Nc6 0-1

[Event "Casual Game"]
[Site "https://lichess.org/efgh5678"]
[Date "2024.03.02"]
[White "Carol"]
[Black "Dan"]
[Result "1/2-1/2"]
[ECO "D00"]

1. d4 d5 1/2-1/2
`

// scriptedEngine serves detection requests from a table of
// White-positive scores keyed by replayed-move count and answers every
// depth-limited request with a fixed principal variation.
type scriptedEngine struct {
	scores map[int]int
	pv     []string
}

func (s *scriptedEngine) Analyze(_ context.Context, req uci.AnalysisRequest) (uci.Analysis, error) {
	if req.Limits.Depth > 0 {
		return uci.Analysis{
			BestMove: s.pv[0],
			Score:    uci.Score{CP: 30},
			Depth:    req.Limits.Depth,
			PV:       append([]string(nil), s.pv...),
		}, nil
	}

	idx := len(req.Moves)
	cp, ok := s.scores[idx]
	if !ok {
		return uci.Analysis{}, fmt.Errorf("unscripted position after %d moves", idx)
	}
	if idx%2 == 1 {
		cp = -cp
	}
	return uci.Analysis{
		BestMove: "a2a3",
		Score:    uci.Score{CP: cp},
		Depth:    12,
		PV:       []string{"a2a3"},
	}, nil
}

func testConfig(t *testing.T, pgn string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	pgnPath := filepath.Join(dir, "games.pgn")
	if err := os.WriteFile(pgnPath, []byte(pgn), 0o644); err != nil {
		t.Fatalf("write pgn: %v", err)
	}

	cfg := config.Default()
	cfg.PGNPath = pgnPath
	cfg.OutputPath = filepath.Join(dir, "deck.apkg")
	cfg.DeckName = "Test Blunders"
	return cfg
}

func testBuilder(t *testing.T, cfg *config.Config, eval blunder.Evaluator) (*Builder, *int) {
	t.Helper()
	b, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sessions := new(int)
	b.withEngine = func(ctx context.Context, fn func(blunder.Evaluator) error) error {
		*sessions++
		return fn(eval)
	}
	return b, sessions
}

func readZip(t *testing.T, path string) map[string][]byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		entries[f.Name] = data
	}
	return entries
}

func openCollection(t *testing.T, data []byte) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collection.anki2")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write collection: %v", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open collection: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunBuildsDeck(t *testing.T) {
	eval := &scriptedEngine{
		scores: map[int]int{0: 20, 1: 20, 2: 20, 3: -380, 4: -380},
		pv:     []string{"f1c4", "f8c5"},
	}
	cfg := testConfig(t, twoGamePGN)
	b, sessions := testBuilder(t, cfg, eval)

	path, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if path != cfg.OutputPath {
		t.Fatalf("output path = %q, want %q", path, cfg.OutputPath)
	}
	if *sessions != 2 {
		t.Fatalf("engine sessions = %d, want one per game", *sessions)
	}

	entries := readZip(t, path)
	for _, name := range []string{"collection.anki2", "media", "0"} {
		if _, ok := entries[name]; !ok {
			t.Fatalf("archive is missing entry %q", name)
		}
	}

	var manifest map[string]string
	if err := json.Unmarshal(entries["media"], &manifest); err != nil {
		t.Fatalf("parse media manifest: %v", err)
	}
	if got := manifest["0"]; got != "blunder-1.png" {
		t.Fatalf("media manifest entry 0 = %q, want blunder-1.png", got)
	}

	img, err := png.Decode(bytes.NewReader(entries["0"]))
	if err != nil {
		t.Fatalf("decode board image: %v", err)
	}
	if w := img.Bounds().Dx(); w != 560 {
		t.Fatalf("board image width = %d, want 560", w)
	}

	db := openCollection(t, entries["collection.anki2"])
	var guid, flds string
	if err := db.QueryRow("SELECT guid, flds FROM notes").Scan(&guid, &flds); err != nil {
		t.Fatalf("read note: %v", err)
	}

	fields := strings.Split(flds, "\x1f")
	want := []string{
		"2024.03.01 - Alice vs Bob ",
		"1. e4 e5",
		"2. Nf3 Nc6",
		"2. Bc4 Bc5",
		"Alice",
		"Bob",
		"0-1",
		"2024.03.01",
		"https://lichess.org/abcd1234",
		"Casual Game",
		"1500",
		"1520",
		"",
		"",
		"",
		"300+0",
		"C44",
		"Normal",
		`<img src="blunder-1.png">`,
	}
	if len(fields) != len(want) {
		t.Fatalf("note has %d fields, want %d", len(fields), len(want))
	}
	for i, w := range want {
		if fields[i] != w {
			t.Errorf("field %d (%s) = %q, want %q", i, modelFields[i].Name, fields[i], w)
		}
	}

	if wantGUID := noteGUID("2024.03.01 - Alice vs Bob ", "1. e4 e5"); guid != wantGUID {
		t.Errorf("note guid = %q, want %q", guid, wantGUID)
	}

	var cards int
	if err := db.QueryRow("SELECT COUNT(*) FROM cards").Scan(&cards); err != nil {
		t.Fatalf("count cards: %v", err)
	}
	if cards != 1 {
		t.Errorf("cards = %d, want 1", cards)
	}

	var decks string
	if err := db.QueryRow("SELECT decks FROM col").Scan(&decks); err != nil {
		t.Fatalf("read decks: %v", err)
	}
	if !strings.Contains(decks, `"Test Blunders"`) {
		t.Errorf("decks json does not name the deck: %s", decks)
	}
}

func TestRunWithoutBlunders(t *testing.T) {
	eval := &scriptedEngine{
		scores: map[int]int{0: 20, 1: 20, 2: 20, 3: 20, 4: 20},
	}
	cfg := testConfig(t, twoGamePGN)
	b, _ := testBuilder(t, cfg, eval)

	path, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries := readZip(t, path)
	var manifest map[string]string
	if err := json.Unmarshal(entries["media"], &manifest); err != nil {
		t.Fatalf("parse media manifest: %v", err)
	}
	if len(manifest) != 0 {
		t.Fatalf("media manifest = %v, want empty", manifest)
	}

	db := openCollection(t, entries["collection.anki2"])
	var notes int
	if err := db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&notes); err != nil {
		t.Fatalf("count notes: %v", err)
	}
	if notes != 0 {
		t.Fatalf("notes = %d, want 0", notes)
	}
}

func TestRunDefaultOutputName(t *testing.T) {
	eval := &scriptedEngine{
		scores: map[int]int{0: 20, 1: 20, 2: 20, 3: 20, 4: 20},
	}
	cfg := testConfig(t, twoGamePGN)
	cfg.OutputPath = ""
	b, _ := testBuilder(t, cfg, eval)

	t.Chdir(t.TempDir())
	path, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(path, "anki_deck_") || !strings.HasSuffix(path, ".apkg") {
		t.Fatalf("default output path = %q, want anki_deck_<id>.apkg", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("deck file not written: %v", err)
	}
}

func TestRunPropagatesEngineFailure(t *testing.T) {
	cfg := testConfig(t, twoGamePGN)
	b, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	boom := errors.New("engine exploded")
	b.withEngine = func(ctx context.Context, fn func(blunder.Evaluator) error) error {
		return boom
	}

	_, err = b.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want wrapped engine failure", err)
	}
	if !strings.Contains(err.Error(), "analyze game 1") {
		t.Fatalf("Run error = %v, want game context", err)
	}
}

func TestNewBuilderRequiresConfig(t *testing.T) {
	if _, err := New(nil, zap.NewNop()); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNoteGUIDStable(t *testing.T) {
	a := noteGUID("2024.03.01 - Alice vs Bob ", "1. e4 e5")
	b := noteGUID("2024.03.01 - Alice vs Bob ", "1. e4 e5")
	c := noteGUID("2024.03.01 - Alice vs Bob ", "1. d4 d5")
	if a != b {
		t.Fatalf("same inputs produced %q and %q", a, b)
	}
	if a == c {
		t.Fatalf("different positions share guid %q", a)
	}
}

func TestNewModelShape(t *testing.T) {
	m := NewModel(42)
	if m.Name != "Chess Blunder Model" {
		t.Fatalf("model name = %q", m.Name)
	}
	if len(m.Fields) != 19 {
		t.Fatalf("model has %d fields, want 19", len(m.Fields))
	}
	if m.Fields[0].Name != "PuzzleID" || m.Fields[3].Name != "Moves" || m.Fields[18].Name != "Board" {
		t.Fatalf("unexpected field order: %v", m.Fields)
	}
	if len(m.Templates) != 1 || m.Templates[0].Name != "Chess Blunder Card" {
		t.Fatalf("unexpected templates: %v", m.Templates)
	}
	if !strings.Contains(m.Templates[0].Qfmt, "{{Board}}") {
		t.Error("question template does not show the board image")
	}
	if !strings.Contains(m.Templates[0].Afmt, "Best next moves {{Moves}}") {
		t.Error("answer template does not show the best line")
	}
	if !strings.Contains(m.CSS, ".ifra iframe") {
		t.Error("css is missing the analysis frame rules")
	}
}
