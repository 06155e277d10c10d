package anki

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// schemaVersion is the Anki collection schema this writer produces.
const schemaVersion = 11

// schemaSQL is the collection layout Anki 2 expects, including the
// scheduler tables that stay empty for a freshly exported deck.
const schemaSQL = `
	CREATE TABLE col (
		id     integer primary key,
		crt    integer not null,
		mod    integer not null,
		scm    integer not null,
		ver    integer not null,
		dty    integer not null,
		usn    integer not null,
		ls     integer not null,
		conf   text not null,
		models text not null,
		decks  text not null,
		dconf  text not null,
		tags   text not null
	);
	CREATE TABLE notes (
		id    integer primary key,
		guid  text not null,
		mid   integer not null,
		mod   integer not null,
		usn   integer not null,
		tags  text not null,
		flds  text not null,
		sfld  integer not null,
		csum  integer not null,
		flags integer not null,
		data  text not null
	);
	CREATE TABLE cards (
		id     integer primary key,
		nid    integer not null,
		did    integer not null,
		ord    integer not null,
		mod    integer not null,
		usn    integer not null,
		type   integer not null,
		queue  integer not null,
		due    integer not null,
		ivl    integer not null,
		factor integer not null,
		reps   integer not null,
		lapses integer not null,
		left   integer not null,
		odue   integer not null,
		odid   integer not null,
		flags  integer not null,
		data   text not null
	);
	CREATE TABLE revlog (
		id      integer primary key,
		cid     integer not null,
		usn     integer not null,
		ease    integer not null,
		ivl     integer not null,
		lastIvl integer not null,
		factor  integer not null,
		time    integer not null,
		type    integer not null
	);
	CREATE TABLE graves (
		usn  integer not null,
		oid  integer not null,
		type integer not null
	);
	CREATE INDEX ix_notes_usn ON notes (usn);
	CREATE INDEX ix_cards_usn ON cards (usn);
	CREATE INDEX ix_revlog_usn ON revlog (usn);
	CREATE INDEX ix_cards_nid ON cards (nid);
	CREATE INDEX ix_cards_sched ON cards (did, queue, due);
	CREATE INDEX ix_revlog_cid ON revlog (cid);
	CREATE INDEX ix_notes_csum ON notes (csum);`

// writeCollection creates the collection.anki2 database at path and
// fills it with the deck's notes and one card per template.
func writeCollection(ctx context.Context, path string, deck *Deck, now time.Time) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open collection db: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create collection schema: %w", err)
	}
	if err := insertCollectionRow(ctx, db, deck, now); err != nil {
		return err
	}
	if err := insertNotes(ctx, db, deck, now); err != nil {
		return err
	}
	return nil
}

func insertCollectionRow(ctx context.Context, db *sql.DB, deck *Deck, now time.Time) error {
	models := deckModels(deck)

	modelsJSON, err := json.Marshal(modelsPayload(models, deck.ID, now))
	if err != nil {
		return fmt.Errorf("marshal models: %w", err)
	}
	decksJSON, err := json.Marshal(decksPayload(deck, now))
	if err != nil {
		return fmt.Errorf("marshal decks: %w", err)
	}
	confJSON, err := json.Marshal(confPayload(models))
	if err != nil {
		return fmt.Errorf("marshal conf: %w", err)
	}
	dconfJSON, err := json.Marshal(dconfPayload())
	if err != nil {
		return fmt.Errorf("marshal dconf: %w", err)
	}

	const query = `
		INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
		VALUES (1, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?, ?, '{}')`

	_, err = db.ExecContext(
		ctx,
		query,
		now.Unix(),
		now.UnixMilli(),
		now.UnixMilli(),
		schemaVersion,
		string(confJSON),
		string(modelsJSON),
		string(decksJSON),
		string(dconfJSON),
	)
	if err != nil {
		return fmt.Errorf("insert collection row: %w", err)
	}
	return nil
}

func insertNotes(ctx context.Context, db *sql.DB, deck *Deck, now time.Time) error {
	const insertNote = `
		INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
		VALUES (?, ?, ?, ?, -1, '', ?, ?, ?, 0, '')`
	const insertCard = `
		INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due, ivl, factor,
			reps, lapses, left, odue, odid, flags, data)
		VALUES (?, ?, ?, ?, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`

	noteBase := now.UnixMilli()
	cardBase := noteBase + int64(len(deck.Notes))
	cardSeq := 0

	for i := range deck.Notes {
		note := &deck.Notes[i]
		if err := note.validate(); err != nil {
			return err
		}

		noteID := noteBase + int64(i)
		flds := joinFields(note.Fields)
		sortField := note.Fields[0]

		_, err := db.ExecContext(
			ctx,
			insertNote,
			noteID,
			note.guid(),
			note.Model.ID,
			now.Unix(),
			flds,
			sortField,
			fieldChecksum(sortField),
		)
		if err != nil {
			return fmt.Errorf("insert note %d: %w", i, err)
		}

		for ord := range note.Model.Templates {
			_, err := db.ExecContext(
				ctx,
				insertCard,
				cardBase+int64(cardSeq),
				noteID,
				deck.ID,
				ord,
				now.Unix(),
				i+1,
			)
			if err != nil {
				return fmt.Errorf("insert card for note %d: %w", i, err)
			}
			cardSeq++
		}
	}
	return nil
}

// joinFields packs note fields the way Anki stores them, separated by
// the unit separator byte.
func joinFields(fields []string) string {
	return strings.Join(fields, "\x1f")
}

// fieldChecksum is Anki's duplicate-detection checksum: the first
// eight hex digits of the sort field's SHA1, read as an integer.
func fieldChecksum(field string) int64 {
	sum := sha1.Sum([]byte(field))
	digest := hex.EncodeToString(sum[:])
	v, err := strconv.ParseInt(digest[:8], 16, 64)
	if err != nil {
		return 0
	}
	return v
}

// deckModels collects the distinct models used by the deck's notes,
// in first-use order.
func deckModels(deck *Deck) []*Model {
	var models []*Model
	seen := map[int64]bool{}
	for i := range deck.Notes {
		m := deck.Notes[i].Model
		if m == nil || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		models = append(models, m)
	}
	return models
}

func modelsPayload(models []*Model, deckID int64, now time.Time) map[string]any {
	payload := map[string]any{}
	for _, m := range models {
		flds := make([]map[string]any, len(m.Fields))
		for i, f := range m.Fields {
			flds[i] = map[string]any{
				"name":   f.Name,
				"ord":    i,
				"sticky": false,
				"rtl":    false,
				"font":   "Liberation Sans",
				"size":   20,
				"media":  []any{},
			}
		}
		tmpls := make([]map[string]any, len(m.Templates))
		req := make([][]any, len(m.Templates))
		for i, t := range m.Templates {
			tmpls[i] = map[string]any{
				"name":  t.Name,
				"ord":   i,
				"qfmt":  t.Qfmt,
				"afmt":  t.Afmt,
				"bqfmt": "",
				"bafmt": "",
				"did":   nil,
			}
			req[i] = []any{i, "any", []int{0}}
		}
		payload[strconv.FormatInt(m.ID, 10)] = map[string]any{
			"id":        m.ID,
			"name":      m.Name,
			"type":      0,
			"mod":       now.Unix(),
			"usn":       -1,
			"sortf":     0,
			"did":       deckID,
			"tmpls":     tmpls,
			"flds":      flds,
			"css":       m.CSS,
			"latexPre":  latexPre,
			"latexPost": latexPost,
			"latexsvg":  false,
			"req":       req,
			"tags":      []any{},
			"vers":      []any{},
		}
	}
	return payload
}

const (
	latexPre = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n" +
		"\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n" +
		"\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n"
	latexPost = "\\end{document}"
)

func decksPayload(deck *Deck, now time.Time) map[string]any {
	payload := map[string]any{
		"1": deckEntry(1, "Default", now),
	}
	payload[strconv.FormatInt(deck.ID, 10)] = deckEntry(deck.ID, deck.Name, now)
	return payload
}

func deckEntry(id int64, name string, now time.Time) map[string]any {
	return map[string]any{
		"id":               id,
		"name":             name,
		"desc":             "",
		"mod":              now.Unix(),
		"usn":              -1,
		"collapsed":        false,
		"browserCollapsed": false,
		"dyn":              0,
		"conf":             1,
		"extendNew":        0,
		"extendRev":        50,
		"newToday":         []int{0, 0},
		"revToday":         []int{0, 0},
		"lrnToday":         []int{0, 0},
		"timeToday":        []int{0, 0},
	}
}

func confPayload(models []*Model) map[string]any {
	curModel := ""
	if len(models) > 0 {
		curModel = strconv.FormatInt(models[0].ID, 10)
	}
	return map[string]any{
		"activeDecks":   []int{1},
		"curDeck":       1,
		"curModel":      curModel,
		"newSpread":     0,
		"collapseTime":  1200,
		"timeLim":       0,
		"estTimes":      true,
		"dueCounts":     true,
		"nextPos":       1,
		"sortType":      "noteFld",
		"sortBackwards": false,
		"addToCur":      true,
		"dayLearnFirst": false,
	}
}

func dconfPayload() map[string]any {
	return map[string]any{
		"1": map[string]any{
			"id":       1,
			"name":     "Default",
			"mod":      0,
			"usn":      0,
			"maxTaken": 60,
			"autoplay": true,
			"timer":    0,
			"replayq":  true,
			"new": map[string]any{
				"bury":          true,
				"delays":        []int{1, 10},
				"initialFactor": 2500,
				"ints":          []int{1, 4, 7},
				"order":         1,
				"perDay":        20,
				"separate":      true,
			},
			"rev": map[string]any{
				"bury":     true,
				"ease4":    1.3,
				"fuzz":     0.05,
				"ivlFct":   1,
				"maxIvl":   36500,
				"minSpace": 1,
				"perDay":   100,
			},
			"lapse": map[string]any{
				"delays":      []int{10},
				"leechAction": 0,
				"leechFails":  8,
				"minInt":      1,
				"mult":        0,
			},
		},
	}
}
