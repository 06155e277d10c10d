// Package anki writes spaced-repetition decks in the apkg package
// format that Anki and compatible clients import.
package anki

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Field is one named slot of a note model.
type Field struct {
	Name string
}

// Template is one card layout of a model. Qfmt renders the question
// side, Afmt the answer side.
type Template struct {
	Name string
	Qfmt string
	Afmt string
}

// Model describes a note type: its fields, card templates and styling.
type Model struct {
	ID        int64
	Name      string
	Fields    []Field
	Templates []Template
	CSS       string
}

// Note is one unit of study material. Fields must line up with the
// model's field list. GUID identifies the note across imports; leave
// it empty to derive a stable one from the field contents.
type Note struct {
	Model  *Model
	Fields []string
	GUID   string
}

// guid returns the note's identity, deriving one from the fields when
// none was assigned. Re-importing an unchanged note then updates
// instead of duplicating.
func (n *Note) guid() string {
	if n.GUID != "" {
		return n.GUID
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(n.Fields, "\x1f"))).String()
}

func (n *Note) validate() error {
	if n.Model == nil {
		return fmt.Errorf("note has no model")
	}
	if len(n.Fields) != len(n.Model.Fields) {
		return fmt.Errorf("note has %d fields, model %q wants %d",
			len(n.Fields), n.Model.Name, len(n.Model.Fields))
	}
	return nil
}

// Deck is an ordered collection of notes destined for one apkg file.
type Deck struct {
	ID    int64
	Name  string
	Notes []Note
}

// NewDeck builds an empty deck.
func NewDeck(id int64, name string) *Deck {
	return &Deck{ID: id, Name: name}
}

// AddNote appends a note to the deck.
func (d *Deck) AddNote(n Note) {
	d.Notes = append(d.Notes, n)
}

// MediaFile is a binary attachment referenced from note fields by
// name.
type MediaFile struct {
	Name string
	Data []byte
}
