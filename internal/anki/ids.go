package anki

import "math/rand"

const (
	idRangeStart = 1 << 30
	idRangeEnd   = 1 << 31
)

// NewID returns a random identifier from the range Anki reserves for
// user-created decks and models.
func NewID() int64 {
	return idRangeStart + rand.Int63n(idRangeEnd-idRangeStart)
}
