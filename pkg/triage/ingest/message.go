package ingest

import (
	"errors"
	"strings"
)

// Genres observed in the disaster message corpus.
const (
	GenreDirect = "direct"
	GenreNews   = "news"
	GenreSocial = "social"
)

// Message is one row of the messages source. Values are never mutated after load.
type Message struct {
	ID       int64
	Text     string
	Original string // untranslated text, may be empty
	Genre    string
}

// Validate checks if the message has required fields
func (m Message) Validate() error {
	if m.ID < 0 {
		return errors.New("message id must be non-negative")
	}
	if strings.TrimSpace(m.Genre) == "" {
		return errors.New("message genre is required")
	}
	return nil
}

// KnownGenre reports whether g belongs to the fixed genre vocabulary.
func KnownGenre(g string) bool {
	switch g {
	case GenreDirect, GenreNews, GenreSocial:
		return true
	}
	return false
}

// CategoryRecord is one row of the categories source.
type CategoryRecord struct {
	ID      int64
	Encoded string
}

// Joined is a message paired with its encoded category field.
type Joined struct {
	Message
	Encoded string
}
