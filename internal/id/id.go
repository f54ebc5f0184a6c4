// Package id provides typed, prefixed ULID generation.
//
// ULIDs are lexicographically sortable, so session listings ordered by
// ID are ordered by creation time for free, and the prefix keeps log
// lines readable.
package id

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies a terminal session.
type SessionID string

func (id SessionID) String() string { return string(id) }

// SessionPrefix is prepended to session ULIDs.
const SessionPrefix = "term"

// Generator produces ULIDs from an entropy source.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator backed by crypto/rand.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator with the given entropy source.
// Deterministic sources are useful in tests.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID string.
func (g *Generator) Generate() string {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// NewSessionID generates a prefixed session ID.
func NewSessionID() SessionID {
	return SessionID(SessionPrefix + "_" + Default().Generate())
}

// IsValid reports whether s is a well-formed ULID.
func IsValid(s string) bool {
	_, err := ulid.Parse(s)
	return err == nil
}
