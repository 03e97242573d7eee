// Package store records the history of evaluated lox programs.
package store

import (
	"encoding/hex"
	"io"

	"github.com/zeebo/blake3"
)

// Entry is one recorded program. Identical sources share an entry whose
// Runs counter grows with every execution.
type Entry struct {
	Digest string
	Source string
	Result string // rendered value, or the error text when OK is false
	OK     bool
	Runs   int
	Ts     string
}

// Store is the interface for run history persistence.
type Store interface {
	// Record stores a run of source, bumping the run count of an existing
	// entry with the same digest. It returns the entry as stored.
	Record(source, result string, ok bool) (Entry, error)
	// Recent returns up to limit entries, most recently run first.
	// A limit <= 0 returns everything.
	Recent(limit int) ([]Entry, error)
	// Lookup retrieves an entry by digest. Returns nil if not found.
	Lookup(digest string) (*Entry, error)
	// Close releases resources.
	Close() error
}

// MetadataStore extends Store with key/value metadata.
type MetadataStore interface {
	Store
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}

// Digest returns the hex blake3 digest that keys source in a Store.
func Digest(source string) string {
	h := blake3.New()
	io.WriteString(h, source)
	return hex.EncodeToString(h.Sum(nil))
}
