// internal/profiles/directory.go
//
// Profile card directory.
// Holds an ordered, append-only list of profile cards, seeded with the
// built-in cards, and grows by looking a handle up through a Fetcher.
//
// A failed lookup leaves the list untouched.

package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Record is one profile card.
type Record struct {
	Handle       string `json:"handle"`
	DisplayName  string `json:"displayName"`
	AvatarURL    string `json:"avatarUrl"`
	Organization string `json:"organization"`
}

// Fetcher looks a single handle up in an external directory.
type Fetcher interface {
	Fetch(ctx context.Context, handle string) (Record, error)
}

// ErrEmptyHandle is returned when the submitted handle is blank.
var ErrEmptyHandle = errors.New("handle is empty")

// Directory is safe for concurrent use.
type Directory struct {
	fetch Fetcher

	mu      sync.RWMutex
	records []Record
}

// NewDirectory returns a directory holding seed, in order.
func NewDirectory(f Fetcher, seed []Record) *Directory {
	return &Directory{fetch: f, records: append([]Record{}, seed...)}
}

// ParseSeed decodes a JSON array of records.
func ParseSeed(data []byte) ([]Record, error) {
	var out []Record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns a copy of the cards in insertion order.
func (d *Directory) List() []Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Record{}, d.records...)
}

// Len returns the number of cards.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}

// LookupAndAppend fetches handle and appends the card it describes.
// On any failure the error is returned and nothing is appended.
func (d *Directory) LookupAndAppend(ctx context.Context, handle string) (Record, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return Record{}, ErrEmptyHandle
	}
	rec, err := d.fetch.Fetch(ctx, handle)
	if err != nil {
		log.Warn().Err(err).Str("handle", handle).Msg("profile lookup failed")
		return Record{}, err
	}

	d.mu.Lock()
	d.records = append(d.records, rec)
	d.mu.Unlock()

	log.Info().Str("handle", rec.Handle).Msg("profile added")
	return rec, nil
}
