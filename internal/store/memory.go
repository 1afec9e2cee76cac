// internal/store/memory.go
//
// In-memory table of live puzzle rounds.
//
// Characteristics:
//   - Each owner (user id or anonymous id) has at most one current round.
//   - Replacing an owner's round stops the old round's countdown before the
//     new round becomes visible, so a superseded round never ticks again.
//   - Finished rounds stay readable until their owner starts a new one.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/starmatch/internal/game"
)

// ErrNotFound is returned for unknown round ids and owners with no round.
var ErrNotFound = errors.New("round not found")

// Store defines the lookup interface for live rounds.
type Store interface {
	// Replace installs r as owner's current round, stopping the previous one.
	Replace(ctx context.Context, owner string, r *game.Round) error

	// Get retrieves a round by ID.
	Get(ctx context.Context, id string) (*game.Round, error)

	// Current retrieves owner's current round.
	Current(ctx context.Context, owner string) (*game.Round, error)

	// Owner reports who owns round id.
	Owner(ctx context.Context, id string) (string, error)

	// Close stops every countdown and empties the table.
	Close() error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	replace sync.Mutex // serialises Replace; held while a previous round stops

	mu      sync.RWMutex
	byID    map[string]*game.Round // keyed by Round.ID
	byOwner map[string]string      // owner → Round.ID
	owners  map[string]string      // Round.ID → owner
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		byID:    make(map[string]*game.Round),
		byOwner: make(map[string]string),
		owners:  make(map[string]string),
	}
}

func (m *memory) Replace(ctx context.Context, owner string, r *game.Round) error {
	m.replace.Lock()
	defer m.replace.Unlock()

	m.mu.RLock()
	prev := m.byID[m.byOwner[owner]]
	m.mu.RUnlock()

	// Stop before publishing, outside mu: a final tick may still be running
	// its finish hook.
	if prev != nil {
		prev.Stop()
		log.Debug().Str("owner", owner).Str("round", prev.ID).Msg("round replaced")
	}

	m.mu.Lock()
	if prev != nil {
		delete(m.byID, prev.ID)
		delete(m.owners, prev.ID)
	}
	m.byID[r.ID] = r
	m.byOwner[owner] = r.ID
	m.owners[r.ID] = owner
	m.mu.Unlock()
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.byID[id]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Current(ctx context.Context, owner string) (*game.Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byOwner[owner]; ok {
		return m.byID[id], nil
	}
	return nil, ErrNotFound
}

func (m *memory) Owner(ctx context.Context, id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.owners[id]; ok {
		return o, nil
	}
	return "", ErrNotFound
}

func (m *memory) Close() error {
	m.replace.Lock()
	defer m.replace.Unlock()

	m.mu.Lock()
	rounds := make([]*game.Round, 0, len(m.byID))
	for _, r := range m.byID {
		rounds = append(rounds, r)
	}
	m.byID = make(map[string]*game.Round)
	m.byOwner = make(map[string]string)
	m.owners = make(map[string]string)
	m.mu.Unlock()

	for _, r := range rounds {
		r.Stop()
	}
	return nil
}
