// internal/store/memory.go
//
// In-memory implementation of game.Repository and game.Ledger.
// Used in tests and when CIYI_STORE=memory; state is lost on restart.
//
// Characteristics:
//   - Records are deep-copied on the way in and out, so callers never
//     share slices with the map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).

package store

import (
	"context"
	"slices"
	"sync"

	"github.com/robalobadob/ciyi/internal/game"
)

// Store is the storage collaborator the engine and transport depend on.
type Store interface {
	game.Repository
	game.Ledger
	Close() error
}

// memory is a map-backed Store.
type memory struct {
	mu      sync.RWMutex
	games   map[string]*game.State // keyed by channel ID
	players []game.Player          // insertion order
	byID    map[string]int         // player ID → index in players
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		games: make(map[string]*game.State),
		byID:  make(map[string]int),
	}
}

func (m *memory) Game(ctx context.Context, channelID string) (*game.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.games[channelID]; ok {
		return s.Clone(), nil
	}
	return nil, game.ErrNoGame
}

func (m *memory) SaveGame(ctx context.Context, s *game.State) error {
	if err := validate(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[s.ChannelID] = s.Clone()
	return nil
}

func (m *memory) RecordWin(ctx context.Context, playerID, displayName string) (game.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.byID[playerID]; ok {
		m.players[i].Score++
		m.players[i].DisplayName = displayName
		return m.players[i], nil
	}
	p := game.Player{ID: playerID, DisplayName: displayName, Score: 1}
	m.byID[playerID] = len(m.players)
	m.players = append(m.players, p)
	return p, nil
}

func (m *memory) Players(ctx context.Context) ([]game.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.players), nil
}

func (m *memory) Close() error { return nil }
