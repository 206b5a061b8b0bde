// internal/game/types.go
//
// Core type definitions for the word-similarity game.
// Defines:
//   - State: the per-channel challenge record.
//   - HistoryEntry: one evaluated guess (rank plus neighbouring hints).
//   - Player: a leaderboard row.
//   - Repository/Ledger: the storage the engine needs.

package game

import (
	"context"
	"slices"
	"time"
)

// HistoryEntry is the evaluation of a single non-winning guess.
type HistoryEntry struct {
	Guess     string `json:"guess"`
	Rank      int    `json:"rank"`      // 1-based position in the ranking; 0 when unranked
	LeftHint  string `json:"leftHint"`  // word just closer to the answer, "" at the top
	RightHint string `json:"rightHint"` // word just further away, "" at the bottom
}

// Ranked reports whether the guess was found in the similarity ranking.
func (h HistoryEntry) Ranked() bool { return h.Rank > 0 }

// State is the challenge record for one channel.
//
// Guesses and History are index-aligned and only describe the current
// challenge. UsedAnswers accumulates every answer the channel has had.
type State struct {
	ChannelID   string         `json:"channelId"`
	Answer      string         `json:"answer"`
	StartedAt   time.Time      `json:"startedAt"`
	Ranking     []string       `json:"ranking"`
	UsedAnswers []string       `json:"usedAnswers"`
	Guesses     []string       `json:"guesses"`
	History     []HistoryEntry `json:"history"`
	Over        bool           `json:"isOver"`
}

// Clone returns a deep copy so callers can't alias stored slices.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Ranking = slices.Clone(s.Ranking)
	c.UsedAnswers = slices.Clone(s.UsedAnswers)
	c.Guesses = slices.Clone(s.Guesses)
	c.History = slices.Clone(s.History)
	return &c
}

// Player is a leaderboard entry.
type Player struct {
	ID          string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Score       uint   `json:"score"`
}

// Repository persists one State per channel.
// Game returns ErrNoGame when the channel has never started a challenge.
type Repository interface {
	Game(ctx context.Context, channelID string) (*State, error)
	SaveGame(ctx context.Context, s *State) error
}

// Ledger keeps cumulative win counts per player.
type Ledger interface {
	// RecordWin creates the player with score 1 or increments the score
	// and refreshes the display name.
	RecordWin(ctx context.Context, playerID, displayName string) (Player, error)
	// Players returns every entry in insertion order.
	Players(ctx context.Context) ([]Player, error)
}
