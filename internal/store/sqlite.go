// internal/store/sqlite.go
//
// SQLite implementation of game.Repository and game.Ledger.
//
// Tables (see sql/):
//   - game:        one row per channel; list fields are JSON text columns.
//   - leaderboard: one row per player, unique on player_id.
//
// List columns are decoded into typed slices and the record is validated on
// both read and write, so a malformed row surfaces as ErrInvalidRecord
// instead of leaking into the engine.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/ciyi/internal/game"
)

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an opened and migrated database.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db}
}

// OpenSQLite opens dsn, applies migrations and returns a Store.
func OpenSQLite(dsn string) (Store, error) {
	db, err := OpenDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLiteStore(db), nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }

func (s *sqliteStore) Game(ctx context.Context, channelID string) (*game.State, error) {
	var (
		st                              game.State
		started                         string
		ranking, used, guesses, history string
	)
	err := s.db.QueryRowContext(ctx, `
        SELECT channel_id, answer, started_at, ranking, used_answers, guesses, history, is_over
        FROM game WHERE channel_id=?`, channelID,
	).Scan(&st.ChannelID, &st.Answer, &started, &ranking, &used, &guesses, &history, &st.Over)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrNoGame
	}
	if err != nil {
		return nil, err
	}

	if st.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("%w: started_at: %v", ErrInvalidRecord, err)
	}
	for _, col := range []struct {
		name string
		raw  string
		dst  any
	}{
		{"ranking", ranking, &st.Ranking},
		{"used_answers", used, &st.UsedAnswers},
		{"guesses", guesses, &st.Guesses},
		{"history", history, &st.History},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, col.name, err)
		}
	}
	if err := validate(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *sqliteStore) SaveGame(ctx context.Context, st *game.State) error {
	if err := validate(st); err != nil {
		return err
	}
	cols := make([]string, 0, 4)
	for _, v := range []any{nonNil(st.Ranking), nonNil(st.UsedAnswers), nonNil(st.Guesses), nonNilHistory(st.History)} {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode game: %w", err)
		}
		cols = append(cols, string(b))
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO game (channel_id, answer, started_at, ranking, used_answers, guesses, history, is_over)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(channel_id) DO UPDATE SET
            answer=excluded.answer,
            started_at=excluded.started_at,
            ranking=excluded.ranking,
            used_answers=excluded.used_answers,
            guesses=excluded.guesses,
            history=excluded.history,
            is_over=excluded.is_over`,
		st.ChannelID, st.Answer, st.StartedAt.UTC().Format(time.RFC3339Nano),
		cols[0], cols[1], cols[2], cols[3], st.Over,
	)
	return err
}

func (s *sqliteStore) RecordWin(ctx context.Context, playerID, displayName string) (game.Player, error) {
	var p game.Player
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO leaderboard (player_id, display_name, score) VALUES (?, ?, 1)
        ON CONFLICT(player_id) DO UPDATE SET
            score=score+1,
            display_name=excluded.display_name
        RETURNING player_id, display_name, score`,
		playerID, displayName,
	).Scan(&p.ID, &p.DisplayName, &p.Score)
	return p, err
}

func (s *sqliteStore) Players(ctx context.Context) ([]game.Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, display_name, score FROM leaderboard ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Player
	for rows.Next() {
		var p game.Player
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Score); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilHistory(h []game.HistoryEntry) []game.HistoryEntry {
	if h == nil {
		return []game.HistoryEntry{}
	}
	return h
}
