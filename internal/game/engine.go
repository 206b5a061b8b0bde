// internal/game/engine.go
//
// Game engine for the daily word-similarity challenge.
// Responsibilities:
//   - Start a channel's challenge (pick an unused answer, fetch its ranking).
//   - Validate and apply guesses (shape, vocabulary, duplicates).
//   - Rank guesses against the similarity list and derive neighbour hints.
//   - Track state transitions: no game → active → over → active (next day).
//   - Credit winners on the leaderboard.
//
// Notes:
//   - Every operation on a channel runs under that channel's lock, so the
//     read-modify-write on the stored record is never interleaved.
//   - A new challenge is committed only after the ranking is fetched; a
//     catalog failure leaves the previous record untouched.
package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/ciyi/internal/catalog"
	"github.com/robalobadob/ciyi/internal/daily"
	"github.com/robalobadob/ciyi/internal/words"
)

// Outcome is the coarse result of an accepted guess.
type Outcome string

const (
	OutcomeProgress Outcome = "progress"
	OutcomeWon      Outcome = "won"
)

// Result describes an accepted guess.
type Result struct {
	Outcome Outcome
	// Started is true when this guess bootstrapped a new challenge first.
	Started bool
	// Entry is the evaluation of a non-winning guess.
	Entry HistoryEntry
	// History is the challenge history after a non-winning guess.
	History []HistoryEntry
	// Answer and Attempts are set on a win.
	Answer   string
	Attempts int
	// Player is the winner's updated leaderboard row.
	Player Player
}

// Engine applies commands to per-channel game state.
type Engine struct {
	pool    *words.Pool
	catalog catalog.Catalog
	games   Repository
	ledger  Ledger
	cal     *daily.Calendar
	locks   *channelLocks
}

// NewEngine wires the engine to its collaborators.
func NewEngine(pool *words.Pool, cat catalog.Catalog, games Repository, ledger Ledger, cal *daily.Calendar) *Engine {
	return &Engine{
		pool:    pool,
		catalog: cat,
		games:   games,
		ledger:  ledger,
		cal:     cal,
		locks:   newChannelLocks(),
	}
}

// Pool exposes the word pool (used for passive-guess detection).
func (e *Engine) Pool() *words.Pool { return e.pool }

// Start begins today's challenge for channelID.
//
// It is refused while a challenge is active (ErrAlreadyActive, or
// ErrUnfinished when it dates from an earlier day) and after today's
// challenge has been solved (ErrAlreadyCompletedToday).
func (e *Engine) Start(ctx context.Context, channelID string) (*State, error) {
	unlock := e.locks.lock(channelID)
	defer unlock()

	prev, err := e.load(ctx, channelID)
	if err != nil {
		return nil, err
	}
	now := e.cal.Now()
	if prev != nil {
		sameDay := e.cal.SameDay(now, prev.StartedAt)
		switch {
		case !prev.Over && sameDay:
			return nil, ErrAlreadyActive
		case !prev.Over:
			return nil, ErrUnfinished
		case sameDay:
			return nil, ErrAlreadyCompletedToday
		}
	}
	st, err := e.begin(ctx, channelID, prev, now)
	if err != nil {
		return nil, err
	}
	return st.Clone(), nil
}

// Guess applies guess from player to channelID's challenge.
//
// A channel with no record, or whose solved challenge is from an earlier
// day, gets a fresh challenge before the guess is evaluated.
func (e *Engine) Guess(ctx context.Context, channelID string, player Player, guess string) (Result, error) {
	guess = strings.TrimSpace(guess)
	if !words.IsWordShape(guess) {
		return Result{}, ErrBadLength
	}
	if !e.pool.IsValidGuess(guess) {
		return Result{}, fmt.Errorf("%w: %s", ErrNotInWordList, guess)
	}

	unlock := e.locks.lock(channelID)
	defer unlock()

	st, err := e.load(ctx, channelID)
	if err != nil {
		return Result{}, err
	}

	var res Result
	now := e.cal.Now()
	if st == nil || (st.Over && !e.cal.SameDay(now, st.StartedAt)) {
		if st, err = e.begin(ctx, channelID, st, now); err != nil {
			return Result{}, err
		}
		res.Started = true
	}

	if st.Over {
		return res, ErrChallengeOver
	}
	if slices.Contains(st.Guesses, guess) {
		return res, fmt.Errorf("%w: %s", ErrDuplicateGuess, guess)
	}

	if guess == st.Answer {
		return e.win(ctx, st, player, res)
	}

	entry := Evaluate(st.Ranking, guess)
	if !entry.Ranked() {
		log.Warn().Str("channel", channelID).Str("answer", st.Answer).Str("guess", guess).
			Msg("guess missing from similarity list")
	}
	st.Guesses = append(st.Guesses, guess)
	st.History = append(st.History, entry)
	if err := e.games.SaveGame(ctx, st); err != nil {
		return res, fmt.Errorf("save game: %w", err)
	}

	res.Outcome = OutcomeProgress
	res.Entry = entry
	res.History = slices.Clone(st.History)
	return res, nil
}

// win closes the challenge and credits player.
func (e *Engine) win(ctx context.Context, st *State, player Player, res Result) (Result, error) {
	attempts := len(st.History) + 1
	st.Over = true
	st.Guesses = nil
	st.History = nil
	if err := e.games.SaveGame(ctx, st); err != nil {
		return res, fmt.Errorf("save game: %w", err)
	}

	p, err := e.ledger.RecordWin(ctx, player.ID, player.DisplayName)
	if err != nil {
		return res, fmt.Errorf("record win: %w", err)
	}
	log.Info().Str("channel", st.ChannelID).Str("answer", st.Answer).Int("attempts", attempts).
		Str("player", player.ID).Msg("challenge solved")

	res.Outcome = OutcomeWon
	res.Answer = st.Answer
	res.Attempts = attempts
	res.Player = p
	return res, nil
}

// Active reports whether channelID has a challenge that is not over.
func (e *Engine) Active(ctx context.Context, channelID string) (bool, error) {
	st, err := e.load(ctx, channelID)
	if err != nil || st == nil {
		return false, err
	}
	return !st.Over, nil
}

// Snapshot returns a copy of channelID's record, or nil if none exists.
func (e *Engine) Snapshot(ctx context.Context, channelID string) (*State, error) {
	st, err := e.load(ctx, channelID)
	return st.Clone(), err
}

// Leaderboard returns every ledger entry.
func (e *Engine) Leaderboard(ctx context.Context) ([]Player, error) {
	return e.ledger.Players(ctx)
}

// load fetches the channel record; a missing record is (nil, nil).
func (e *Engine) load(ctx context.Context, channelID string) (*State, error) {
	st, err := e.games.Game(ctx, channelID)
	if errors.Is(err, ErrNoGame) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	return st, nil
}

// begin picks a fresh answer, fetches its ranking and commits a new
// challenge on top of prev (which may be nil). Nothing is written unless
// both steps succeed.
func (e *Engine) begin(ctx context.Context, channelID string, prev *State, now time.Time) (*State, error) {
	var used []string
	if prev != nil {
		used = prev.UsedAnswers
	}

	answer, ok := e.pool.PickUnused(used)
	if !ok {
		log.Warn().Str("channel", channelID).Int("used", len(used)).Msg("no unused answers left")
		return nil, ErrPoolExhausted
	}

	ranking, err := e.catalog.Ranking(ctx, answer)
	if err != nil {
		log.Warn().Err(err).Str("channel", channelID).Str("word", answer).Msg("similarity list unavailable")
		return nil, fmt.Errorf("start challenge: %w", err)
	}

	st := &State{
		ChannelID:   channelID,
		Answer:      answer,
		StartedAt:   now,
		Ranking:     ranking,
		UsedAnswers: append(slices.Clone(used), answer),
		Guesses:     []string{},
		History:     []HistoryEntry{},
	}
	if err := e.games.SaveGame(ctx, st); err != nil {
		return nil, fmt.Errorf("save game: %w", err)
	}
	log.Info().Str("channel", channelID).Str("date", e.cal.DateKey(now)).Int("ranked", len(ranking)).
		Msg("challenge started")
	return st, nil
}

// Evaluate locates guess in ranking (index 0 = most similar) and returns
// its 1-based rank with the words on either side. A guess that is not in
// the ranking comes back unranked with empty hints.
func Evaluate(ranking []string, guess string) HistoryEntry {
	i := slices.Index(ranking, guess)
	if i < 0 {
		return HistoryEntry{Guess: guess}
	}
	h := HistoryEntry{Guess: guess, Rank: i + 1}
	if i > 0 {
		h.LeftHint = ranking[i-1]
	}
	if i+1 < len(ranking) {
		h.RightHint = ranking[i+1]
	}
	return h
}
