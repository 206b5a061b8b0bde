package game

import (
	"errors"
	"fmt"
)

var (
	// ErrNoGame is returned by a Repository for a channel without a record.
	ErrNoGame = errors.New("no game for channel")

	ErrInvalidGuess   = errors.New("invalid guess")
	ErrBadLength      = fmt.Errorf("%w: must be two characters", ErrInvalidGuess)
	ErrNotInWordList  = fmt.Errorf("%w: not in word list", ErrInvalidGuess)
	ErrDuplicateGuess = errors.New("already guessed")

	ErrAlreadyActive = errors.New("challenge already started")
	// ErrUnfinished is an active challenge left over from an earlier day.
	ErrUnfinished            = fmt.Errorf("%w: unfinished challenge", ErrAlreadyActive)
	ErrAlreadyCompletedToday = errors.New("challenge already completed today")
	ErrChallengeOver         = errors.New("today's challenge is over")

	ErrPoolExhausted = errors.New("answer pool exhausted")
)
