package store

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/robalobadob/ciyi/internal/game"
)

// ErrInvalidRecord wraps every record-shape violation caught at the storage boundary.
var ErrInvalidRecord = errors.New("invalid game record")

// validate checks the invariants a stored game record must satisfy.
func validate(s *game.State) error {
	switch {
	case s == nil:
		return fmt.Errorf("%w: nil", ErrInvalidRecord)
	case s.ChannelID == "":
		return fmt.Errorf("%w: empty channel id", ErrInvalidRecord)
	case len(s.Guesses) != len(s.History):
		return fmt.Errorf("%w: %d guesses but %d history entries", ErrInvalidRecord, len(s.Guesses), len(s.History))
	case !lo.Contains(s.UsedAnswers, s.Answer):
		return fmt.Errorf("%w: answer %q not in used answers", ErrInvalidRecord, s.Answer)
	case len(lo.Uniq(s.UsedAnswers)) != len(s.UsedAnswers):
		return fmt.Errorf("%w: duplicate used answers", ErrInvalidRecord)
	case len(lo.Uniq(s.Guesses)) != len(s.Guesses):
		return fmt.Errorf("%w: duplicate guesses", ErrInvalidRecord)
	}
	for i, h := range s.History {
		if h.Guess != s.Guesses[i] {
			return fmt.Errorf("%w: history[%d] is %q, guesses[%d] is %q", ErrInvalidRecord, i, h.Guess, i, s.Guesses[i])
		}
	}
	return nil
}
