// internal/words/words.go
//
// Word pool for the game engine.
//
// Responsibilities:
//   - Load answer and allowed guess lists from files or fall back to the embedded defaults.
//   - Maintain sets for quick lookups (answers only, answers ∪ guesses).
//   - Pick a random answer that a channel has not used yet.
//
// Word Lists:
//   - "answers": candidate solutions (exactly two characters).
//   - "allowed": valid guesses (always includes answers).
//
// Loading behavior (Load):
//  1. If both paths are set, load answers from the first and allowed guesses from the second.
//  2. If only the allowed path is set, use that file for both answers and allowed guesses.
//  3. If neither is set, use the embedded lists from the assets package.
package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/robalobadob/ciyi/assets"
)

// Length is the number of characters in every answer and guess.
const Length = 2

// ErrEmptyAnswers is returned when no usable answer survives loading.
var ErrEmptyAnswers = errors.New("words: answers list is empty")

// Pool holds the fixed answer candidates and the guess vocabulary.
// A Pool is immutable after construction and safe for concurrent use.
type Pool struct {
	answers    []string
	answersSet map[string]struct{}
	allowedSet map[string]struct{} // answers ∪ guesses
}

// New builds a Pool from in-memory lists. Words that are not exactly
// two characters are dropped; duplicates are collapsed.
func New(answers, allowed []string) (*Pool, error) {
	ans := lo.Uniq(lo.Filter(answers, func(w string, _ int) bool { return IsWordShape(w) }))
	if len(ans) == 0 {
		return nil, ErrEmptyAnswers
	}
	p := &Pool{
		answers:    ans,
		answersSet: toSet(ans),
		allowedSet: toSet(ans),
	}
	for _, w := range allowed {
		if IsWordShape(w) {
			p.allowedSet[w] = struct{}{}
		}
	}
	return p, nil
}

// Load reads the pool from the given files, falling back to the embedded lists.
func Load(answersPath, allowedPath string) (*Pool, error) {
	var ansList, allowList []string
	var err error

	switch {
	case answersPath != "" && allowedPath != "":
		if ansList, err = readWordFile(answersPath); err != nil {
			return nil, err
		}
		if allowList, err = readWordFile(allowedPath); err != nil {
			return nil, err
		}

	case answersPath == "" && allowedPath != "":
		if allowList, err = readWordFile(allowedPath); err != nil {
			return nil, err
		}
		ansList = allowList

	default:
		if ansList, err = assets.AnswersList(); err != nil {
			return nil, fmt.Errorf("embedded answers: %w", err)
		}
		if allowList, err = assets.AllowedList(); err != nil {
			return nil, fmt.Errorf("embedded allowed: %w", err)
		}
	}
	return New(ansList, allowList)
}

// readWordFile loads one word per line from a file, skipping blanks and # comments.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		out = append(out, w)
	}
	return out, sc.Err()
}

func toSet(list []string) map[string]struct{} {
	return lo.SliceToMap(list, func(w string) (string, struct{}) { return w, struct{}{} })
}

// IsWordShape reports whether w has exactly Length characters.
func IsWordShape(w string) bool {
	return utf8.RuneCountInString(w) == Length
}

// IsValidGuess reports whether w is two characters long and in the guess vocabulary.
func (p *Pool) IsValidGuess(w string) bool {
	if !IsWordShape(w) {
		return false
	}
	_, ok := p.allowedSet[w]
	return ok
}

// IsAnswer reports whether w is an answer candidate.
func (p *Pool) IsAnswer(w string) bool {
	_, ok := p.answersSet[w]
	return ok
}

// PickUnused returns a uniformly random answer not present in used.
// ok is false when every answer has been used.
func (p *Pool) PickUnused(used []string) (word string, ok bool) {
	available, _ := lo.Difference(p.answers, used)
	if len(available) == 0 {
		return "", false
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(available))))
	if err != nil {
		return available[0], true
	}
	return available[n.Int64()], true
}

// Stats returns counts of loaded words: (answers, allowed).
func (p *Pool) Stats() (answersCount int, allowedCount int) {
	return len(p.answers), len(p.allowedSet)
}
