// Package present renders game data as chat text.
//
// Everything here is a pure function of its inputs.
package present

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/robalobadob/ciyi/internal/game"
)

// Placeholder stands in for a hidden hint character.
const Placeholder = "?"

// Ellipsis is appended when rows were cut off.
const Ellipsis = "..."

// FormatHistory lists entries closest-first, at most maxRows of them:
//
//	1. ?人) 企业 (地? #2
//
// The left hint shows the second character of the closer neighbour, the
// right hint the first character of the further one. Unranked entries sort
// last and show #?.
func FormatHistory(entries []game.HistoryEntry, maxRows int) string {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b game.HistoryEntry) int {
		return cmp.Compare(sortRank(a), sortRank(b))
	})
	rows := lo.Map(sorted, func(h game.HistoryEntry, i int) string {
		return fmt.Sprintf("%d. %s%s) %s (%s%s #%s",
			i+1, Placeholder, leftHintChar(h.LeftHint), h.Guess, rightHintChar(h.RightHint), Placeholder, rankLabel(h))
	})
	return truncate(rows, maxRows)
}

// FormatLeaderboard lists players by score, highest first:
//
//	1. Alice 3
//
// Ties keep their stored order.
func FormatLeaderboard(players []game.Player, maxRows int) string {
	sorted := slices.Clone(players)
	slices.SortStableFunc(sorted, func(a, b game.Player) int {
		return cmp.Compare(b.Score, a.Score)
	})
	rows := lo.Map(sorted, func(p game.Player, i int) string {
		return fmt.Sprintf("%d. %s %d", i+1, p.DisplayName, p.Score)
	})
	return truncate(rows, maxRows)
}

// truncate keeps the first limit rows and marks the cut with Ellipsis.
func truncate(rows []string, limit int) string {
	limit = max(limit, 0)
	if limit >= len(rows) {
		return strings.Join(rows, "\n")
	}
	return strings.Join(append(slices.Clone(rows[:limit]), Ellipsis), "\n")
}

// sortRank puts unranked entries after every ranked one.
func sortRank(h game.HistoryEntry) int {
	if !h.Ranked() {
		return int(^uint(0) >> 1)
	}
	return h.Rank
}

func rankLabel(h game.HistoryEntry) string {
	if !h.Ranked() {
		return Placeholder
	}
	return strconv.Itoa(h.Rank)
}

func leftHintChar(w string) string {
	if r := []rune(w); len(r) > 1 {
		return string(r[1])
	}
	return Placeholder
}

func rightHintChar(w string) string {
	if r := []rune(w); len(r) > 0 {
		return string(r[0])
	}
	return Placeholder
}
