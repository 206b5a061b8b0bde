package game_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/ciyi/internal/catalog"
	"github.com/robalobadob/ciyi/internal/daily"
	"github.com/robalobadob/ciyi/internal/game"
	"github.com/robalobadob/ciyi/internal/store"
	"github.com/robalobadob/ciyi/internal/words"
)

// fakeCatalog serves fixed rankings and counts calls.
type fakeCatalog struct {
	mu       sync.Mutex
	rankings map[string][]string
	fail     bool
	calls    int
}

func (f *fakeCatalog) Ranking(ctx context.Context, answer string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, catalog.ErrUnavailable
	}
	r, ok := f.rankings[answer]
	if !ok {
		return nil, catalog.ErrUnavailable
	}
	return r, nil
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	engine  *game.Engine
	store   store.Store
	catalog *fakeCatalog
	clock   *clock
}

var (
	alice = game.Player{ID: "u1", DisplayName: "Alice"}
	bob   = game.Player{ID: "u2", DisplayName: "Bob"}
)

// newFixture builds an engine whose only answer is answers[0..].
func newFixture(t *testing.T, answers ...string) *fixture {
	t.Helper()
	if len(answers) == 0 {
		answers = []string{"好人"}
	}
	pool, err := words.New(answers, []string{"好人", "企业", "地方", "工厂", "公司", "天气"})
	if err != nil {
		t.Fatal(err)
	}
	cat := &fakeCatalog{rankings: map[string][]string{
		"好人": {"好人", "企业", "地方", "工厂"},
		"地方": {"地方", "地点", "企业", "好人"},
	}}
	cal, err := daily.NewCalendar("Asia/Shanghai")
	if err != nil {
		t.Fatal(err)
	}
	// 10:00 in Shanghai.
	clk := &clock{t: time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)}
	st := store.NewMemoryStore()
	return &fixture{
		engine:  game.NewEngine(pool, cat, st, st, cal.WithClock(clk.now)),
		store:   st,
		catalog: cat,
		clock:   clk,
	}
}

func (f *fixture) state(t *testing.T, ch string) *game.State {
	t.Helper()
	s, err := f.store.Game(context.Background(), ch)
	if err != nil {
		t.Fatalf("load %s: %v", ch, err)
	}
	return s
}

func TestEvaluate(t *testing.T) {
	ranking := []string{"好人", "企业", "地方", "工厂"}
	cases := []struct {
		guess string
		want  game.HistoryEntry
	}{
		{"企业", game.HistoryEntry{Guess: "企业", Rank: 2, LeftHint: "好人", RightHint: "地方"}},
		{"好人", game.HistoryEntry{Guess: "好人", Rank: 1, RightHint: "企业"}},
		{"工厂", game.HistoryEntry{Guess: "工厂", Rank: 4, LeftHint: "地方"}},
		{"天气", game.HistoryEntry{Guess: "天气"}},
	}
	for _, c := range cases {
		if got := game.Evaluate(ranking, c.guess); got != c.want {
			t.Errorf("Evaluate(%q) = %+v, want %+v", c.guess, got, c.want)
		}
	}
	if game.Evaluate(ranking, "天气").Ranked() {
		t.Error("missing guess should be unranked")
	}
}

func TestStartFreshChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.engine.Start(ctx, "c1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st.Answer != "好人" || st.Over || len(st.UsedAnswers) != 1 || st.UsedAnswers[0] != "好人" {
		t.Errorf("unexpected state %+v", st)
	}
	if !st.StartedAt.Equal(f.clock.now()) {
		t.Errorf("StartedAt = %v, want %v", st.StartedAt, f.clock.now())
	}
}

func TestStartTwiceSameDay(t *testing.T) {
	f := newFixture(t, "好人", "地方")
	ctx := context.Background()

	if _, err := f.engine.Start(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	before := f.state(t, "c1")

	if _, err := f.engine.Start(ctx, "c1"); !errors.Is(err, game.ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}

	// Solve it, then try again on the same day.
	if _, err := f.engine.Guess(ctx, "c1", alice, before.Answer); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Start(ctx, "c1"); !errors.Is(err, game.ErrAlreadyCompletedToday) {
		t.Fatalf("expected ErrAlreadyCompletedToday, got %v", err)
	}

	after := f.state(t, "c1")
	if after.Answer != before.Answer || !after.StartedAt.Equal(before.StartedAt) || len(after.UsedAnswers) != 1 {
		t.Errorf("start mutated state: before %+v after %+v", before, after)
	}
	if f.catalog.calls != 1 {
		t.Errorf("catalog called %d times, want 1", f.catalog.calls)
	}
}

func TestStartUnfinishedFromEarlierDay(t *testing.T) {
	f := newFixture(t, "好人", "地方")
	ctx := context.Background()
	if _, err := f.engine.Start(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(24 * time.Hour)

	_, err := f.engine.Start(ctx, "c1")
	if !errors.Is(err, game.ErrUnfinished) || !errors.Is(err, game.ErrAlreadyActive) {
		t.Fatalf("expected ErrUnfinished, got %v", err)
	}
}

func TestStartNextDayAfterWin(t *testing.T) {
	f := newFixture(t, "好人", "地方")
	ctx := context.Background()

	first, err := f.engine.Start(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Guess(ctx, "c1", alice, first.Answer); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(24 * time.Hour)

	second, err := f.engine.Start(ctx, "c1")
	if err != nil {
		t.Fatalf("Start next day: %v", err)
	}
	if second.Answer == first.Answer {
		t.Errorf("answer repeated: %s", second.Answer)
	}
	if len(second.UsedAnswers) != 2 || second.UsedAnswers[0] != first.Answer {
		t.Errorf("UsedAnswers = %v", second.UsedAnswers)
	}
	if second.Over || len(second.Guesses) != 0 || len(second.History) != 0 {
		t.Errorf("new challenge not reset: %+v", second)
	}
}

func TestStartPoolExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, _ := f.engine.Start(ctx, "c1")
	if _, err := f.engine.Guess(ctx, "c1", alice, st.Answer); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(24 * time.Hour)
	before := f.state(t, "c1")

	if _, err := f.engine.Start(ctx, "c1"); !errors.Is(err, game.ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
	if _, err := f.engine.Guess(ctx, "c1", alice, "企业"); !errors.Is(err, game.ErrPoolExhausted) {
		t.Fatalf("guess: expected ErrPoolExhausted, got %v", err)
	}
	after := f.state(t, "c1")
	if !after.Over || len(after.UsedAnswers) != len(before.UsedAnswers) {
		t.Errorf("exhausted start mutated state: %+v", after)
	}
}

func TestStartCatalogUnavailable(t *testing.T) {
	f := newFixture(t)
	f.catalog.fail = true
	ctx := context.Background()

	if _, err := f.engine.Start(ctx, "c1"); !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := f.store.Game(ctx, "c1"); !errors.Is(err, game.ErrNoGame) {
		t.Fatalf("record created despite catalog failure: %v", err)
	}

	if _, err := f.engine.Guess(ctx, "c1", alice, "企业"); !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("guess: expected ErrUnavailable, got %v", err)
	}
	if _, err := f.store.Game(ctx, "c1"); !errors.Is(err, game.ErrNoGame) {
		t.Fatalf("record created by guess despite catalog failure: %v", err)
	}
}

func TestGuessInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.engine.Guess(ctx, "c1", alice, "三个字"); !errors.Is(err, game.ErrBadLength) {
		t.Errorf("expected ErrBadLength, got %v", err)
	}
	if _, err := f.engine.Guess(ctx, "c1", alice, ""); !errors.Is(err, game.ErrInvalidGuess) {
		t.Errorf("expected ErrInvalidGuess, got %v", err)
	}
	_, err := f.engine.Guess(ctx, "c1", alice, "大象")
	if !errors.Is(err, game.ErrNotInWordList) || !errors.Is(err, game.ErrInvalidGuess) {
		t.Errorf("expected ErrNotInWordList, got %v", err)
	}
	if f.catalog.calls != 0 {
		t.Error("invalid guesses must not start a challenge")
	}
}

func TestGuessBootstrapsAndRanks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.engine.Guess(ctx, "c1", alice, " 企业 ")
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if !res.Started || res.Outcome != game.OutcomeProgress {
		t.Errorf("result = %+v", res)
	}
	want := game.HistoryEntry{Guess: "企业", Rank: 2, LeftHint: "好人", RightHint: "地方"}
	if res.Entry != want {
		t.Errorf("entry = %+v, want %+v", res.Entry, want)
	}

	res, err = f.engine.Guess(ctx, "c1", bob, "工厂")
	if err != nil {
		t.Fatal(err)
	}
	if res.Started || len(res.History) != 2 || res.Entry.Rank != 4 {
		t.Errorf("second guess result = %+v", res)
	}

	st := f.state(t, "c1")
	if len(st.Guesses) != 2 || len(st.History) != 2 || st.Guesses[1] != "工厂" || st.History[1].Guess != "工厂" {
		t.Errorf("state = %+v", st)
	}
}

func TestGuessDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.engine.Guess(ctx, "c1", alice, "企业"); err != nil {
		t.Fatal(err)
	}
	before := f.state(t, "c1")
	_, err := f.engine.Guess(ctx, "c1", bob, "企业")
	if !errors.Is(err, game.ErrDuplicateGuess) {
		t.Fatalf("expected ErrDuplicateGuess, got %v", err)
	}
	after := f.state(t, "c1")
	if len(after.Guesses) != len(before.Guesses) || len(after.History) != len(before.History) {
		t.Error("duplicate guess mutated state")
	}
}

func TestGuessUnrankedWord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 天气 is a valid guess but absent from the ranking.
	res, err := f.engine.Guess(ctx, "c1", alice, "天气")
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if res.Entry.Ranked() || res.Entry.LeftHint != "" || res.Entry.RightHint != "" {
		t.Errorf("entry = %+v, want unranked", res.Entry)
	}
	if len(f.state(t, "c1").Guesses) != 1 {
		t.Error("unranked guess should still be recorded")
	}
}

func TestGuessWin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, g := range []string{"企业", "地方"} {
		if _, err := f.engine.Guess(ctx, "c1", bob, g); err != nil {
			t.Fatal(err)
		}
	}
	res, err := f.engine.Guess(ctx, "c1", alice, "好人")
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if res.Outcome != game.OutcomeWon || res.Answer != "好人" || res.Attempts != 3 {
		t.Errorf("result = %+v", res)
	}
	if res.Player.Score != 1 || res.Player.ID != "u1" {
		t.Errorf("player = %+v", res.Player)
	}

	st := f.state(t, "c1")
	if !st.Over || len(st.Guesses) != 0 || len(st.History) != 0 {
		t.Errorf("state after win = %+v", st)
	}

	// Same day: the challenge stays closed.
	if _, err := f.engine.Guess(ctx, "c1", bob, "工厂"); !errors.Is(err, game.ErrChallengeOver) {
		t.Fatalf("expected ErrChallengeOver, got %v", err)
	}
	// Even the answer itself no longer scores.
	if _, err := f.engine.Guess(ctx, "c1", bob, "好人"); !errors.Is(err, game.ErrChallengeOver) {
		t.Fatalf("expected ErrChallengeOver, got %v", err)
	}
	players, _ := f.engine.Leaderboard(ctx)
	if len(players) != 1 || players[0].Score != 1 {
		t.Errorf("leaderboard = %+v", players)
	}
}

func TestGuessNextDayStartsNewChallenge(t *testing.T) {
	f := newFixture(t, "好人", "地方")
	ctx := context.Background()

	first, _ := f.engine.Start(ctx, "c1")
	if _, err := f.engine.Guess(ctx, "c1", alice, first.Answer); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(24 * time.Hour)

	res, err := f.engine.Guess(ctx, "c1", alice, "企业")
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if !res.Started {
		t.Error("expected the guess to start a new challenge")
	}
	st := f.state(t, "c1")
	if st.Answer == first.Answer || st.Over || len(st.UsedAnswers) != 2 {
		t.Errorf("state = %+v", st)
	}
}

func TestWinCreditsAcrossChannels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, ch := range []string{"c1", "c2"} {
		if _, err := f.engine.Guess(ctx, ch, alice, "好人"); err != nil {
			t.Fatalf("%s: %v", ch, err)
		}
	}
	players, _ := f.engine.Leaderboard(ctx)
	if len(players) != 1 || players[0].Score != 2 {
		t.Errorf("leaderboard = %+v", players)
	}
}

func TestActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if ok, err := f.engine.Active(ctx, "c1"); err != nil || ok {
		t.Fatalf("Active on empty channel = %v, %v", ok, err)
	}
	f.engine.Start(ctx, "c1")
	if ok, _ := f.engine.Active(ctx, "c1"); !ok {
		t.Error("expected active after start")
	}
	f.engine.Guess(ctx, "c1", alice, "好人")
	if ok, _ := f.engine.Active(ctx, "c1"); ok {
		t.Error("expected inactive after win")
	}
}

func TestConcurrentGuessesAreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.engine.Start(ctx, "c1"); err != nil {
		t.Fatal(err)
	}

	guesses := []string{"企业", "地方", "工厂", "公司", "天气"}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, g := range guesses {
			wg.Add(1)
			go func(g string) {
				defer wg.Done()
				_, _ = f.engine.Guess(ctx, "c1", alice, g)
			}(g)
		}
	}
	wg.Wait()

	st := f.state(t, "c1")
	if len(st.Guesses) != len(guesses) || len(st.History) != len(guesses) {
		t.Fatalf("lost or duplicated updates: guesses=%v", st.Guesses)
	}
}

func TestConcurrentWinnersScoreOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.engine.Start(ctx, "c1")

	var wg sync.WaitGroup
	wins := make(chan struct{}, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res, err := f.engine.Guess(ctx, "c1", alice, "好人"); err == nil && res.Outcome == game.OutcomeWon {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	if n := len(wins); n != 1 {
		t.Fatalf("%d winning guesses, want 1", n)
	}
	players, _ := f.engine.Leaderboard(ctx)
	if players[0].Score != 1 {
		t.Errorf("score = %d, want 1", players[0].Score)
	}
}
