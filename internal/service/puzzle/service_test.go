package puzzle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	nchess "github.com/corentings/chess/v2"
	"github.com/park285/Cheese-MoveGuess-bot/internal/chess"
	"github.com/park285/Cheese-MoveGuess-bot/internal/domain"
	"github.com/park285/Cheese-MoveGuess-bot/internal/service/cache"
	"github.com/redis/go-redis/v9"
)

type fixedPuzzler struct {
	puzzle *chess.Puzzle
	err    error
}

func (f fixedPuzzler) NewPuzzle() (*chess.Puzzle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.puzzle, nil
}

type stubRenderer struct{}

func (stubRenderer) RenderPNG(context.Context, *nchess.Board, RenderOptions) ([]byte, error) {
	return []byte("png"), nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func sq(t *testing.T, s string) chess.Square {
	t.Helper()
	v, err := chess.FromNotation(s)
	if err != nil {
		t.Fatalf("FromNotation(%q): %v", s, err)
	}
	return v
}

func knightPuzzle(t *testing.T) *chess.Puzzle {
	t.Helper()
	b := chess.MustBoard(
		chess.Piece{Kind: chess.Knight, Color: chess.White, Square: sq(t, "g1")},
		chess.Piece{Kind: chess.King, Color: chess.White, Square: sq(t, "e1")},
		chess.Piece{Kind: chess.King, Color: chess.Black, Square: sq(t, "e8")},
		chess.Piece{Kind: chess.Bishop, Color: chess.Black, Square: sq(t, "a6")},
	)
	return &chess.Puzzle{
		Board:  b,
		Target: chess.Target{Kind: chess.Knight, Color: chess.White, From: sq(t, "g1"), To: sq(t, "f3")},
	}
}

type harness struct {
	svc   *Service
	repo  Repository
	clock *fakeClock
	mr    *miniredis.Miniredis
}

func newHarness(t *testing.T, gen Puzzler, cfg Config) *harness {
	t.Helper()
	return newHarnessWithRepo(t, gen, cfg, NewMemoryRepository())
}

func newHarnessWithRepo(t *testing.T, gen Puzzler, cfg Config, repo Repository) *harness {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = time.Hour
	}
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc, err := NewService(gen, cache.NewFromClient(rdb, nil), repo, stubRenderer{}, cfg, nil, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &harness{svc: svc, repo: repo, clock: clock, mr: mr}
}

var alice = SessionMeta{Room: "room-a", Sender: "alice"}

func TestStartAndResume(t *testing.T) {
	h := newHarness(t, fixedPuzzler{puzzle: knightPuzzle(t)}, Config{})
	ctx := context.Background()

	state, err := h.svc.Start(ctx, alice)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if state.SessionUUID == "" || state.GuessesLeft != DefaultMaxGuesses || len(state.BoardImage) == 0 {
		t.Fatalf("unexpected state: %+v", state)
	}
	if state.Target != nil {
		t.Fatalf("target must stay hidden while playing")
	}
	if !state.TurnDeadline.Equal(h.clock.Now().Add(DefaultTurnTimeLimit)) {
		t.Fatalf("deadline = %v", state.TurnDeadline)
	}

	again, err := h.svc.Start(ctx, alice)
	if !errors.Is(err, ErrSessionInProgress) {
		t.Fatalf("second Start err = %v", err)
	}
	if again.SessionUUID != state.SessionUUID {
		t.Fatalf("resumed a different session")
	}

	other, err := h.svc.Start(ctx, SessionMeta{Room: "room-a", Sender: "bob"})
	if err != nil || other.SessionUUID == state.SessionUUID {
		t.Fatalf("players must not share sessions: %v", err)
	}
}

func TestGuessFeedbackAndSolve(t *testing.T) {
	h := newHarness(t, fixedPuzzler{puzzle: knightPuzzle(t)}, Config{})
	ctx := context.Background()
	if _, err := h.svc.Start(ctx, alice); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sum, err := h.svc.Guess(ctx, alice, "Ng1e2")
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if sum.Invalid || sum.Feedback.Headline() != chess.CauseWrongDestination {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.State.GuessesLeft != DefaultMaxGuesses-1 || sum.State.Finished {
		t.Fatalf("state after miss: %+v", sum.State)
	}

	sum, err = h.svc.Guess(ctx, alice, "knight g1-f3")
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if !sum.Feedback.ExactMatch || !sum.State.Finished || sum.State.Outcome != domain.OutcomeSolved {
		t.Fatalf("expected solve: %+v / %+v", sum.Feedback, sum.State)
	}
	if sum.State.Target == nil || sum.State.GameID == 0 {
		t.Fatalf("finished state must reveal target and carry the record id")
	}
	if p := sum.State.Profile; p == nil || p.Solved != 1 || p.Streak != 1 || p.SolveGuesses != 2 {
		t.Fatalf("profile = %+v", sum.State.Profile)
	}

	if _, err := h.svc.Status(ctx, alice); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("finished session must be gone, err = %v", err)
	}
}

func TestInvalidGuessDoesNotConsumeTurn(t *testing.T) {
	h := newHarness(t, fixedPuzzler{puzzle: knightPuzzle(t)}, Config{})
	ctx := context.Background()
	if _, err := h.svc.Start(ctx, alice); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cases := []struct {
		input string
		want  error
	}{
		{"Ng1g3", chess.ErrIllegalDestination},
		{"Ba1b2", chess.ErrNoPieceAtOrigin},
		{"Qg1f3", chess.ErrPieceMismatch},
		{"hello", chess.ErrMalformedGuess},
		{"z9a1", chess.ErrMalformedNotation},
	}
	for _, tc := range cases {
		sum, err := h.svc.Guess(ctx, alice, tc.input)
		if err != nil {
			t.Fatalf("Guess(%q): %v", tc.input, err)
		}
		if !sum.Invalid || !errors.Is(sum.InvalidReason, tc.want) {
			t.Fatalf("Guess(%q) = invalid %v reason %v, want %v", tc.input, sum.Invalid, sum.InvalidReason, tc.want)
		}
		if sum.State.GuessesLeft != DefaultMaxGuesses {
			t.Fatalf("invalid guess consumed a turn: %d left", sum.State.GuessesLeft)
		}
	}

	if _, err := h.svc.Guess(ctx, alice, "   "); !errors.Is(err, ErrEmptyGuess) {
		t.Fatalf("empty guess err = %v", err)
	}
	if _, err := h.svc.Guess(ctx, SessionMeta{Room: "room-a", Sender: "nobody"}, "Ng1f3"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("guess without session err = %v", err)
	}
}

func TestGuessesExhausted(t *testing.T) {
	h := newHarness(t, fixedPuzzler{puzzle: knightPuzzle(t)}, Config{MaxGuesses: 3})
	ctx := context.Background()
	if _, err := h.svc.Start(ctx, alice); err != nil {
		t.Fatalf("Start: %v", err)
	}
	var sum *GuessSummary
	var err error
	for _, g := range []string{"Ng1e2", "Ng1h3", "Ke1d1"} {
		sum, err = h.svc.Guess(ctx, alice, g)
		if err != nil {
			t.Fatalf("Guess(%q): %v", g, err)
		}
	}
	if !sum.State.Finished || sum.State.Outcome != domain.OutcomeExhausted || sum.State.GuessesLeft != 0 {
		t.Fatalf("expected exhaustion: %+v", sum.State)
	}
	if sum.State.Profile == nil || sum.State.Profile.Streak != 0 || sum.State.Profile.Played != 1 {
		t.Fatalf("profile = %+v", sum.State.Profile)
	}
}

func TestTurnTimeouts(t *testing.T) {
	h := newHarness(t, fixedPuzzler{puzzle: knightPuzzle(t)}, Config{TurnTimeLimit: 30 * time.Second, MaxGuesses: 4})
	ctx := context.Background()
	if _, err := h.svc.Start(ctx, alice); err != nil {
		t.Fatalf("Start: %v", err)
	}

	h.clock.Advance(65 * time.Second)
	state, err := h.svc.Status(ctx, alice)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if state.TimedOut != 2 || state.GuessesLeft != 2 {
		t.Fatalf("timed out %d, left %d", state.TimedOut, state.GuessesLeft)
	}
	for _, g := range state.Guesses {
		if !g.TimedOut || g.Headline != causeTimeout {
			t.Fatalf("unexpected timeout record: %+v", g)
		}
	}
	// The partial window carries over: 5s already used of the current turn.
	if want := h.clock.Now().Add(25 * time.Second); !state.TurnDeadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", state.TurnDeadline, want)
	}

	h.clock.Advance(10 * time.Second)
	sum, err := h.svc.Guess(ctx, alice, "Ng1e2")
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if sum.State.TimedOut != 0 || sum.State.GuessesLeft != 1 {
		t.Fatalf("after guess: %+v", sum.State)
	}

	h.clock.Advance(31 * time.Second)
	sum, err = h.svc.Guess(ctx, alice, "Ng1f3")
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if !sum.State.Finished || sum.State.Outcome != domain.OutcomeExhausted || sum.State.TimedOut != 1 {
		t.Fatalf("late guess should lose to the timer: %+v", sum.State)
	}
	if sum.Feedback.Valid {
		t.Fatalf("guess after exhaustion must not be evaluated")
	}
}

func TestStartAfterTimedOutSessionBeginsNewPuzzle(t *testing.T) {
	h := newHarness(t, fixedPuzzler{puzzle: knightPuzzle(t)}, Config{TurnTimeLimit: 10 * time.Second, MaxGuesses: 2})
	ctx := context.Background()
	first, err := h.svc.Start(ctx, alice)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.clock.Advance(time.Minute)
	second, err := h.svc.Start(ctx, alice)
	if err != nil {
		t.Fatalf("Start after timeout: %v", err)
	}
	if second.SessionUUID == first.SessionUUID || second.GuessesLeft != 2 {
		t.Fatalf("expected a fresh session: %+v", second)
	}
	games, err := h.svc.History(ctx, alice, 0)
	if err != nil || len(games) != 1 || games[0].Outcome != domain.OutcomeExhausted {
		t.Fatalf("timed out puzzle not recorded: %v %+v", err, games)
	}
}

func TestGiveUpRevealsAndRecords(t *testing.T) {
	h := newHarness(t, fixedPuzzler{puzzle: knightPuzzle(t)}, Config{})
	ctx := context.Background()
	if _, err := h.svc.Start(ctx, alice); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := h.svc.Guess(ctx, alice, "Ng1h3"); err != nil {
		t.Fatalf("Guess: %v", err)
	}
	state, err := h.svc.GiveUp(ctx, alice)
	if err != nil {
		t.Fatalf("GiveUp: %v", err)
	}
	if state.Outcome != domain.OutcomeAbandoned || state.Target == nil || chess.ToNotation(state.Target.To) != "f3" {
		t.Fatalf("unexpected reveal: %+v", state)
	}
	if _, err := h.svc.GiveUp(ctx, alice); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second GiveUp err = %v", err)
	}

	profile, err := h.svc.Profile(ctx, alice)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.Played != 1 || profile.Abandoned != 1 {
		t.Fatalf("profile = %+v", profile)
	}

	games, err := h.svc.History(ctx, alice, 5)
	if err != nil || len(games) != 1 {
		t.Fatalf("History: %v %d", err, len(games))
	}
	rec, err := h.svc.Record(ctx, alice, games[0].ID)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.GuessCount != 1 || len(rec.Guesses) != 1 || rec.Guesses[0].Headline != chess.CauseWrongDestination.String() {
		t.Fatalf("record = %+v", rec)
	}
	if _, err := h.svc.Record(ctx, alice, rec.ID+100); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("missing record err = %v", err)
	}
	if _, err := h.svc.Record(ctx, SessionMeta{Room: "room-a", Sender: "mallory"}, rec.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("records must be private, err = %v", err)
	}
}

func TestStreakAcrossPuzzles(t *testing.T) {
	h := newHarness(t, fixedPuzzler{puzzle: knightPuzzle(t)}, Config{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := h.svc.Start(ctx, alice); err != nil {
			t.Fatalf("Start #%d: %v", i, err)
		}
		if _, err := h.svc.Guess(ctx, alice, "Ng1f3"); err != nil {
			t.Fatalf("Guess #%d: %v", i, err)
		}
	}
	if _, err := h.svc.Start(ctx, alice); err != nil {
		t.Fatalf("Start: %v", err)
	}
	state, err := h.svc.GiveUp(ctx, alice)
	if err != nil {
		t.Fatalf("GiveUp: %v", err)
	}
	p := state.Profile
	if p.Played != 4 || p.Solved != 3 || p.BestStreak != 3 || p.Streak != 0 {
		t.Fatalf("profile = %+v", p)
	}
	if got := p.AverageGuesses(); got != 1 {
		t.Fatalf("average guesses = %v", got)
	}
}

func TestRoomAllowList(t *testing.T) {
	h := newHarness(t, fixedPuzzler{puzzle: knightPuzzle(t)}, Config{AllowedRooms: []string{" Room-A "}})
	ctx := context.Background()
	if _, err := h.svc.Start(ctx, alice); err != nil {
		t.Fatalf("allowed room rejected: %v", err)
	}
	if _, err := h.svc.Start(ctx, SessionMeta{Room: "room-b", Sender: "alice"}); !errors.Is(err, ErrRoomNotAllowed) {
		t.Fatalf("err = %v, want ErrRoomNotAllowed", err)
	}
}

func TestGenerationFailurePropagates(t *testing.T) {
	genErr := fmt.Errorf("%w: test", chess.ErrGenerationExhausted)
	h := newHarness(t, fixedPuzzler{err: genErr}, Config{})
	if _, err := h.svc.Start(context.Background(), alice); !errors.Is(err, chess.ErrGenerationExhausted) {
		t.Fatalf("err = %v", err)
	}
	if _, err := h.svc.Status(context.Background(), alice); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("failed start must not leave a session, err = %v", err)
	}
}

func TestSessionExpiresWithTTL(t *testing.T) {
	h := newHarness(t, fixedPuzzler{puzzle: knightPuzzle(t)}, Config{SessionTTL: time.Minute})
	ctx := context.Background()
	if _, err := h.svc.Start(ctx, alice); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.mr.FastForward(2 * time.Minute)
	if _, err := h.svc.Status(ctx, alice); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestGeneratedPuzzlesPlayThrough(t *testing.T) {
	gen := chess.NewGenerator(chess.WithSeed(8))
	h := newHarness(t, gen, Config{})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		meta := SessionMeta{Room: "room-a", Sender: fmt.Sprintf("p%d", i)}
		state, err := h.svc.Start(ctx, meta)
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		revealed, err := h.svc.GiveUp(ctx, meta)
		if err != nil {
			t.Fatalf("GiveUp: %v", err)
		}
		tgt := revealed.Target
		p, ok := state.Board.PieceAt(tgt.From)
		if !ok || !chess.IsLegalMove(p, tgt.To, state.Board) {
			t.Fatalf("revealed target %+v is not a legal move on %s", tgt, state.FEN)
		}
	}
}

// outageRepo fails every game insert while down is set.
type outageRepo struct {
	Repository
	mu   sync.Mutex
	down bool
}

var errRepoDown = errors.New("db down")

func (r *outageRepo) setDown(down bool) {
	r.mu.Lock()
	r.down = down
	r.mu.Unlock()
}

func (r *outageRepo) InsertGame(ctx context.Context, game *domain.PuzzleGame) (int64, error) {
	r.mu.Lock()
	down := r.down
	r.mu.Unlock()
	if down {
		return 0, errRepoDown
	}
	return r.Repository.InsertGame(ctx, game)
}

func TestSolvedPuzzleKeptUntilRecorded(t *testing.T) {
	repo := &outageRepo{Repository: NewMemoryRepository()}
	h := newHarnessWithRepo(t, fixedPuzzler{puzzle: knightPuzzle(t)}, Config{}, repo)
	ctx := context.Background()
	if _, err := h.svc.Start(ctx, alice); err != nil {
		t.Fatalf("Start: %v", err)
	}

	repo.setDown(true)
	if _, err := h.svc.Guess(ctx, alice, "Ng1f3"); !errors.Is(err, errRepoDown) {
		t.Fatalf("Guess err = %v, want repository failure", err)
	}
	if _, err := h.svc.Status(ctx, alice); !errors.Is(err, errRepoDown) {
		t.Fatalf("Status during outage err = %v", err)
	}

	repo.setDown(false)
	sum, err := h.svc.Guess(ctx, alice, "Ng1e2")
	if err != nil {
		t.Fatalf("Guess after recovery: %v", err)
	}
	if sum.Feedback.Valid || !sum.State.Finished || sum.State.Outcome != domain.OutcomeSolved || sum.State.GameID == 0 {
		t.Fatalf("pending solve not recorded: %+v / %+v", sum.Feedback, sum.State)
	}
	if _, err := h.svc.Status(ctx, alice); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("recorded session must be gone, err = %v", err)
	}
	games, err := h.svc.History(ctx, alice, 0)
	if err != nil || len(games) != 1 || games[0].Outcome != domain.OutcomeSolved || games[0].GuessCount != 1 {
		t.Fatalf("history = %v %+v", err, games)
	}
}

func TestGiveUpKeptUntilRecorded(t *testing.T) {
	repo := &outageRepo{Repository: NewMemoryRepository()}
	h := newHarnessWithRepo(t, fixedPuzzler{puzzle: knightPuzzle(t)}, Config{}, repo)
	ctx := context.Background()
	if _, err := h.svc.Start(ctx, alice); err != nil {
		t.Fatalf("Start: %v", err)
	}

	repo.setDown(true)
	if _, err := h.svc.GiveUp(ctx, alice); !errors.Is(err, errRepoDown) {
		t.Fatalf("GiveUp err = %v", err)
	}
	if _, err := h.svc.Guess(ctx, alice, "Ng1f3"); !errors.Is(err, errRepoDown) {
		t.Fatalf("abandoned puzzle accepted a guess: %v", err)
	}

	repo.setDown(false)
	state, err := h.svc.Status(ctx, alice)
	if err != nil {
		t.Fatalf("Status after recovery: %v", err)
	}
	if !state.Finished || state.Outcome != domain.OutcomeAbandoned || state.Target == nil {
		t.Fatalf("pending give-up not recorded: %+v", state)
	}
	games, err := h.svc.History(ctx, alice, 0)
	if err != nil || len(games) != 1 || games[0].Outcome != domain.OutcomeAbandoned {
		t.Fatalf("history = %v %+v", err, games)
	}
}

func TestStartKeepsTimedOutPuzzleUntilRecorded(t *testing.T) {
	repo := &outageRepo{Repository: NewMemoryRepository()}
	h := newHarnessWithRepo(t, fixedPuzzler{puzzle: knightPuzzle(t)}, Config{TurnTimeLimit: 10 * time.Second, MaxGuesses: 2}, repo)
	ctx := context.Background()
	first, err := h.svc.Start(ctx, alice)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.clock.Advance(time.Minute)

	repo.setDown(true)
	if _, err := h.svc.Start(ctx, alice); !errors.Is(err, errRepoDown) {
		t.Fatalf("Start during outage err = %v", err)
	}

	repo.setDown(false)
	second, err := h.svc.Start(ctx, alice)
	if err != nil {
		t.Fatalf("Start after recovery: %v", err)
	}
	if second.SessionUUID == first.SessionUUID {
		t.Fatal("expected a fresh session")
	}
	games, err := h.svc.History(ctx, alice, 0)
	if err != nil || len(games) != 1 || games[0].Outcome != domain.OutcomeExhausted || games[0].SessionUUID != first.SessionUUID {
		t.Fatalf("history = %v %+v", err, games)
	}
}
