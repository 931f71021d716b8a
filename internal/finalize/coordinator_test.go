package finalize

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ZJUSCT/contestd/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store with the same commit guarantees as the gorm one.
type memStore struct {
	mu         sync.Mutex
	contests   map[string]*ContestHeader
	points     map[string]map[string]int
	subs       map[string][]scoring.Submission
	users      map[string]*Participant
	ledger     []LedgerEntry
	boards     map[string][]scoring.LeaderboardEntry
	failCommit error
	commits    int
}

func newMemStore() *memStore {
	return &memStore{
		contests: make(map[string]*ContestHeader),
		points:   make(map[string]map[string]int),
		subs:     make(map[string][]scoring.Submission),
		users:    make(map[string]*Participant),
		boards:   make(map[string][]scoring.LeaderboardEntry),
	}
}

func (m *memStore) LoadSnapshot(_ context.Context, contestID string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contests[contestID]
	if !ok {
		return nil, ErrNotFound
	}
	snap := &Snapshot{
		Contest:      *c,
		Points:       m.points[contestID],
		Submissions:  append([]scoring.Submission(nil), m.subs[contestID]...),
		Participants: make(map[string]Participant),
	}
	for _, s := range snap.Submissions {
		if u, ok := m.users[s.UserID]; ok {
			snap.Participants[s.UserID] = *u
		}
	}
	return snap, nil
}

func (m *memStore) Commit(_ context.Context, out *Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits++
	if m.failCommit != nil {
		return m.failCommit
	}
	c := m.contests[out.ContestID]
	if c.IsFinalized {
		return ErrAlreadyFinalized
	}
	for _, w := range out.Ratings {
		if m.users[w.UserID].RatingVersion != w.FromVersion {
			return ErrRatingConflict
		}
	}
	for _, w := range out.Ratings {
		m.users[w.UserID].Rating = w.NewRating
		m.users[w.UserID].RatingVersion++
	}
	c.IsFinalized = true
	m.boards[out.ContestID] = out.Leaderboard
	m.ledger = append(m.ledger, out.Ledger...)
	return nil
}

var (
	start = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	end   = start.Add(2 * time.Hour)
)

func seed() *memStore {
	m := newMemStore()
	m.contests["c1"] = &ContestHeader{ID: "c1", Name: "Weekly 1", StartTime: start, EndTime: end}
	m.points["c1"] = map[string]int{"p1": 100}
	m.users["a"] = &Participant{UserID: "a", Name: "Alice", Rating: 1500}
	m.users["b"] = &Participant{UserID: "b", Name: "Bob", Rating: 1500}
	m.subs["c1"] = []scoring.Submission{
		{UserID: "a", ProblemID: "p1", Verdict: scoring.VerdictWrongAnswer, SubmittedAt: start.Add(60 * time.Second)},
		{UserID: "b", ProblemID: "p1", Verdict: scoring.VerdictAccepted, SubmittedAt: start.Add(120 * time.Second)},
		{UserID: "a", ProblemID: "p1", Verdict: scoring.VerdictAccepted, SubmittedAt: start.Add(300 * time.Second)},
	}
	return m
}

func afterEnd() time.Time { return end.Add(time.Minute) }

func TestFinalize(t *testing.T) {
	store := seed()
	c := NewCoordinator(store, Options{Now: afterEnd})

	board, err := c.Finalize(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, board, 2)

	assert.Equal(t, "b", board[0].UserID)
	assert.Equal(t, 1, board[0].Rank)
	assert.EqualValues(t, 120, board[0].FinishTime)
	assert.Equal(t, 1516, board[0].NewRating)
	assert.Equal(t, "a", board[1].UserID)
	assert.EqualValues(t, 600, board[1].FinishTime)
	assert.Equal(t, 1484, board[1].NewRating)

	assert.Equal(t, 1516, store.users["b"].Rating)
	assert.Equal(t, 1484, store.users["a"].Rating)
	assert.True(t, store.contests["c1"].IsFinalized)

	require.Len(t, store.ledger, 2)
	assert.Equal(t, LedgerEntry{
		UserID: "b", ContestID: "c1", ContestName: "Weekly 1", ChangeDate: end,
		OldRating: 1500, NewRating: 1516, Rank: 1,
	}, store.ledger[0])
}

func TestFinalizeTwiceIsRejected(t *testing.T) {
	store := seed()
	c := NewCoordinator(store, Options{Now: afterEnd})

	_, err := c.Finalize(context.Background(), "c1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = c.Finalize(context.Background(), "c1")
		assert.ErrorIs(t, err, ErrAlreadyFinalized)
	}
	assert.Equal(t, 1516, store.users["b"].Rating, "no rating drift on repeated calls")
	assert.Len(t, store.ledger, 2)
	assert.Equal(t, 1, store.commits)
}

func TestFinalizeConcurrentCallsSucceedOnce(t *testing.T) {
	store := seed()
	c := NewCoordinator(store, Options{Now: afterEnd})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Finalize(context.Background(), "c1")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyFinalized)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, store.ledger, 2)
}

func TestFinalizeNotFound(t *testing.T) {
	c := NewCoordinator(newMemStore(), Options{Now: afterEnd})
	_, err := c.Finalize(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinalizeBeforeEnd(t *testing.T) {
	store := seed()
	during := func() time.Time { return start.Add(time.Hour) }

	_, err := NewCoordinator(store, Options{Now: during}).Finalize(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrContestNotEnded)
	assert.False(t, store.contests["c1"].IsFinalized)

	_, err = NewCoordinator(store, Options{Now: during, AllowBeforeEnd: true}).Finalize(context.Background(), "c1")
	assert.NoError(t, err)
}

func TestFinalizeInvariantViolation(t *testing.T) {
	store := seed()
	store.subs["c1"] = append(store.subs["c1"], scoring.Submission{
		UserID: "a", ProblemID: "deleted", Verdict: scoring.VerdictAccepted, SubmittedAt: start.Add(time.Minute),
	})
	c := NewCoordinator(store, Options{Now: afterEnd})

	_, err := c.Finalize(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrInvariant)
	assert.ErrorIs(t, err, scoring.ErrUnknownProblem)
	assert.Zero(t, store.commits)
	assert.False(t, store.contests["c1"].IsFinalized)
}

func TestFinalizeCommitFailureIsRetryable(t *testing.T) {
	store := seed()
	store.failCommit = errors.New("disk full")
	c := NewCoordinator(store, Options{Now: afterEnd})

	_, err := c.Finalize(context.Background(), "c1")
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "c1", perr.ContestID)
	assert.False(t, store.contests["c1"].IsFinalized)
	assert.Equal(t, 1500, store.users["a"].Rating)

	store.failCommit = nil
	board, err := c.Finalize(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, board, 2)
}

func TestFinalizeRatingConflict(t *testing.T) {
	store := seed()
	inner := store
	c := NewCoordinator(&bumpingStore{memStore: inner, userID: "a"}, Options{Now: afterEnd})

	_, err := c.Finalize(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrRatingConflict)
	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
	assert.False(t, inner.contests["c1"].IsFinalized)
}

// bumpingStore simulates another writer updating a rating between the snapshot
// read and the commit.
type bumpingStore struct {
	*memStore
	userID string
}

func (b *bumpingStore) LoadSnapshot(ctx context.Context, contestID string) (*Snapshot, error) {
	snap, err := b.memStore.LoadSnapshot(ctx, contestID)
	if err == nil {
		b.mu.Lock()
		b.users[b.userID].RatingVersion++
		b.mu.Unlock()
	}
	return snap, err
}

func TestFinalizeEmptyContest(t *testing.T) {
	store := seed()
	store.subs["c1"] = nil
	c := NewCoordinator(store, Options{Now: afterEnd})

	board, err := c.Finalize(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, board)
	assert.True(t, store.contests["c1"].IsFinalized)
	assert.Empty(t, store.ledger)
}

func TestPreviewWritesNothing(t *testing.T) {
	store := seed()
	c := NewCoordinator(store, Options{})

	board, err := c.Preview(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, board, 2)
	assert.Zero(t, store.commits)
	assert.Equal(t, 1500, store.users["a"].Rating)
}

func TestLiveHasNoRatings(t *testing.T) {
	store := seed()
	c := NewCoordinator(store, Options{})

	board, err := c.Live(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "b", board[0].UserID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Zero(t, board[0].NewRating)
	assert.Zero(t, board[1].RatingDelta)
	assert.Equal(t, int64(300), board[1].ProblemDetails["p1"].Penalty)
}

func TestPreviewFinalizedContest(t *testing.T) {
	store := seed()
	c := NewCoordinator(store, Options{Now: afterEnd})
	_, err := c.Finalize(context.Background(), "c1")
	require.NoError(t, err)

	_, err = c.Preview(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	assert.Equal(t, 1516, store.users["b"].Rating)
}

func TestFinalizeReleasesContestLock(t *testing.T) {
	store := seed()
	c := NewCoordinator(store, Options{Now: afterEnd})

	_, err := c.Finalize(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, c.locks)

	_, err = c.Finalize(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	assert.Empty(t, c.locks)
}
