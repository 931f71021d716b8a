package finalize

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ZJUSCT/contestd/internal/scoring"
	"go.uber.org/zap"
)

// Store is the persistence side of finalization.
//
// LoadSnapshot returns ErrNotFound for an unknown contest. Commit must apply the
// outcome atomically: it marks the contest finalized only if it is not finalized
// yet (returning ErrAlreadyFinalized otherwise), writes every rating only if its
// version still matches (returning ErrRatingConflict otherwise), and appends the
// ledger. On any error nothing is written.
type Store interface {
	LoadSnapshot(ctx context.Context, contestID string) (*Snapshot, error)
	Commit(ctx context.Context, out *Outcome) error
}

type Options struct {
	AllowBeforeEnd bool
	Now            func() time.Time
}

type Coordinator struct {
	store          Store
	allowBeforeEnd bool
	now            func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCoordinator(store Store, opts Options) *Coordinator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		store:          store,
		allowBeforeEnd: opts.AllowBeforeEnd,
		now:            now,
		locks:          make(map[string]*sync.Mutex),
	}
}

func (c *Coordinator) contestLock(contestID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[contestID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[contestID] = l
	}
	return l
}

// forgetLock drops the mutex of a contest that can no longer be finalized.
// Callers still waiting on it see the finalized contest and fail.
func (c *Coordinator) forgetLock(contestID string) {
	c.mu.Lock()
	delete(c.locks, contestID)
	c.mu.Unlock()
}

// Finalize locks in the leaderboard of a contest and applies its rating changes.
// It succeeds at most once per contest; later calls fail with ErrAlreadyFinalized.
func (c *Coordinator) Finalize(ctx context.Context, contestID string) ([]scoring.LeaderboardEntry, error) {
	l := c.contestLock(contestID)
	l.Lock()
	defer l.Unlock()

	started := c.now()
	log := zap.S().With("contest", contestID)

	snap, err := c.store.LoadSnapshot(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if snap.Contest.IsFinalized {
		c.forgetLock(contestID)
		return nil, ErrAlreadyFinalized
	}
	if !c.allowBeforeEnd && started.Before(snap.Contest.EndTime) {
		return nil, ErrContestNotEnded
	}

	out, err := Compute(snap)
	if err != nil {
		log.Errorw("finalize aborted", "error", err)
		return nil, err
	}

	if err := c.store.Commit(ctx, out); err != nil {
		if errors.Is(err, ErrAlreadyFinalized) {
			c.forgetLock(contestID)
			return nil, err
		}
		log.Errorw("finalize commit failed", "error", err)
		return nil, &PersistenceError{ContestID: contestID, Err: err}
	}
	c.forgetLock(contestID)

	log.Infow("contest finalized",
		"participants", len(out.Leaderboard),
		"submissions", len(snap.Submissions),
		"took", c.now().Sub(started))
	return out.Leaderboard, nil
}

// Preview computes the leaderboard a finalize call would produce right now,
// without writing anything. A finalized contest has nothing left to preview:
// its ratings already include the result, so ErrAlreadyFinalized is returned.
func (c *Coordinator) Preview(ctx context.Context, contestID string) ([]scoring.LeaderboardEntry, error) {
	snap, err := c.store.LoadSnapshot(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if snap.Contest.IsFinalized {
		return nil, ErrAlreadyFinalized
	}
	out, err := Compute(snap)
	if err != nil {
		return nil, err
	}
	return out.Leaderboard, nil
}

// Live returns the current standings of a contest that has not been finalized.
// Rating fields are left zero.
func (c *Coordinator) Live(ctx context.Context, contestID string) ([]scoring.LeaderboardEntry, error) {
	snap, err := c.store.LoadSnapshot(ctx, contestID)
	if err != nil {
		return nil, err
	}
	return Standings(snap)
}
