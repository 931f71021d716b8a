package finalize

import (
	"fmt"
	"time"

	"github.com/ZJUSCT/contestd/internal/scoring"
)

// ContestHeader is the part of a contest the finalizer reads.
type ContestHeader struct {
	ID          string
	Name        string
	StartTime   time.Time
	EndTime     time.Time
	IsFinalized bool
}

// Participant is a user as read at the start of finalization.
type Participant struct {
	UserID        string
	Name          string
	Rating        int
	RatingVersion int
}

// Snapshot is one consistent read of everything finalization needs. Submissions
// committed after it was taken are not part of the result.
type Snapshot struct {
	Contest      ContestHeader
	Points       map[string]int
	Submissions  []scoring.Submission
	Participants map[string]Participant
}

// RatingWrite is a rating update together with the version it was computed from.
type RatingWrite struct {
	UserID      string
	FromVersion int
	OldRating   int
	NewRating   int
}

type LedgerEntry struct {
	UserID      string
	ContestID   string
	ContestName string
	ChangeDate  time.Time
	OldRating   int
	NewRating   int
	Rank        int
}

// Outcome is everything that must be committed atomically.
type Outcome struct {
	ContestID   string
	Leaderboard []scoring.LeaderboardEntry
	Ratings     []RatingWrite
	Ledger      []LedgerEntry
}

// Compute runs scoring, ranking and rating over a snapshot. It performs no I/O.
func Compute(snap *Snapshot) (*Outcome, error) {
	board, err := Standings(snap)
	if err != nil {
		return nil, err
	}

	ratings := make(map[string]int, len(snap.Participants))
	for id, p := range snap.Participants {
		ratings[id] = p.Rating
	}
	updates := scoring.Rate(board, ratings)

	out := &Outcome{
		ContestID:   snap.Contest.ID,
		Leaderboard: scoring.Annotate(board, updates),
		Ratings:     make([]RatingWrite, 0, len(updates)),
		Ledger:      make([]LedgerEntry, 0, len(updates)),
	}
	for _, u := range updates {
		out.Ratings = append(out.Ratings, RatingWrite{
			UserID:      u.UserID,
			FromVersion: snap.Participants[u.UserID].RatingVersion,
			OldRating:   u.OldRating,
			NewRating:   u.NewRating,
		})
		out.Ledger = append(out.Ledger, LedgerEntry{
			UserID:      u.UserID,
			ContestID:   snap.Contest.ID,
			ContestName: snap.Contest.Name,
			ChangeDate:  snap.Contest.EndTime,
			OldRating:   u.OldRating,
			NewRating:   u.NewRating,
			Rank:        u.Rank,
		})
	}
	return out, nil
}

// Standings scores and ranks the snapshot without the rating pass.
func Standings(snap *Snapshot) ([]scoring.LeaderboardEntry, error) {
	names := make(map[string]string, len(snap.Participants))
	for id, p := range snap.Participants {
		names[id] = p.Name
	}

	sheet, err := scoring.Score(snap.Submissions, snap.Points, snap.Contest.StartTime, names)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	return scoring.Rank(sheet.Ordered()), nil
}
