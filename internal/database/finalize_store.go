package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZJUSCT/contestd/internal/database/models"
	"github.com/ZJUSCT/contestd/internal/finalize"
	"github.com/ZJUSCT/contestd/internal/scoring"
	"gorm.io/gorm"
)

// FinalizeStore is the gorm implementation of finalize.Store.
type FinalizeStore struct {
	db *gorm.DB
}

func NewFinalizeStore(db *gorm.DB) *FinalizeStore {
	return &FinalizeStore{db: db}
}

// LoadSnapshot reads the contest, its problems, its submission log and the
// submitting users inside one read transaction.
func (s *FinalizeStore) LoadSnapshot(ctx context.Context, contestID string) (*finalize.Snapshot, error) {
	var snap *finalize.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var contest models.Contest
		if err := tx.Omit("final_leaderboard").Where("id = ?", contestID).First(&contest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return finalize.ErrNotFound
			}
			return err
		}

		problems, err := GetContestProblems(tx, contestID)
		if err != nil {
			return err
		}
		subs, err := GetContestSubmissions(tx, contestID)
		if err != nil {
			return err
		}

		userIDs := make([]string, 0)
		seen := make(map[string]struct{})
		for _, sub := range subs {
			if _, ok := seen[sub.UserID]; !ok {
				seen[sub.UserID] = struct{}{}
				userIDs = append(userIDs, sub.UserID)
			}
		}
		var users []models.User
		if len(userIDs) > 0 {
			// Deleted accounts still own their submissions.
			if err := tx.Unscoped().Where("id IN ?", userIDs).Find(&users).Error; err != nil {
				return err
			}
		}

		snap = buildSnapshot(&contest, problems, subs, users)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func buildSnapshot(contest *models.Contest, problems []models.Problem, subs []models.Submission, users []models.User) *finalize.Snapshot {
	snap := &finalize.Snapshot{
		Contest: finalize.ContestHeader{
			ID:          contest.ID,
			Name:        contest.Name,
			StartTime:   contest.StartTime,
			EndTime:     contest.EndTime,
			IsFinalized: contest.IsFinalized,
		},
		Points:       make(map[string]int, len(problems)),
		Submissions:  make([]scoring.Submission, 0, len(subs)),
		Participants: make(map[string]finalize.Participant, len(users)),
	}
	for _, p := range problems {
		snap.Points[p.ID] = p.Points
	}
	for _, sub := range subs {
		snap.Submissions = append(snap.Submissions, scoring.Submission{
			UserID:      sub.UserID,
			ProblemID:   sub.ProblemID,
			ContestID:   sub.ContestID,
			Verdict:     sub.Verdict,
			SubmittedAt: sub.SubmittedAt,
		})
	}
	for _, u := range users {
		snap.Participants[u.ID] = finalize.Participant{
			UserID:        u.ID,
			Name:          u.DisplayName(),
			Rating:        u.Rating,
			RatingVersion: u.RatingVersion,
		}
	}
	return snap
}

// Commit writes the leaderboard snapshot, ratings and ledger in one transaction.
func (s *FinalizeStore) Commit(ctx context.Context, out *finalize.Outcome) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.Contest{}).
			Where("id = ? AND is_finalized = ?", out.ContestID, false).
			Updates(map[string]interface{}{
				"is_finalized":      true,
				"finalized_at":      now,
				"final_leaderboard": models.Leaderboard(out.Leaderboard),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return finalize.ErrAlreadyFinalized
		}

		for _, w := range out.Ratings {
			result := tx.Unscoped().Model(&models.User{}).
				Where("id = ? AND rating_version = ?", w.UserID, w.FromVersion).
				Updates(map[string]interface{}{
					"rating":         w.NewRating,
					"rating_version": gorm.Expr("rating_version + 1"),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: user %s", finalize.ErrRatingConflict, w.UserID)
			}
		}

		if len(out.Ledger) == 0 {
			return nil
		}
		rows := make([]models.RatingChange, 0, len(out.Ledger))
		for _, l := range out.Ledger {
			rows = append(rows, models.RatingChange{
				UserID:      l.UserID,
				ContestID:   l.ContestID,
				ContestName: l.ContestName,
				ChangeDate:  l.ChangeDate,
				OldRating:   l.OldRating,
				NewRating:   l.NewRating,
				Rank:        l.Rank,
			})
		}
		return tx.CreateInBatches(&rows, 200).Error
	})
}
