package catalog

import (
	"errors"
	"fmt"

	"github.com/ZJUSCT/contestd/internal/database"
	"github.com/ZJUSCT/contestd/internal/database/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SyncResult struct {
	Contests int `json:"contests"`
	Problems int `json:"problems"`
	Skipped  int `json:"skipped"`
}

// Sync loads every contest under root and upserts it with its problems. Each
// contest is written in its own transaction. Problems of a finalized contest
// are left untouched.
func Sync(db *gorm.DB, root string) (*SyncResult, error) {
	dirs, err := FindContestDirs(root)
	if err != nil {
		return nil, err
	}
	contests, skipped := LoadContests(dirs)
	res := &SyncResult{Skipped: skipped}

	for _, c := range contests {
		n, err := syncContest(db, c)
		if err != nil {
			zap.S().Warnf("failed to sync contest %s: %v", c.ID, err)
			res.Skipped++
			continue
		}
		res.Contests++
		res.Problems += n
	}

	zap.S().Infof("synced %d contests and %d problems from '%s' (%d skipped)", res.Contests, res.Problems, root, res.Skipped)
	return res, nil
}

func syncContest(db *gorm.DB, c *Contest) (int, error) {
	written := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		existing, err := database.GetContest(tx, c.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := database.UpsertContestDefinition(tx, &models.Contest{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			StartTime:   c.StartTime,
			EndTime:     c.EndTime,
		}); err != nil {
			return err
		}
		if existing != nil && existing.IsFinalized {
			return nil
		}

		for _, p := range c.Problems {
			owner, err := database.GetProblem(tx, p.ID)
			if err == nil && owner.ContestID != c.ID {
				return fmt.Errorf("problem %s already belongs to contest %s", p.ID, owner.ContestID)
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := database.UpsertProblem(tx, &models.Problem{
				ID:        p.ID,
				ContestID: c.ID,
				Name:      p.Name,
				Points:    p.Points,
			}); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}
