package database

import (
	"math"

	"github.com/ZJUSCT/contestd/internal/database/models"
	"github.com/ZJUSCT/contestd/internal/scoring"
	"gorm.io/gorm"
)

// ActivityDay is one cell of the submission heatmap.
type ActivityDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type ProfileStats struct {
	TotalSubmissions     int           `json:"total_submissions"`
	UniqueProblemsSolved int           `json:"unique_problems_solved"`
	SubmissionAccuracy   int           `json:"submission_accuracy"`
	ActivityData         []ActivityDay `json:"activity_data"`
}

// GetProfileStats summarizes the submission log of a user.
func GetProfileStats(db *gorm.DB, userID string) (*ProfileStats, error) {
	subs, err := GetSubmissionsByUserID(db, userID)
	if err != nil {
		return nil, err
	}
	return BuildProfileStats(subs), nil
}

// BuildProfileStats expects subs ordered by submission time. Accuracy is the
// rounded percentage of accepted submissions; days are UTC dates.
func BuildProfileStats(subs []models.Submission) *ProfileStats {
	stats := &ProfileStats{
		TotalSubmissions: len(subs),
		ActivityData:     []ActivityDay{},
	}

	accepted := 0
	solved := make(map[string]struct{})
	dayIndex := make(map[string]int)
	for _, sub := range subs {
		if sub.Verdict == scoring.VerdictAccepted {
			accepted++
			solved[sub.ProblemID] = struct{}{}
		}

		day := sub.SubmittedAt.UTC().Format("2006-01-02")
		if i, ok := dayIndex[day]; ok {
			stats.ActivityData[i].Count++
			continue
		}
		dayIndex[day] = len(stats.ActivityData)
		stats.ActivityData = append(stats.ActivityData, ActivityDay{Date: day, Count: 1})
	}

	stats.UniqueProblemsSolved = len(solved)
	if len(subs) > 0 {
		stats.SubmissionAccuracy = int(math.Round(float64(accepted) * 100 / float64(len(subs))))
	}
	return stats
}
