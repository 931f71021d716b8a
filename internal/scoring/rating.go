package scoring

import "math"

const (
	DefaultRating = 1500
	KFactor       = 32.0
)

// ExpectedScore is the Elo probability that a player rated ra beats one rated rb.
func ExpectedScore(ra, rb int) float64 {
	return 1 / (1 + math.Pow(10, float64(rb-ra)/400))
}

func actualScore(rankA, rankB int) float64 {
	switch {
	case rankA < rankB:
		return 1
	case rankA > rankB:
		return 0
	default:
		return 0.5
	}
}

// Rate compares every participant against every other one and returns the new
// rating of each, in leaderboard order. All expectations are computed from the
// ratings snapshot passed in; nothing computed here feeds back into it.
// A participant missing from the snapshot, or rated 0, starts at DefaultRating.
func Rate(entries []LeaderboardEntry, ratings map[string]int) []RatingUpdate {
	updates := make([]RatingUpdate, 0, len(entries))
	for i, a := range entries {
		ra := ratingOf(ratings, a.UserID)

		var delta float64
		for j, b := range entries {
			if i == j {
				continue
			}
			rb := ratingOf(ratings, b.UserID)
			delta += KFactor * (actualScore(a.Rank, b.Rank) - ExpectedScore(ra, rb))
		}

		newRating := roundHalfUp(float64(ra) + delta)
		updates = append(updates, RatingUpdate{
			UserID:    a.UserID,
			OldRating: ra,
			NewRating: newRating,
			Delta:     newRating - ra,
			Rank:      a.Rank,
		})
	}
	return updates
}

// Annotate copies the rating outcome onto the leaderboard entries. Entries
// without a matching update are returned unchanged.
func Annotate(entries []LeaderboardEntry, updates []RatingUpdate) []LeaderboardEntry {
	byUser := make(map[string]RatingUpdate, len(updates))
	for _, u := range updates {
		byUser[u.UserID] = u
	}

	out := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		if u, ok := byUser[e.UserID]; ok {
			e.OldRating = u.OldRating
			e.NewRating = u.NewRating
			e.RatingDelta = u.Delta
		}
		out[i] = e
	}
	return out
}

func ratingOf(ratings map[string]int, userID string) int {
	if r, ok := ratings[userID]; ok && r != 0 {
		return r
	}
	return DefaultRating
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
