package scoring

import "sort"

// Rank orders the records by score descending, then finish time ascending.
// Records that tie on both keep their input order, and every entry gets its own
// 1-based rank: ties are never collapsed.
func Rank(records []*ScoreRecord) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, LeaderboardEntry{ScoreRecord: *r})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].FinishTime < entries[j].FinishTime
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
