package scoring

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// PenaltyPerWrongAttempt is added to the finish time for every rejected attempt
// that precedes the accepted one.
const PenaltyPerWrongAttempt int64 = 300

var (
	ErrUnknownProblem = errors.New("submission references an unknown problem")
	ErrUnknownUser    = errors.New("submission references an unknown user")
)

// ScoreSheet holds the score records of one contest keyed by user id, together
// with the order in which users first appeared in the submission log.
type ScoreSheet struct {
	Records map[string]*ScoreRecord
	order   []string
}

func newScoreSheet() *ScoreSheet {
	return &ScoreSheet{Records: make(map[string]*ScoreRecord)}
}

// Len returns the number of users that made at least one submission.
func (s *ScoreSheet) Len() int {
	return len(s.order)
}

// Ordered returns the records in first-seen order.
func (s *ScoreSheet) Ordered() []*ScoreRecord {
	out := make([]*ScoreRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.Records[id])
	}
	return out
}

// Score replays the submissions of a contest and builds a score record for every
// user who submitted. The input slice is not modified.
//
// Submissions are processed by SubmittedAt ascending; submissions with equal
// timestamps keep their relative input order. The first accepted submission for a
// (user, problem) pair fixes that problem's stat, and everything after it is ignored.
func Score(subs []Submission, points map[string]int, contestStart time.Time, names map[string]string) (*ScoreSheet, error) {
	sorted := make([]Submission, len(subs))
	copy(sorted, subs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SubmittedAt.Before(sorted[j].SubmittedAt)
	})

	sheet := newScoreSheet()
	for _, sub := range sorted {
		problemPoints, ok := points[sub.ProblemID]
		if !ok {
			return nil, fmt.Errorf("%w: user %s, problem %s", ErrUnknownProblem, sub.UserID, sub.ProblemID)
		}

		record, ok := sheet.Records[sub.UserID]
		if !ok {
			name, known := names[sub.UserID]
			if !known {
				return nil, fmt.Errorf("%w: %s", ErrUnknownUser, sub.UserID)
			}
			record = &ScoreRecord{
				UserID:         sub.UserID,
				UserName:       name,
				ProblemDetails: make(map[string]*ProblemStat),
			}
			sheet.Records[sub.UserID] = record
			sheet.order = append(sheet.order, sub.UserID)
		}

		stat, ok := record.ProblemDetails[sub.ProblemID]
		if !ok {
			stat = &ProblemStat{}
			record.ProblemDetails[sub.ProblemID] = stat
		}
		if stat.Solved {
			continue
		}

		stat.Attempts++
		if sub.Verdict != VerdictAccepted {
			continue
		}
		stat.Solved = true
		stat.SolveTime = elapsedSeconds(contestStart, sub.SubmittedAt)
		stat.Penalty = int64(stat.Attempts-1) * PenaltyPerWrongAttempt
		record.Score += problemPoints
		record.FinishTime += stat.SolveTime + stat.Penalty
	}
	return sheet, nil
}

// elapsedSeconds floors at millisecond precision, so a submission half a second
// before the start counts as -1 rather than 0.
func elapsedSeconds(start, at time.Time) int64 {
	ms := at.Sub(start).Milliseconds()
	secs := ms / 1000
	if ms%1000 != 0 && ms < 0 {
		secs--
	}
	return secs
}
