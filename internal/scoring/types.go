package scoring

import (
	"strings"
	"time"
)

type Verdict string

const (
	VerdictAccepted          Verdict = "Accepted"
	VerdictWrongAnswer       Verdict = "WrongAnswer"
	VerdictRuntimeError      Verdict = "RuntimeError"
	VerdictCompileError      Verdict = "CompileError"
	VerdictTimeLimitExceeded Verdict = "TimeLimitExceeded"
	VerdictOther             Verdict = "Other"
)

// ParseVerdict normalizes a verdict as reported by the judge. Spacing, case and
// the common short forms are accepted; anything unrecognised becomes VerdictOther.
func ParseVerdict(s string) Verdict {
	key := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(s), " ", ""), "_", ""))
	switch key {
	case "accepted", "ac", "ok":
		return VerdictAccepted
	case "wronganswer", "wa":
		return VerdictWrongAnswer
	case "runtimeerror", "re":
		return VerdictRuntimeError
	case "compileerror", "compilationerror", "ce":
		return VerdictCompileError
	case "timelimitexceeded", "tle":
		return VerdictTimeLimitExceeded
	default:
		return VerdictOther
	}
}

// Submission is one judged attempt read from the submission log.
type Submission struct {
	UserID      string
	ProblemID   string
	ContestID   string
	Verdict     Verdict
	SubmittedAt time.Time
}

// ProblemStat is the per user, per problem state. Times are in seconds.
type ProblemStat struct {
	Attempts  int   `json:"attempts"`
	Solved    bool  `json:"solved"`
	SolveTime int64 `json:"solve_time"`
	Penalty   int64 `json:"penalty"`
}

type ScoreRecord struct {
	UserID         string                  `json:"user_id"`
	UserName       string                  `json:"user_name"`
	Score          int                     `json:"score"`
	FinishTime     int64                   `json:"finish_time"`
	ProblemDetails map[string]*ProblemStat `json:"problem_details"`
}

// LeaderboardEntry is a ranked score record. The rating fields are filled in by
// Annotate once the rating pass has run; a live leaderboard leaves them zero.
type LeaderboardEntry struct {
	ScoreRecord
	Rank        int `json:"rank"`
	OldRating   int `json:"old_rating,omitempty"`
	NewRating   int `json:"new_rating,omitempty"`
	RatingDelta int `json:"rating_delta,omitempty"`
}

type RatingUpdate struct {
	UserID    string
	OldRating int
	NewRating int
	Delta     int
	Rank      int
}
