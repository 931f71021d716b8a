package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/ZJUSCT/contestd/internal/scoring"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Leaderboard is the finalized, rating-annotated leaderboard stored as JSON on
// the contest row.
type Leaderboard []scoring.LeaderboardEntry

func (l Leaderboard) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *Leaderboard) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, l)
}

type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username     string `gorm:"uniqueIndex;size:191" json:"username"`
	PasswordHash string `json:"-"`
	Nickname     string `json:"nickname"`
	Role         Role   `gorm:"index;size:16;default:student" json:"role"`

	// Rating is written only by contest finalization, guarded by RatingVersion.
	Rating        int `gorm:"not null;default:1500" json:"rating"`
	RatingVersion int `gorm:"not null;default:0" json:"-"`
}

// DisplayName is the name shown on leaderboards.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

type Contest struct {
	ID        string `gorm:"primaryKey;size:191" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name        string    `json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`

	IsFinalized      bool        `gorm:"index;not null;default:false" json:"is_finalized"`
	FinalizedAt      *time.Time  `json:"finalized_at"`
	FinalLeaderboard Leaderboard `gorm:"type:text" json:"final_leaderboard,omitempty"`

	Problems []Problem `gorm:"foreignKey:ContestID;constraint:OnDelete:CASCADE" json:"problems,omitempty"`
}

// IsActive reports whether submissions are accepted at t.
func (c *Contest) IsActive(t time.Time) bool {
	return !t.Before(c.StartTime) && !t.After(c.EndTime)
}

type Problem struct {
	ID        string `gorm:"primaryKey;size:191" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ContestID string `gorm:"index;size:191" json:"contest_id"`
	Name      string `json:"name"`
	Points    int    `gorm:"not null" json:"points"`
}

// Submission is one judged attempt. Rows are only ever inserted.
type Submission struct {
	ID        string `gorm:"primaryKey;size:191" json:"id"`
	CreatedAt time.Time

	UserID      string          `gorm:"index;size:191" json:"user_id"`
	ProblemID   string          `gorm:"index;size:191" json:"problem_id"`
	ContestID   string          `gorm:"index:idx_contest_time;size:191" json:"contest_id"`
	Verdict     scoring.Verdict `gorm:"size:32" json:"verdict"`
	SubmittedAt time.Time       `gorm:"index:idx_contest_time" json:"submitted_at"`
}

// RatingChange is the ledger row written for each participant of a finalized contest.
type RatingChange struct {
	ID        uint `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time

	UserID      string    `gorm:"uniqueIndex:idx_user_contest;size:191" json:"user_id"`
	ContestID   string    `gorm:"uniqueIndex:idx_user_contest;size:191" json:"contest_id"`
	ContestName string    `json:"contest_name"`
	ChangeDate  time.Time `gorm:"index" json:"change_date"`
	OldRating   int       `json:"old_rating"`
	NewRating   int       `json:"new_rating"`
	Rank        int       `json:"rank"`
}
