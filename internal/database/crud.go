package database

import (
	"errors"
	"fmt"

	"github.com/ZJUSCT/contestd/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidPoints = errors.New("problem points must be positive")

// User CRUD
func CreateUser(db *gorm.DB, user *models.User) error {
	return db.Create(user).Error
}

func GetUserByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByUsername(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureAdmin creates an administrator with the given username unless the
// username is already taken. It reports whether a user was created.
func EnsureAdmin(db *gorm.DB, id, username, passwordHash string) (bool, error) {
	_, err := GetUserByUsername(db, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	admin := models.User{
		ID:           id,
		Username:     username,
		Nickname:     username,
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
	}
	if err := CreateUser(db, &admin); err != nil {
		return false, err
	}
	return true, nil
}

func GetAllUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("username asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Contest CRUD
func CreateContest(db *gorm.DB, contest *models.Contest) error {
	return db.Create(contest).Error
}

func GetContest(db *gorm.DB, id string) (*models.Contest, error) {
	var contest models.Contest
	if err := db.Preload("Problems").Where("id = ?", id).First(&contest).Error; err != nil {
		return nil, err
	}
	return &contest, nil
}

func GetAllContests(db *gorm.DB) ([]models.Contest, error) {
	var contests []models.Contest
	if err := db.Omit("final_leaderboard").Order("start_time desc").Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

// UpsertContestDefinition creates the contest or refreshes its name, description
// and schedule. Finalization state is never touched.
func UpsertContestDefinition(db *gorm.DB, contest *models.Contest) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "start_time", "end_time", "updated_at"}),
	}).Omit("Problems", "FinalLeaderboard", "IsFinalized", "FinalizedAt").Create(contest).Error
}

// Problem CRUD
func CreateProblem(db *gorm.DB, problem *models.Problem) error {
	if problem.Points <= 0 {
		return ErrInvalidPoints
	}
	return db.Create(problem).Error
}

func UpsertProblem(db *gorm.DB, problem *models.Problem) error {
	if problem.Points <= 0 {
		return ErrInvalidPoints
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"contest_id", "name", "points", "updated_at"}),
	}).Create(problem).Error
}

func GetProblem(db *gorm.DB, id string) (*models.Problem, error) {
	var problem models.Problem
	if err := db.Where("id = ?", id).First(&problem).Error; err != nil {
		return nil, err
	}
	return &problem, nil
}

func GetContestProblems(db *gorm.DB, contestID string) ([]models.Problem, error) {
	var problems []models.Problem
	if err := db.Where("contest_id = ?", contestID).Order("id asc").Find(&problems).Error; err != nil {
		return nil, err
	}
	return problems, nil
}

// Submission log. Submissions are append-only: there is no update or delete.
func CreateSubmission(db *gorm.DB, sub *models.Submission) error {
	return db.Create(sub).Error
}

// GetContestSubmissions returns the submission log of a contest in judging order.
func GetContestSubmissions(db *gorm.DB, contestID string) ([]models.Submission, error) {
	var subs []models.Submission
	if err := db.Where("contest_id = ?", contestID).
		Order("submitted_at asc, id asc").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// GetSubmissionsByUserID returns every submission of a user, oldest first.
func GetSubmissionsByUserID(db *gorm.DB, userID string) ([]models.Submission, error) {
	var subs []models.Submission
	if err := db.Where("user_id = ?", userID).Order("submitted_at asc, id asc").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// Ratings & history

// RatingRow is one line of the global rating leaderboard.
type RatingRow struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Rating   int    `json:"rating"`
}

func GetRatingLeaderboard(db *gorm.DB) ([]RatingRow, error) {
	var rows []RatingRow
	err := db.Model(&models.User{}).
		Select("id as user_id, username, nickname, rating").
		Where("role = ?", models.RoleStudent).
		Order("rating desc, username asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetRatingHistory returns the rating ledger of a user, oldest first.
func GetRatingHistory(db *gorm.DB, userID string) ([]models.RatingChange, error) {
	var changes []models.RatingChange
	if err := db.Where("user_id = ?", userID).
		Order("change_date asc, id asc").
		Find(&changes).Error; err != nil {
		return nil, err
	}
	return changes, nil
}

// ContestResult is a user's placement in one finalized contest.
type ContestResult struct {
	ContestID   string `json:"contest_id"`
	ContestName string `json:"contest_name"`
	Score       int    `json:"score"`
	Rank        int    `json:"rank"`
	OldRating   int    `json:"old_rating"`
	NewRating   int    `json:"new_rating"`
}

// GetContestHistory lists the finalized contests a user placed in, newest first.
func GetContestHistory(db *gorm.DB, userID string) ([]ContestResult, error) {
	var contests []models.Contest
	if err := db.Where("is_finalized = ?", true).Order("end_time desc").Find(&contests).Error; err != nil {
		return nil, err
	}

	results := make([]ContestResult, 0)
	for _, c := range contests {
		for _, entry := range c.FinalLeaderboard {
			if entry.UserID != userID {
				continue
			}
			results = append(results, ContestResult{
				ContestID:   c.ID,
				ContestName: c.Name,
				Score:       entry.Score,
				Rank:        entry.Rank,
				OldRating:   entry.OldRating,
				NewRating:   entry.NewRating,
			})
			break
		}
	}
	return results, nil
}

// GetFinalLeaderboard returns the persisted leaderboard of a finalized contest.
func GetFinalLeaderboard(db *gorm.DB, contestID string) (models.Leaderboard, error) {
	var contest models.Contest
	if err := db.Select("id", "is_finalized", "final_leaderboard").
		Where("id = ?", contestID).First(&contest).Error; err != nil {
		return nil, err
	}
	if !contest.IsFinalized {
		return nil, fmt.Errorf("contest %s is not finalized", contestID)
	}
	if contest.FinalLeaderboard == nil {
		return models.Leaderboard{}, nil
	}
	return contest.FinalLeaderboard, nil
}
