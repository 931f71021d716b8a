package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/ZJUSCT/contestd/internal/database"
	"github.com/ZJUSCT/contestd/internal/database/models"
	"github.com/ZJUSCT/contestd/internal/scoring"
	"github.com/ZJUSCT/contestd/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// recordSubmission is called by the judge once an attempt has a verdict.
// The submission time is taken from the server clock, never from the caller.
func (h *Handler) recordSubmission(c *gin.Context) {
	var req struct {
		UserID    string `json:"user_id" binding:"required"`
		ProblemID string `json:"problem_id" binding:"required"`
		Verdict   string `json:"verdict" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	now := time.Now()

	problem, err := database.GetProblem(h.db, req.ProblemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "problem not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}
	if _, err := database.GetUserByID(h.db, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "user not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	contest, err := database.GetContest(h.db, problem.ContestID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	if contest.IsFinalized || !contest.IsActive(now) {
		util.Error(c, http.StatusForbidden, "contest is not active")
		return
	}

	sub := models.Submission{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		ProblemID:   problem.ID,
		ContestID:   contest.ID,
		Verdict:     scoring.ParseVerdict(req.Verdict),
		SubmittedAt: now,
	}
	if err := database.CreateSubmission(h.db, &sub); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	zap.S().Debugf("recorded submission %s: user %s problem %s verdict %s", sub.ID, sub.UserID, sub.ProblemID, sub.Verdict)
	util.Success(c, sub, "Submission recorded")
}
