package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/ZJUSCT/contestd/internal/database"
	"github.com/ZJUSCT/contestd/internal/database/models"
	"github.com/ZJUSCT/contestd/internal/finalize"
	"github.com/ZJUSCT/contestd/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// getAllContests returns every contest without its stored leaderboard.
func (h *Handler) getAllContests(c *gin.Context) {
	contests, err := database.GetAllContests(h.db)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, contests, "All contests retrieved")
}

func (h *Handler) getContest(c *gin.Context) {
	contest, err := database.GetContest(h.db, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "contest not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}
	util.Success(c, contest, "Contest details retrieved")
}

func (h *Handler) createContest(c *gin.Context) {
	var req struct {
		ID          string    `json:"id"`
		Name        string    `json:"name" binding:"required"`
		Description string    `json:"description"`
		StartTime   time.Time `json:"start_time" binding:"required"`
		EndTime     time.Time `json:"end_time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if !req.EndTime.After(req.StartTime) {
		util.Error(c, http.StatusBadRequest, "end_time must be after start_time")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if _, err := database.GetContest(h.db, req.ID); err == nil {
		util.Error(c, http.StatusConflict, "a contest with this ID already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	contest := models.Contest{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if err := database.CreateContest(h.db, &contest); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	zap.S().Infof("admin created contest '%s'", contest.ID)
	util.Success(c, contest, "Contest created")
}

func (h *Handler) createProblemInContest(c *gin.Context) {
	contestID := c.Param("id")
	var req struct {
		ID     string `json:"id"`
		Name   string `json:"name" binding:"required"`
		Points int    `json:"points" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	contest, err := database.GetContest(h.db, contestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "contest not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}
	if contest.IsFinalized {
		util.Error(c, http.StatusConflict, "contest is already finalized")
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	problem := models.Problem{
		ID:        req.ID,
		ContestID: contestID,
		Name:      req.Name,
		Points:    req.Points,
	}
	if err := database.CreateProblem(h.db, &problem); err != nil {
		if errors.Is(err, database.ErrInvalidPoints) {
			util.Error(c, http.StatusBadRequest, err)
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}
	zap.S().Infof("admin added problem '%s' (%d points) to contest '%s'", problem.ID, problem.Points, contestID)
	util.Success(c, problem, "Problem created")
}

func (h *Handler) getContestSubmissions(c *gin.Context) {
	subs, err := database.GetContestSubmissions(h.db, c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, subs, "ok")
}

// previewLeaderboard shows what finalizing right now would produce. Finalized
// contests are answered with their stored leaderboard.
func (h *Handler) previewLeaderboard(c *gin.Context) {
	contestID := c.Param("id")
	board, err := h.finalizer.Preview(c.Request.Context(), contestID)
	if errors.Is(err, finalize.ErrAlreadyFinalized) {
		final, err := database.GetFinalLeaderboard(h.db, contestID)
		if err != nil {
			util.Error(c, http.StatusInternalServerError, err)
			return
		}
		util.Success(c, final, "Final leaderboard retrieved")
		return
	}
	if err != nil {
		util.Error(c, finalizeStatus(err), err)
		return
	}
	util.Success(c, board, "Leaderboard preview computed")
}

func (h *Handler) finalizeContest(c *gin.Context) {
	contestID := c.Param("id")
	board, err := h.finalizer.Finalize(c.Request.Context(), contestID)
	if err != nil {
		util.Error(c, finalizeStatus(err), err)
		return
	}
	zap.S().Infof("admin %s finalized contest '%s'", c.GetString("userID"), contestID)
	util.Success(c, gin.H{"leaderboard": board}, "Contest finalized")
}

func finalizeStatus(err error) int {
	switch {
	case errors.Is(err, finalize.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, finalize.ErrAlreadyFinalized), errors.Is(err, finalize.ErrContestNotEnded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
