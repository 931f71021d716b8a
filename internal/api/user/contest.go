package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/ZJUSCT/contestd/internal/database"
	"github.com/ZJUSCT/contestd/internal/finalize"
	"github.com/ZJUSCT/contestd/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (h *Handler) getAllContests(c *gin.Context) {
	contests, err := database.GetAllContests(h.db)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, contests, "Contests loaded")
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
	contest.FinalLeaderboard = nil

	// For contests that haven't started, hide the problem list.
	if time.Now().Before(contest.StartTime) {
		contest.Problems = nil
		util.Success(c, contest, "Contest found, but is not currently active")
		return
	}
	util.Success(c, contest, "Contest found")
}

// getContestLeaderboard serves the stored leaderboard of a finalized contest and
// live standings otherwise.
func (h *Handler) getContestLeaderboard(c *gin.Context) {
	contestID := c.Param("id")
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
		board, err := database.GetFinalLeaderboard(h.db, contestID)
		if err != nil {
			util.Error(c, http.StatusInternalServerError, err)
			return
		}
		util.Success(c, gin.H{"finalized": true, "leaderboard": board}, "Final leaderboard retrieved")
		return
	}

	board, err := h.finalizer.Live(c.Request.Context(), contestID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, finalize.ErrNotFound) {
			status = http.StatusNotFound
		}
		util.Error(c, status, err)
		return
	}
	util.Success(c, gin.H{"finalized": false, "leaderboard": board}, "Live leaderboard computed")
}

func (h *Handler) getRatingLeaderboard(c *gin.Context) {
	rows, err := database.GetRatingLeaderboard(h.db)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	if rows == nil {
		rows = []database.RatingRow{}
	}
	util.Success(c, rows, "Rating leaderboard retrieved")
}
