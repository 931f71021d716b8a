package user

import (
	"errors"
	"net/http"

	"github.com/ZJUSCT/contestd/internal/database"
	"github.com/ZJUSCT/contestd/internal/database/models"
	"github.com/ZJUSCT/contestd/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (h *Handler) getUserProfile(c *gin.Context) {
	userID := c.GetString("userID")
	user, err := database.GetUserByID(h.db, userID)
	if err != nil {
		util.Error(c, http.StatusNotFound, err)
		return
	}
	stats, err := database.GetProfileStats(h.db, userID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, struct {
		*models.User
		*database.ProfileStats
	}{user, stats}, "ok")
}

func (h *Handler) getRatingHistory(c *gin.Context) {
	history, err := database.GetRatingHistory(h.db, c.GetString("userID"))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, history, "ok")
}

func (h *Handler) getContestHistory(c *gin.Context) {
	results, err := database.GetContestHistory(h.db, c.GetString("userID"))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, results, "ok")
}

// getPublicRatingHistory backs the rating chart on public profiles.
func (h *Handler) getPublicRatingHistory(c *gin.Context) {
	userID := c.Param("id")
	if _, err := database.GetUserByID(h.db, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "user not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}
	history, err := database.GetRatingHistory(h.db, userID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, history, "ok")
}
