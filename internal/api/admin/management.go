package admin

import (
	"fmt"
	"net/http"

	"github.com/ZJUSCT/contestd/internal/catalog"
	"github.com/ZJUSCT/contestd/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// reload re-reads contest definitions from contests_root and upserts them.
func (h *Handler) reload(c *gin.Context) {
	if h.cfg.ContestsRoot == "" {
		util.Error(c, http.StatusBadRequest, "contests_root is not configured on the server")
		return
	}

	zap.S().Info("starting reload process...")
	res, err := catalog.Sync(h.db, h.cfg.ContestsRoot)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, fmt.Errorf("failed to sync contests: %w", err))
		return
	}

	util.Success(c, gin.H{
		"contests_loaded": res.Contests,
		"problems_loaded": res.Problems,
		"skipped":         res.Skipped,
	}, "Reload successful")
}
