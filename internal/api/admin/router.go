package admin

import (
	"github.com/ZJUSCT/contestd/internal/api"
	"github.com/ZJUSCT/contestd/internal/config"
	"github.com/ZJUSCT/contestd/internal/finalize"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NewAdminRouter creates and configures the admin Gin engine.
func NewAdminRouter(
	cfg *config.Config,
	db *gorm.DB,
	finalizer *finalize.Coordinator) *gin.Engine {

	r := gin.Default()

	r.Use(api.CORSMiddleware(cfg.CORS))

	h := NewHandler(cfg, db, finalizer)

	v1 := r.Group("/api/v1")
	v1.Use(api.AuthMiddleware(cfg.Auth.JWT.Secret), api.RequireAdmin(db))
	{
		// Management
		v1.POST("/reload", h.reload)

		// User Management
		users := v1.Group("/users")
		{
			users.GET("", h.getAllUsers)
			users.POST("", h.createUser)
			users.GET("/:id", h.getUser)
			users.GET("/:id/rating-history", h.getUserRatingHistory)
		}

		// Judge callback
		submissions := v1.Group("/submissions")
		{
			submissions.POST("", h.recordSubmission)
		}

		// Contest & Problem Management
		contests := v1.Group("/contests")
		{
			contests.GET("", h.getAllContests)
			contests.POST("", h.createContest)
			contests.GET("/:id", h.getContest)
			contests.POST("/:id/problems", h.createProblemInContest)
			contests.GET("/:id/submissions", h.getContestSubmissions)
			contests.GET("/:id/leaderboard", h.previewLeaderboard)
			contests.POST("/:id/finalize", h.finalizeContest)
		}
	}

	return r
}
