package admin

import (
	"github.com/ZJUSCT/contestd/internal/config"
	"github.com/ZJUSCT/contestd/internal/finalize"
	"gorm.io/gorm"
)

// Handler holds all dependencies for the admin API handlers.
type Handler struct {
	cfg       *config.Config
	db        *gorm.DB
	finalizer *finalize.Coordinator
}

// NewHandler creates a new admin handler with its dependencies.
func NewHandler(
	cfg *config.Config,
	db *gorm.DB,
	finalizer *finalize.Coordinator,
) *Handler {
	return &Handler{
		cfg:       cfg,
		db:        db,
		finalizer: finalizer,
	}
}
