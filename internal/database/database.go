package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZJUSCT/contestd/internal/config"
	"github.com/ZJUSCT/contestd/internal/database/models"
	"go.uber.org/zap"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Init(cfg config.Storage) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		if err := ensureSQLiteDir(cfg.Database); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(cfg.Database)
	case "mysql":
		dialector = mysql.Open(cfg.Database)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Contest{},
		&models.Problem{},
		&models.Submission{},
		&models.RatingChange{},
	)
}

func ensureSQLiteDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || filepath.Dir(dsn) == "." {
		return nil
	}
	if _, err := os.Stat(dsn); os.IsNotExist(err) {
		zap.S().Infof("database file not found at '%s', creating directory for it.", dsn)
		// Ensure the directory for the database file exists.
		return os.MkdirAll(filepath.Dir(dsn), 0755)
	}
	return nil
}
