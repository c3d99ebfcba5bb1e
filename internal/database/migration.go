package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"worship_management/internal/models"
)

// AutoMigrate creates or updates every table. Parents come before the
// join tables that reference them.
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	tables := []interface{}{
		&models.User{},
		&models.Song{},
		&models.Event{},
		&models.SongAdaptation{},
		&models.EventSong{},
	}

	for _, table := range tables {
		if err := db.AutoMigrate(table); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", table, err)
		}
	}

	log.Info("database migration completed")
	return nil
}
