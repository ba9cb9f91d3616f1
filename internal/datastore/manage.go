// manage.go: database schema management
package datastore

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/retroview/retroview-go/internal/logging"
)


// performAutoMigration creates or updates the card library schema.
func performAutoMigration(db *gorm.DB, debug bool, path string) error {
	err := db.AutoMigrate(
		&Title{},
		&Author{},
		&Subject{},
		&Date{},
		&Card{},
		&Crop{},
		&Collection{},
		&CollectionCard{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate card store: %w", err)
	}

	if debug {
		logger().Debug("Store schema migrated", "path", path)
	}
	return nil
}

// logger resolves the service logger per call so handlers configured after
// package load are picked up.
func logger() *slog.Logger {
	return logging.ForService("datastore")
}
