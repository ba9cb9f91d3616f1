package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/retroview/retroview-go/internal/conf"
)

// SQLiteStore implements DataStore for SQLite.
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection in WAL mode, creating the
// store file and running migrations if needed. WAL mode produces the -wal
// and -shm sidecar files the archive codec snapshots.
func (store *SQLiteStore) Open() error {
	path := store.Settings.Store.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: createGormLogger(store.Settings.Debug),
	})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, path)
}

// Close closes the underlying database connection.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access underlying connection: %w", err)
	}
	return sqlDB.Close()
}

// StorePath returns the path of the primary store file.
func (store *SQLiteStore) StorePath() string {
	return store.Settings.Store.Path
}

// SidecarPaths returns the WAL and SHM sidecar paths for the store file.
// The files may or may not exist at any given moment.
func (store *SQLiteStore) SidecarPaths() []string {
	return store.Settings.Store.SidecarPaths()
}
