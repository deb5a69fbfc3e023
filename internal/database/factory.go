package database

import (
	"fmt"

	"starforge/internal/config"
)

// NewDatabaseFromConfig opens the SQLite blob database named by cfg.BlobPath
// and verifies its schema is current.
func NewDatabaseFromConfig(cfg config.StorageConfig) (*SQLiteDatabase, error) {
	if cfg.BlobPath == "" {
		return nil, fmt.Errorf("sqlite blob store requires blob_path to be set")
	}
	db, err := NewSQLiteDatabase(cfg.BlobPath)
	if err != nil {
		return nil, err
	}
	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}
	return db, nil
}
