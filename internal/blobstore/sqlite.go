package blobstore

import (
	"fmt"
	"os"
	"path/filepath"

	"starforge/internal/campaign"
	"starforge/internal/database"
)

// SQLiteStore keeps blobs in the blobs table of a SQLite database.
type SQLiteStore struct {
	db    *database.SQLiteDatabase
	clock campaign.Clock
}

var _ BlobStore = (*SQLiteStore)(nil)

// NewSQLiteStore wraps an open database.
func NewSQLiteStore(db *database.SQLiteDatabase, clock campaign.Clock) *SQLiteStore {
	return &SQLiteStore{db: db, clock: clock}
}

func (s *SQLiteStore) Get(key string) ([]byte, error) {
	data, err := s.db.GetBlob(key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return data, nil
}

func (s *SQLiteStore) Put(key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.db.PutBlob(key, data, s.clock.Now())
}

var _ Backuper = (*SQLiteStore)(nil)

// BackupTo snapshots the database into destPath. The snapshot is written
// next to destPath first and renamed into place.
func (s *SQLiteStore) BackupTo(destPath string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*.db")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()

	if err := s.db.BackupTo(tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename backup: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
