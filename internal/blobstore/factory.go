package blobstore

import (
	"context"
	"fmt"
	"time"

	"starforge/internal/campaign"
	"starforge/internal/config"
	"starforge/internal/database"
)

// NewBlobStoreFromConfig creates the BlobStore named by cfg.BlobStore.
// Stores that hold resources also implement io.Closer.
func NewBlobStoreFromConfig(ctx context.Context, cfg config.StorageConfig, secrets config.Secrets, clock campaign.Clock) (BlobStore, error) {
	switch cfg.BlobStore {
	case "memory", "":
		return NewMemoryStore(), nil
	case "file":
		if cfg.BlobPath == "" {
			return nil, fmt.Errorf("file blob store requires blob_path to be set")
		}
		return NewFileStore(cfg.BlobPath)
	case "sqlite":
		db, err := database.NewDatabaseFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(db, clock), nil
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     secrets.S3AccessKeyID,
			SecretAccessKey: secrets.S3SecretAccessKey,
			Timeout:         time.Minute,
		})
	default:
		return nil, fmt.Errorf("unknown blob store: %s", cfg.BlobStore)
	}
}
