package blobstore

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"starforge/internal/config"
	"starforge/internal/testutil"
)

func TestNewBlobStoreFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func(dir string) config.StorageConfig
		wantErr bool
	}{
		{
			name: "memory",
			cfg:  func(string) config.StorageConfig { return config.StorageConfig{Type: "blob", BlobStore: "memory"} },
		},
		{
			name: "file",
			cfg: func(dir string) config.StorageConfig {
				return config.StorageConfig{Type: "blob", BlobStore: "file", BlobPath: filepath.Join(dir, "blobs")}
			},
		},
		{
			name: "sqlite",
			cfg: func(dir string) config.StorageConfig {
				return config.StorageConfig{Type: "blob", BlobStore: "sqlite", BlobPath: filepath.Join(dir, "starforge.db")}
			},
		},
		{
			name:    "file without path",
			cfg:     func(string) config.StorageConfig { return config.StorageConfig{Type: "blob", BlobStore: "file"} },
			wantErr: true,
		},
		{
			name:    "sqlite without path",
			cfg:     func(string) config.StorageConfig { return config.StorageConfig{Type: "blob", BlobStore: "sqlite"} },
			wantErr: true,
		},
		{
			name:    "s3 without bucket",
			cfg:     func(string) config.StorageConfig { return config.StorageConfig{Type: "blob", BlobStore: "s3"} },
			wantErr: true,
		},
		{
			name:    "unknown",
			cfg:     func(string) config.StorageConfig { return config.StorageConfig{Type: "blob", BlobStore: "floppy"} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewBlobStoreFromConfig(context.Background(), tt.cfg(t.TempDir()), config.Secrets{}, testutil.FixedClock())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBlobStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got == nil {
				t.Fatal("NewBlobStoreFromConfig() returned nil")
			}
			if c, ok := got.(io.Closer); ok {
				c.Close()
			}
		})
	}
}
