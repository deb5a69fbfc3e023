// Package blobstore provides the key/value homes the blob backend writes its
// single campaigns document to.
package blobstore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("blob not found")

// BlobStore holds opaque byte values under string keys. Put fully replaces
// the previous value. Implementations must be safe for concurrent use.
type BlobStore interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
}

// Backuper is implemented by stores that can copy their whole contents to a
// local file in a native format.
type Backuper interface {
	BackupTo(destPath string) error
}

// validateKey rejects keys that cannot be used as a single file or object name.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, "/\\\x00") {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return nil
}
