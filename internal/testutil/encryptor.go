package testutil

import (
	"testing"

	"starforge/internal/encryption"
)

// NewTestSealer returns a Sealer backed by the deterministic test encryptor.
func NewTestSealer(t *testing.T) *encryption.Sealer {
	t.Helper()
	s, err := encryption.NewSealer(encryption.NewTestEncryptor(), "")
	if err != nil {
		t.Fatalf("creating test sealer: %v", err)
	}
	return s
}
