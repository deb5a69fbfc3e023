package encryption

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means the key pair has not been generated yet.
var ErrNotConfigured = errors.New("encryption keys not set up")

// Sealer encrypts documents on their way to storage and decrypts them on the
// way back, using an Encryptor unlocked once per session.
type Sealer struct {
	enc Encryptor
	dec DecryptionContext
}

// NewSealer unlocks enc with passphrase.
func NewSealer(enc Encryptor, passphrase string) (*Sealer, error) {
	if !enc.IsConfigured() {
		return nil, ErrNotConfigured
	}
	dec, err := enc.Unlock(passphrase)
	if err != nil {
		return nil, fmt.Errorf("unlocking encryption key: %w", err)
	}
	return &Sealer{enc: enc, dec: dec}, nil
}

func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	out, err := s.enc.Encrypt(plain)
	if err != nil {
		return nil, fmt.Errorf("sealing: %w", err)
	}
	return out, nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	out, err := s.dec.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("opening: %w", err)
	}
	return out, nil
}
