// Package encryption seals persisted campaign documents at rest.
package encryption

// Encryptor encrypts documents with a public key and unlocks the matching
// private key with a passphrase.
type Encryptor interface {
	// Setup generates a key pair, stores the public key in plaintext and the
	// private key encrypted with passphrase. Called by `starforge config init`.
	Setup(passphrase string) error

	// Encrypt returns the ciphertext of plain. It needs the public key only.
	Encrypt(plain []byte) ([]byte, error)

	// Unlock decrypts the private key and returns a DecryptionContext for the
	// session. A wrong passphrase is an error.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether the key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory only.
type DecryptionContext interface {
	Decrypt(sealed []byte) ([]byte, error)
}
