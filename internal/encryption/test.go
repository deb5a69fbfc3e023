package encryption

import (
	"bytes"
	"errors"
	"slices"
)

// testHeader marks documents sealed by TestEncryptor.
var testHeader = []byte("SFENC\x00\x00\x00")

// TestEncryptor is a deterministic, reversible stand-in for tests and the
// "test" encryption type. It prepends a fixed header and strips it again.
type TestEncryptor struct {
	setupCalled bool
}

var _ Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(string) error {
	e.setupCalled = true
	return nil
}

func (e *TestEncryptor) Encrypt(plain []byte) ([]byte, error) {
	return slices.Concat(testHeader, plain), nil
}

func (e *TestEncryptor) Unlock(string) (DecryptionContext, error) {
	return TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool { return true }

// TestDecryptionContext strips the TestEncryptor header.
type TestDecryptionContext struct{}

var _ DecryptionContext = TestDecryptionContext{}

func (TestDecryptionContext) Decrypt(sealed []byte) ([]byte, error) {
	plain, ok := bytes.CutPrefix(sealed, testHeader)
	if !ok {
		return nil, errors.New("invalid test encryption header")
	}
	return slices.Clone(plain), nil
}
