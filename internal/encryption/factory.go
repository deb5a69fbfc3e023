package encryption

import (
	"fmt"

	"starforge/internal/config"
)

// Enabled reports whether cfg asks for at-rest encryption.
func Enabled(cfg config.EncryptionConfig) bool {
	return cfg.Type != "" && cfg.Type != "none"
}

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (Encryptor, error) {
	switch cfg.Type {
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	case "none", "":
		return nil, fmt.Errorf("encryption is disabled")
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
