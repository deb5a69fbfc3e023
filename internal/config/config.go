package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Config represents the main configuration for starforge.
type Config struct {
	BaseDir     string            `toml:"base_dir"`
	LogDir      string            `toml:"log_dir"`
	Storage     StorageConfig     `toml:"storage"`
	Persistence PersistenceConfig `toml:"persistence"`
	Encryption  EncryptionConfig  `toml:"encryption"`
	Gateway     GatewayConfig     `toml:"gateway"`
}

// StorageConfig selects the persistence backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StorageConfig struct {
	Type string `toml:"type"` // "directory" or "blob"

	// Directory-specific fields (only used when Type == "directory")
	CampaignsDir string `toml:"campaigns_dir,omitempty"`

	// Blob-specific fields (only used when Type == "blob")
	BlobStore string `toml:"blob_store,omitempty"` // "memory", "file", "sqlite" or "s3"
	BlobKey   string `toml:"blob_key,omitempty"`
	BlobPath  string `toml:"blob_path,omitempty"` // directory for "file", database file for "sqlite"

	// S3-specific fields (only used when BlobStore == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`
	// S3Endpoint points at an S3-compatible service instead of AWS.
	S3Endpoint string `toml:"s3_endpoint,omitempty"`
}

// PersistenceConfig controls how store mutations are committed.
type PersistenceConfig struct {
	Mode string `toml:"mode"` // "detached" (default) or "queued"
}

// EncryptionConfig holds paths to the age key pair used to seal stored campaigns.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// GatewayConfig configures the reference API and the AI text generator.
type GatewayConfig struct {
	SRDBaseURL     string `toml:"srd_base_url"`
	Model          string `toml:"model"`
	Language       string `toml:"language"` // BCP 47 tag translations target, e.g. "pt-BR"
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
}

// Default values filled in by NewConfig and by ApplyDefaults.
const (
	DefaultBlobKey    = "starforge_local_data_v1"
	DefaultSRDBaseURL = "https://www.dnd5eapi.co"
	DefaultModel      = "gemini-2.0-flash"
	DefaultLanguage   = "pt-BR"
	DefaultTimeout    = 60
	DefaultMaxRetries = 2
)

// Secrets are read from the environment, never from the config file.
type Secrets struct {
	GeminiAPIKey      string `env:"GEMINI_API_KEY"`
	Passphrase        string `env:"STARFORGE_PASSPHRASE"`
	S3AccessKeyID     string `env:"STARFORGE_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"STARFORGE_S3_SECRET_ACCESS_KEY"`
}

// ReadSecrets loads Secrets from environment variables.
func ReadSecrets() (Secrets, error) {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return Secrets{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

// NewConfig creates a new Config rooted at baseDir using the directory backend.
func NewConfig(baseDir string) *Config {
	cfg := &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Storage: StorageConfig{
			Type:         "directory",
			CampaignsDir: filepath.Join(baseDir, "campaigns"),
		},
		Persistence: PersistenceConfig{Mode: "detached"},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "starforge.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "starforge.key"),
		},
		Gateway: GatewayConfig{MaxRetries: DefaultMaxRetries},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero-valued settings that have a sensible default.
// MaxRetries is left alone since zero is a valid choice; NewConfig sets it.
func (c *Config) ApplyDefaults() {
	if c.Storage.Type == "blob" && c.Storage.BlobKey == "" {
		c.Storage.BlobKey = DefaultBlobKey
	}
	if c.Persistence.Mode == "" {
		c.Persistence.Mode = "detached"
	}
	if c.Gateway.SRDBaseURL == "" {
		c.Gateway.SRDBaseURL = DefaultSRDBaseURL
	}
	if c.Gateway.Model == "" {
		c.Gateway.Model = DefaultModel
	}
	if c.Gateway.Language == "" {
		c.Gateway.Language = DefaultLanguage
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		c.Gateway.TimeoutSeconds = DefaultTimeout
	}
	if c.Gateway.MaxRetries < 0 {
		c.Gateway.MaxRetries = 0
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
