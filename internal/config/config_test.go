package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/starforge",
		LogDir:  "/home/user/.local/share/starforge/log",
		Storage: StorageConfig{
			Type:      "blob",
			BlobStore: "sqlite",
			BlobKey:   "campaigns",
			BlobPath:  "/home/user/.local/share/starforge/starforge.db",
		},
		Persistence: PersistenceConfig{Mode: "queued"},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/starforge/keys/starforge.pub",
			PrivateKeyPath: "/home/user/.local/share/starforge/keys/starforge.key",
		},
		Gateway: GatewayConfig{
			SRDBaseURL:     "http://localhost:3000",
			Model:          "gemini-2.5-flash",
			Language:       "es",
			TimeoutSeconds: 10,
			MaxRetries:     4,
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.Storage != original.Storage {
		t.Errorf("Storage = %+v, want %+v", got.Storage, original.Storage)
	}
	if got.Persistence.Mode != "queued" {
		t.Errorf("Persistence.Mode = %q, want %q", got.Persistence.Mode, "queued")
	}
	if got.Encryption != original.Encryption {
		t.Errorf("Encryption = %+v, want %+v", got.Encryption, original.Encryption)
	}
	if got.Gateway != original.Gateway {
		t.Errorf("Gateway = %+v, want %+v", got.Gateway, original.Gateway)
	}
}

func TestManager_Read_AppliesDefaults(t *testing.T) {
	input := `
base_dir = "/srv/starforge"

[storage]
type = "blob"
blob_store = "memory"
`
	m := &Manager{}
	cfg, err := m.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if cfg.Storage.BlobKey != DefaultBlobKey {
		t.Errorf("Storage.BlobKey = %q, want %q", cfg.Storage.BlobKey, DefaultBlobKey)
	}
	if cfg.Persistence.Mode != "detached" {
		t.Errorf("Persistence.Mode = %q, want %q", cfg.Persistence.Mode, "detached")
	}
	if cfg.Gateway.SRDBaseURL != DefaultSRDBaseURL {
		t.Errorf("Gateway.SRDBaseURL = %q, want %q", cfg.Gateway.SRDBaseURL, DefaultSRDBaseURL)
	}
	if cfg.Gateway.Model != DefaultModel {
		t.Errorf("Gateway.Model = %q, want %q", cfg.Gateway.Model, DefaultModel)
	}
	if cfg.Gateway.Language != DefaultLanguage {
		t.Errorf("Gateway.Language = %q, want %q", cfg.Gateway.Language, DefaultLanguage)
	}
	if cfg.Gateway.TimeoutSeconds != DefaultTimeout {
		t.Errorf("Gateway.TimeoutSeconds = %d, want %d", cfg.Gateway.TimeoutSeconds, DefaultTimeout)
	}
}

func TestManager_Read_InvalidTOML(t *testing.T) {
	m := &Manager{}
	if _, err := m.Read(strings.NewReader("[storage\ntype=")); err == nil {
		t.Fatal("Read() expected error for malformed TOML")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/starforge")

	if cfg.BaseDir != "/data/starforge" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/starforge")
	}
	if cfg.LogDir != "/data/starforge/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/starforge/log")
	}
	if cfg.Storage.Type != "directory" {
		t.Errorf("Storage.Type = %q, want %q", cfg.Storage.Type, "directory")
	}
	if cfg.Storage.CampaignsDir != "/data/starforge/campaigns" {
		t.Errorf("Storage.CampaignsDir = %q, want %q", cfg.Storage.CampaignsDir, "/data/starforge/campaigns")
	}
	if cfg.Encryption.Type != "none" {
		t.Errorf("Encryption.Type = %q, want %q", cfg.Encryption.Type, "none")
	}
	if cfg.Encryption.PublicKeyPath != "/data/starforge/keys/starforge.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", cfg.Encryption.PublicKeyPath, "/data/starforge/keys/starforge.pub")
	}
	if cfg.Gateway.Model != DefaultModel {
		t.Errorf("Gateway.Model = %q, want %q", cfg.Gateway.Model, DefaultModel)
	}
	if cfg.Gateway.MaxRetries != DefaultMaxRetries {
		t.Errorf("Gateway.MaxRetries = %d, want %d", cfg.Gateway.MaxRetries, DefaultMaxRetries)
	}
}

func TestReadSecrets(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key-123")
	t.Setenv("STARFORGE_PASSPHRASE", "hunter2")
	t.Setenv("STARFORGE_S3_ACCESS_KEY_ID", "")
	t.Setenv("STARFORGE_S3_SECRET_ACCESS_KEY", "")

	s, err := ReadSecrets()
	if err != nil {
		t.Fatalf("ReadSecrets() error = %v", err)
	}
	if s.GeminiAPIKey != "key-123" {
		t.Errorf("GeminiAPIKey = %q, want %q", s.GeminiAPIKey, "key-123")
	}
	if s.Passphrase != "hunter2" {
		t.Errorf("Passphrase = %q, want %q", s.Passphrase, "hunter2")
	}
	if s.S3AccessKeyID != "" {
		t.Errorf("S3AccessKeyID = %q, want empty", s.S3AccessKeyID)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "starforge.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "starforge.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "starforge.toml")
		cfg := NewConfig(dir)
		cfg.Storage = StorageConfig{Type: "blob", BlobStore: "file", BlobPath: filepath.Join(dir, "blobs")}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Storage.BlobStore != "file" {
			t.Errorf("Storage.BlobStore = %q, want %q", got.Storage.BlobStore, "file")
		}
		if got.Storage.BlobKey != DefaultBlobKey {
			t.Errorf("Storage.BlobKey = %q, want %q", got.Storage.BlobKey, DefaultBlobKey)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/starforge.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
