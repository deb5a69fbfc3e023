package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - STARFORGE_CONFIG_PATH: config file location (default: ~/.config/starforge.toml)
//   - STARFORGE_HOME: base directory for starforge data (default: ~/.local/share/starforge)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path":   configPath,
		"base_dir":      baseDir,
		"log_dir":       filepath.Join(baseDir, "log"),
		"campaigns_dir": filepath.Join(baseDir, "campaigns"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("STARFORGE_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "starforge.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("STARFORGE_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "starforge"), nil
}
