package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - ARKEEP_CONFIG_PATH: config file location (default: ~/.config/arkeep.toml)
//   - ARKEEP_HOME: base directory for arkeep data (default: ~/.local/share/arkeep)
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
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking ARKEEP_CONFIG_PATH
// first, then falling back to the default ~/.config/arkeep.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("ARKEEP_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "arkeep.toml"), nil
}

// getBaseDir returns the base directory for arkeep data, checking ARKEEP_HOME
// first, then falling back to the XDG default ~/.local/share/arkeep.
func getBaseDir() (string, error) {
	if path := os.Getenv("ARKEEP_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "arkeep"), nil
}
