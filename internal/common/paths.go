package common

import (
	"os"
	"path/filepath"
)

// GetDataDir returns the base data directory path.
// Priority:
// 1. DOCKERSIM_DIR from config
// 2. $HOME/.dockersim (default)
// 3. ./data (fallback if HOME is not set)
func GetDataDir() string {
	cfg, err := LoadConfig()
	if err == nil && cfg.Directory.DataDir != "" {
		return cfg.Directory.DataDir
	}
	return getDataDir()
}

// GetDatabasePath returns the SQLite database file path.
// Default: {DataDir}/dockersim.db
func GetDatabasePath() string {
	cfg, err := LoadConfig()
	if err == nil && cfg.Directory.SQLiteDatabase != "" {
		return cfg.Directory.SQLiteDatabase
	}
	return filepath.Join(GetDataDir(), "dockersim.db")
}

// EnsureDataDir creates the data directory when it does not exist.
func EnsureDataDir() (string, error) {
	dir := GetDataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
