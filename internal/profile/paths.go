// Package profile lays out the per-profile state under ~/.counsel.
package profile

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.counsel, or $COUNSEL_HOME when set.
func BaseDir() string {
	if dir := os.Getenv("COUNSEL_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".counsel")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// LockPath returns the counseld lock file path for a profile.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// ServerDBPath returns the dev backend database path.
func ServerDBPath(name string) string {
	return filepath.Join(Dir(name), "server.db")
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the log file path of a component (counseld, counsel).
func LogPath(name, component string) string {
	return filepath.Join(LogDir(name), component+".log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
