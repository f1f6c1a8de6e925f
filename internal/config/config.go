// Package config loads steevesync settings from the per-user settings file,
// environment, and flag overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "settings"
	configType = "toml"
	envPrefix  = "STEEVESYNC"
)

// Settings are the runtime knobs. Everything has a sensible default; the
// settings file is optional.
type Settings struct {
	// SteamSaveDir / XboxSaveDir bypass discovery when set.
	SteamSaveDir string `toml:"steam_save_dir"`
	XboxSaveDir  string `toml:"xbox_save_dir"`

	// SteamRoot overrides the Steam install root used for library discovery.
	SteamRoot string `toml:"steam_root"`

	// Debounce is the watcher settling window.
	Debounce time.Duration `toml:"debounce"`

	// BackupRoot overrides the default backup location.
	BackupRoot string `toml:"backup_root"`

	// MaxBackups is the default keep count for `backups prune`.
	MaxBackups int `toml:"max_backups"`

	// LogFile is where the daemon writes its log.
	LogFile string `toml:"log_file"`
}

// Dir returns the per-user config directory:
// %AppData%\KodeWerx\SteeveSync on Windows, the XDG config dir elsewhere.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(base, "KodeWerx", "SteeveSync"), nil
}

// DataDir returns the directory holding the catalog, PID file, and default
// log file.
func DataDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// DefaultBackupRoot is the user-visible backup location:
// %AppData%\KodeWerx\SteeveSync\data\Backups.
func DefaultBackupRoot() (string, error) {
	data, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(data, "Backups"), nil
}

func defaults() map[string]any {
	return map[string]any{
		"steam_save_dir": "",
		"xbox_save_dir":  "",
		"steam_root":     "",
		"debounce":       "500ms",
		"backup_root":    "",
		"max_backups":    10,
		"log_file":       "",
	}
}

// Load reads settings from dir/settings.toml, falling back to defaults and
// honoring STEEVESYNC_* environment variables. A missing file is not an
// error.
func Load(dir string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	s := &Settings{
		SteamSaveDir: v.GetString("steam_save_dir"),
		XboxSaveDir:  v.GetString("xbox_save_dir"),
		SteamRoot:    v.GetString("steam_root"),
		Debounce:     v.GetDuration("debounce"),
		BackupRoot:   v.GetString("backup_root"),
		MaxBackups:   v.GetInt("max_backups"),
		LogFile:      v.GetString("log_file"),
	}

	if s.MaxBackups < 1 {
		return nil, fmt.Errorf("max_backups must be > 0, got %d", s.MaxBackups)
	}
	return s, nil
}

// Path returns the settings file location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, configName+"."+configType)
}
