package config

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// fileSettings is the on-disk shape of the settings file. Debounce is a
// string ("500ms") so the file stays human-editable.
type fileSettings struct {
	SteamSaveDir string `toml:"steam_save_dir"`
	XboxSaveDir  string `toml:"xbox_save_dir"`
	SteamRoot    string `toml:"steam_root"`
	Debounce     string `toml:"debounce"`
	BackupRoot   string `toml:"backup_root"`
	MaxBackups   int    `toml:"max_backups"`
	LogFile      string `toml:"log_file"`
}

// WriteDefault writes a settings file with default values to dir, creating
// the directory as needed. It refuses to clobber an existing file.
func WriteDefault(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := Path(dir)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("settings file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to probe settings file: %w", err)
	}

	data, err := toml.Marshal(fileSettings{
		Debounce:   "500ms",
		MaxBackups: 10,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal default settings: %w", err)
	}

	header := []byte("# steevesync settings. Empty values mean automatic discovery.\n")
	tmp := filepath.Join(dir, "."+configName+".tmp")
	if err := os.WriteFile(tmp, append(header, data...), 0644); err != nil {
		return "", fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to place settings file: %w", err)
	}
	return path, nil
}
