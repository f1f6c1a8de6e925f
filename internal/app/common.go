package app

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/kodewerx/steevesync/internal/backup"
	"github.com/kodewerx/steevesync/internal/config"
	"github.com/kodewerx/steevesync/internal/saves"
	"github.com/kodewerx/steevesync/internal/store"
)

// getConfigDir returns the settings directory, honoring the --config-dir flag.
func getConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	return config.Dir()
}

// getDataDir returns the data directory, honoring the --data-dir flag.
func getDataDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	return config.DataDir()
}

func loadSettings() (*config.Settings, error) {
	dir, err := getConfigDir()
	if err != nil {
		return nil, err
	}
	settings, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// openCatalog opens (creating if needed) the backup and sync-event catalog.
func openCatalog() (*store.Store, error) {
	dir, err := getDataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	catalog, err := store.New(filepath.Join(dir, "steevesync.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if err := catalog.CreateSchema(); err != nil {
		catalog.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return catalog, nil
}

func newBackupStore(settings *config.Settings, catalog *store.Store) (*backup.Store, error) {
	root := settings.BackupRoot
	if root == "" {
		var err error
		root, err = backupRootUnder()
		if err != nil {
			return nil, err
		}
	}
	return backup.New(root, catalog, nil)
}

func backupRootUnder() (string, error) {
	dir, err := getDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "Backups"), nil
}

func newResolver(settings *config.Settings) *saves.Resolver {
	return &saves.Resolver{
		SteamSaveDir: settings.SteamSaveDir,
		XboxSaveDir:  settings.XboxSaveDir,
		SteamRoot:    settings.SteamRoot,
	}
}

// resolveSlots resolves the save location for every edition. Editions
// that cannot be found are reported in the second return value; the
// daemon runs degraded with whatever was found.
func resolveSlots(settings *config.Settings) ([]*saves.Slot, map[saves.Edition]error) {
	resolver := newResolver(settings)
	var slots []*saves.Slot
	missing := make(map[saves.Edition]error)
	for _, e := range saves.Editions {
		slot, err := resolver.Resolve(e)
		if err != nil {
			missing[e] = err
			log.WithError(err).WithField("edition", e).Warn("Save location not found")
			continue
		}
		slots = append(slots, slot)
	}
	return slots, missing
}

// getPIDFile returns the daemon PID file path, honoring --pid-file.
func getPIDFile() (string, error) {
	if pidFile != "" {
		return pidFile, nil
	}
	dir, err := getDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "steevesync.pid"), nil
}

// getLogFile returns the daemon log file path, honoring --log-file and the
// log_file setting.
func getLogFile() (string, error) {
	if logFile != "" {
		return logFile, nil
	}
	if settings, err := loadSettings(); err == nil && settings.LogFile != "" {
		return settings.LogFile, nil
	}
	dir, err := getDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "steevesync.log"), nil
}
