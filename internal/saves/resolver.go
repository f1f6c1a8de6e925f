// Package saves locates and models the Steam and Xbox save files that the
// sync engine mirrors against each other.
package saves

import (
	"errors"
	"fmt"
	"os"
)

// DiscoveryError reports that an edition's save location could not be found.
// It is not fatal: the engine runs in degraded single-side mode when one
// edition is absent.
type DiscoveryError struct {
	Edition Edition
	Path    string
	Reason  string
}

func (err *DiscoveryError) Error() string {
	if err.Path == "" {
		return fmt.Sprintf("%s: %s", err.Edition, err.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", err.Edition, err.Reason, err.Path)
}

// Resolver discovers save locations on this machine. All roots are
// overridable so that explicit paths from the settings file (and tests) take
// precedence over platform discovery.
type Resolver struct {
	// SteamSaveDir and XboxSaveDir, when set, are used directly instead of
	// scanning the platform install locations.
	SteamSaveDir string
	XboxSaveDir  string

	// SteamRoot overrides the Steam installation root used for library
	// discovery. Empty means the platform default.
	SteamRoot string

	// PackagesRoot overrides the per-user Microsoft Store packages directory.
	// Empty means %LOCALAPPDATA%\Packages.
	PackagesRoot string
}

// Resolve finds the save slot for one edition. A *DiscoveryError return means
// the edition is simply not present on this machine; other errors indicate
// I/O problems while scanning.
//
// Resolution happens once at startup; the engine re-locates the live file
// within the resolved directory on every event but never re-resolves the
// directory itself.
func (r *Resolver) Resolve(e Edition) (*Slot, error) {
	dir, err := r.saveDir(e)
	if err != nil {
		return nil, err
	}

	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, &DiscoveryError{Edition: e, Path: dir, Reason: "save directory missing"}
	}

	path, err := LocateSave(dir, e)
	if err != nil {
		// A resolvable directory with no save yet is still a watchable slot:
		// the first save the game writes will be picked up by the watcher.
		var derr *DiscoveryError
		if errors.As(err, &derr) {
			return &Slot{Edition: e, Dir: dir}, nil
		}
		return nil, err
	}

	return &Slot{Edition: e, Dir: dir, Path: path}, nil
}

func (r *Resolver) saveDir(e Edition) (string, error) {
	switch e {
	case Steam:
		if r.SteamSaveDir != "" {
			return r.SteamSaveDir, nil
		}
		return steamSaveDir(r.steamRoot())
	case Xbox:
		if r.XboxSaveDir != "" {
			return r.XboxSaveDir, nil
		}
		return xboxSaveDir(r.packagesRoot())
	default:
		return "", fmt.Errorf("unknown edition %d", int(e))
	}
}
