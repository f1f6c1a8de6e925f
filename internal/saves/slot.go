package saves

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Slot is the resolved, watched save location for one edition. Dir is the
// directory the change watcher subscribes to; Path is the save file found at
// resolve time. The live file can be replaced under a different name (the
// Xbox edition writes a fresh container file per save), so callers re-locate
// the current file with LocateSave before acting on an event.
type Slot struct {
	Edition Edition
	Dir     string
	Path    string
}

// MatchSaveName reports whether a file leaf name looks like the edition's
// current save file.
//
// Steam names player saves "<SteamID64>_Player.sav". Xbox connected-storage
// containers are stored under opaque 32-hex-digit leaf names.
func (e Edition) MatchSaveName(name string) bool {
	switch e {
	case Steam:
		return strings.HasSuffix(name, "_Player.sav")
	case Xbox:
		if len(name) != 32 {
			return false
		}
		for _, ch := range name {
			if !isHexDigit(ch) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isHexDigit(ch rune) bool {
	switch {
	case ch >= '0' && ch <= '9':
		return true
	case ch >= 'a' && ch <= 'f':
		return true
	case ch >= 'A' && ch <= 'F':
		return true
	}
	return false
}

// LocateSave walks dir and returns the first regular file matching the
// edition's save-file pattern. The walk is lexicographic, so repeated calls
// pick the same file when several candidates exist (single-account policy:
// first match wins, the rest are ignored).
func LocateSave(dir string, e Edition) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !e.MatchSaveName(d.Name()) {
			return nil
		}
		found = path
		return fs.SkipAll
	})
	if err != nil {
		return "", fmt.Errorf("walk %s save dir: %w", e, err)
	}
	if found == "" {
		return "", &DiscoveryError{Edition: e, Path: dir, Reason: "no save file found"}
	}
	return found, nil
}
