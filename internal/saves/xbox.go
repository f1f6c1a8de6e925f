package saves

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Microsoft Store package identity for Deep Rock Galactic.
const xboxPackageName = "CoffeeStainStudios.DeepRockGalactic_496a1srhmar9w"

// xboxSaveDir locates the game's connected-storage container directory under
// the per-user packages root. Saves live at
//
//	Packages\<package>\SystemAppData\wgs\<profile container>\
//
// where <profile container> is an opaque per-profile directory. The first
// container holding a save file wins; when no container has a save yet, the
// first container directory is returned so the watcher can pick up the
// game's initial write.
func xboxSaveDir(packagesRoot string) (string, error) {
	wgs := filepath.Join(packagesRoot, xboxPackageName, "SystemAppData", "wgs")
	if fi, err := os.Stat(wgs); err != nil || !fi.IsDir() {
		return "", &DiscoveryError{Edition: Xbox, Path: wgs, Reason: "Xbox edition not installed"}
	}

	entries, err := os.ReadDir(wgs)
	if err != nil {
		return "", &DiscoveryError{Edition: Xbox, Path: wgs, Reason: "cannot read wgs directory"}
	}

	var firstContainer string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(wgs, entry.Name())
		if firstContainer == "" {
			firstContainer = dir
		}
		if containsSave(dir, Xbox) {
			return dir, nil
		}
	}

	if firstContainer != "" {
		return firstContainer, nil
	}
	return "", &DiscoveryError{Edition: Xbox, Path: wgs, Reason: "no save container found"}
}

func containsSave(dir string, e Edition) bool {
	found := false
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && e.MatchSaveName(d.Name()) {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}

// defaultPackagesRoot is %LOCALAPPDATA%\Packages on Windows. os.UserCacheDir
// resolves to %LOCALAPPDATA% there, and to a harmless per-user cache dir on
// other platforms.
func defaultPackagesRoot() string {
	cache, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(cache, "Packages")
}

func (r *Resolver) packagesRoot() string {
	if r.PackagesRoot != "" {
		return r.PackagesRoot
	}
	return defaultPackagesRoot()
}
