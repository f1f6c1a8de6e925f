package saves

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Steam app ID for Deep Rock Galactic.
// See: https://steamdb.info/app/548430/
const drgAppID = "548430"

// steamSaveDir scans the Steam installation for the Deep Rock Galactic
// install and returns its save-game directory.
//
// Steam records additional library locations in config/libraryfolders.vdf
// under the install root. Each library that contains the game has a
// steamapps/appmanifest_<appid>.acf naming the install directory under
// steamapps/common.
func steamSaveDir(root string) (string, error) {
	if _, err := os.Stat(root); err != nil {
		return "", &DiscoveryError{Edition: Steam, Path: root, Reason: "Steam not installed"}
	}

	for _, lib := range steamLibraries(root) {
		manifest := filepath.Join(lib, "steamapps", "appmanifest_"+drgAppID+".acf")
		installDir, err := vdfValue(manifest, "installdir")
		if err != nil || installDir == "" {
			continue
		}
		saveDir := filepath.Join(lib, "steamapps", "common", installDir, "FSD", "Saved", "SaveGames")
		if fi, err := os.Stat(saveDir); err == nil && fi.IsDir() {
			return saveDir, nil
		}
	}

	return "", &DiscoveryError{Edition: Steam, Path: root, Reason: "Deep Rock Galactic not installed"}
}

// steamLibraries returns the install root plus every library path declared in
// libraryfolders.vdf. Unreadable or missing vdf just means a single-library
// install.
func steamLibraries(root string) []string {
	libs := []string{root}
	for _, path := range vdfValues(filepath.Join(root, "config", "libraryfolders.vdf"), "path") {
		if path != root {
			libs = append(libs, path)
		}
	}
	return libs
}

// vdfValue returns the first value for key in a Valve KeyValues file.
func vdfValue(path, key string) (string, error) {
	values := vdfValues(path, key)
	if len(values) == 0 {
		return "", fmt.Errorf("key %q not found in %s", key, path)
	}
	return values[0], nil
}

// vdfValues extracts every value stored under key in a Valve KeyValues file.
// The format nests quoted "key" "value" pairs inside braces; a line-oriented
// scan of quoted pairs is sufficient for the flat keys we need (installdir,
// path) and sidesteps a full parser.
func vdfValues(path, key string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var values []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		k, v, ok := vdfPair(scanner.Text())
		if ok && strings.EqualFold(k, key) {
			values = append(values, v)
		}
	}
	return values
}

// vdfPair splits a `"key"  "value"` line. Escaped backslashes in values
// (Windows paths are written as "C:\\Program Files") are unescaped.
func vdfPair(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, `"`) {
		return "", "", false
	}

	parts := strings.SplitN(line, `"`, 5)
	// `"key"	"value"` splits into ["", key, whitespace, value, trailer].
	if len(parts) < 5 || strings.TrimSpace(parts[2]) != "" {
		return "", "", false
	}

	value = strings.ReplaceAll(parts[3], `\\`, `\`)
	return parts[1], value, true
}

// defaultSteamRoot returns the conventional Steam install root for the
// current platform. Only the Windows path matters in production; the others
// keep discovery sane when developing elsewhere.
func defaultSteamRoot() string {
	switch runtime.GOOS {
	case "windows":
		return `C:\Program Files (x86)\Steam`
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Steam")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "Steam")
	}
}

func (r *Resolver) steamRoot() string {
	if r.SteamRoot != "" {
		return r.SteamRoot
	}
	return defaultSteamRoot()
}
