package app

import (
	"path/filepath"
	"testing"
)

func TestRootCommand(t *testing.T) {
	if RootCmd.Use != "steevesync" {
		t.Errorf("expected Use to be 'steevesync', got '%s'", RootCmd.Use)
	}

	if RootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	if RootCmd.Long == "" {
		t.Error("expected Long description to be set")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	expectedCommands := []string{"watch", "status", "backups", "config"}
	foundCommands := make(map[string]bool)

	for _, cmd := range RootCmd.Commands() {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		if !foundCommands[expected] {
			t.Errorf("expected command '%s' to be registered", expected)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	for _, name := range []string{"config-dir", "data-dir", "verbose"} {
		flag := RootCmd.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("expected --%s flag to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected --%s flag to have usage text", name)
		}
	}
}

func TestDataDirOverride(t *testing.T) {
	tmpDir := t.TempDir()

	oldDataDir := dataDir
	dataDir = tmpDir
	defer func() { dataDir = oldDataDir }()

	got, err := getDataDir()
	if err != nil {
		t.Fatalf("getDataDir() error = %v, want nil", err)
	}
	if got != tmpDir {
		t.Errorf("getDataDir() = %q, want %q", got, tmpDir)
	}

	pidPath, err := getPIDFile()
	if err != nil {
		t.Fatalf("getPIDFile() error = %v, want nil", err)
	}
	if want := filepath.Join(tmpDir, "steevesync.pid"); pidPath != want {
		t.Errorf("getPIDFile() = %q, want %q", pidPath, want)
	}

	logPath, err := getLogFile()
	if err != nil {
		t.Fatalf("getLogFile() error = %v, want nil", err)
	}
	if want := filepath.Join(tmpDir, "steevesync.log"); logPath != want {
		t.Errorf("getLogFile() = %q, want %q", logPath, want)
	}
}

func TestConfigDirOverride(t *testing.T) {
	tmpDir := t.TempDir()

	oldConfigDir := configDir
	configDir = tmpDir
	defer func() { configDir = oldConfigDir }()

	got, err := getConfigDir()
	if err != nil {
		t.Fatalf("getConfigDir() error = %v, want nil", err)
	}
	if got != tmpDir {
		t.Errorf("getConfigDir() = %q, want %q", got, tmpDir)
	}

	// Default settings load from an empty directory
	settings, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings() error = %v, want nil", err)
	}
	if settings.MaxBackups < 1 {
		t.Errorf("loadSettings() MaxBackups = %d, want >= 1", settings.MaxBackups)
	}
}
