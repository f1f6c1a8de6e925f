package output

import (
	"strings"
	"testing"
	"time"

	"github.com/kodewerx/steevesync/internal/saves"
	"github.com/kodewerx/steevesync/internal/store"
)

func TestRenderBackupTable_Empty(t *testing.T) {
	got := RenderBackupTable(nil)
	if got != "No backups yet.\n" {
		t.Errorf("RenderBackupTable(nil) = %q", got)
	}
}

func TestRenderBackupTable(t *testing.T) {
	records := []*store.BackupRecord{
		{
			ID:        1,
			Edition:   saves.Steam,
			Filename:  "2024-03-01-120000.000-100_Player.sav",
			StoredAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			SizeBytes: 2048,
		},
	}

	got := RenderBackupTable(records)
	for _, want := range []string{"ID", "Steam", "2 KB", "100_Player.sav"} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderBackupTable() missing %q:\n%s", want, got)
		}
	}
}

func TestRenderSyncEventTable(t *testing.T) {
	events := []*store.SyncEventRecord{
		{
			SourceEdition: saves.Xbox,
			DestEdition:   "Steam",
			Status:        store.StatusSynced,
			OccurredAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			SourceEdition: saves.Steam,
			Status:        store.StatusFailed,
			ErrorKind:     "io",
			Detail:        "permission denied",
			OccurredAt:    time.Date(2024, 3, 1, 12, 1, 0, 0, time.UTC),
		},
	}

	got := renderSyncEventTable(events, false)
	for _, want := range []string{"Xbox", "Steam", "synced", "failed", "[io] permission denied"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderSyncEventTable() missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "\033[") {
		t.Error("renderSyncEventTable(color=false) emitted ANSI codes")
	}

	colored := renderSyncEventTable(events, true)
	if !strings.Contains(colored, colorGreen) || !strings.Contains(colored, colorRed) {
		t.Error("renderSyncEventTable(color=true) missing status colors")
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2 KB"},
		{5 * 1024 * 1024, "5 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-49 * time.Hour), "2d ago"},
	}

	for _, tt := range tests {
		if got := FormatAge(tt.t, now); got != tt.want {
			t.Errorf("FormatAge(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}
