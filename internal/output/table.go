// Package output renders steevesync status and backup listings for the
// terminal. Tables use ASCII characters and ANSI colors; colors are only
// emitted when stdout is a TTY and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/kodewerx/steevesync/internal/store"
)

// ANSI color codes for sync status display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// RenderBackupTable renders an edition's backup records, oldest first.
func RenderBackupTable(records []*store.BackupRecord) string {
	if len(records) == 0 {
		return "No backups yet.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-6s %-8s %-20s %-10s %s\n", "ID", "EDITION", "STORED AT", "SIZE", "FILE"))
	sb.WriteString(strings.Repeat("-", 70) + "\n")

	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("%-6d %-8s %-20s %-10s %s\n",
			rec.ID,
			rec.Edition.String(),
			rec.StoredAt.Local().Format("2006-01-02 15:04:05"),
			FormatSize(rec.SizeBytes),
			rec.Filename,
		))
	}
	return sb.String()
}

// RenderSyncEventTable renders sync history, newest first, with one colored
// status cell per row.
func RenderSyncEventTable(events []*store.SyncEventRecord) string {
	return renderSyncEventTable(events, IsColorEnabled())
}

func renderSyncEventTable(events []*store.SyncEventRecord, color bool) string {
	if len(events) == 0 {
		return "No sync activity recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-20s %-8s %-8s %-12s %s\n", "WHEN", "FROM", "TO", "STATUS", "DETAIL"))
	sb.WriteString(strings.Repeat("-", 76) + "\n")

	for _, ev := range events {
		dest := ev.DestEdition
		if dest == "" {
			dest = "-"
		}
		sb.WriteString(fmt.Sprintf("%-20s %-8s %-8s %-12s %s\n",
			ev.OccurredAt.Local().Format("2006-01-02 15:04:05"),
			ev.SourceEdition.String(),
			dest,
			statusCell(ev.Status, color),
			eventDetail(ev),
		))
	}
	return sb.String()
}

func statusCell(status string, color bool) string {
	if !color {
		return status
	}
	switch status {
	case store.StatusSynced:
		return colorGreen + status + colorReset
	case store.StatusFailed:
		return colorRed + status + colorReset
	case store.StatusSuppressed:
		return colorGray + status + colorReset
	default:
		return colorYellow + status + colorReset
	}
}

func eventDetail(ev *store.SyncEventRecord) string {
	if ev.ErrorKind != "" && ev.Detail != "" {
		return fmt.Sprintf("[%s] %s", ev.ErrorKind, ev.Detail)
	}
	if ev.Detail != "" {
		return ev.Detail
	}
	return ""
}

// FormatSize converts bytes to a human-readable size.
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.0f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.0f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatAge renders how long ago t was, for the status summary.
func FormatAge(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
