package app

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodewerx/steevesync/internal/output"
	"github.com/kodewerx/steevesync/internal/saves"
	"github.com/kodewerx/steevesync/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status, save locations, and recent sync activity",
	Long: `Display the current state of steevesync on this machine.

Shows:
  • Daemon running status and PID
  • The resolved save location for each edition
  • Backup counts per edition
  • The most recent sync events

This command helps verify that save mirroring is working correctly.`,
	Example: `  # Check status
  steevesync status`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	pidPath, err := getPIDFile()
	if err != nil {
		return fmt.Errorf("failed to get PID file path: %w", err)
	}
	daemonRunning, err := isDaemonRunning(pidPath)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	var pid int
	if daemonRunning {
		pid, _ = readPIDFile(pidPath)
	}

	const label = "%-10s"

	fmt.Println()
	if daemonRunning {
		fmt.Printf(label+"running (PID %d)\n", "Daemon:", pid)
	} else {
		fmt.Printf(label+"stopped  (run 'steevesync watch --daemon')\n", "Daemon:")
	}

	resolver := newResolver(settings)
	for _, e := range saves.Editions {
		slot, err := resolver.Resolve(e)
		switch {
		case err != nil:
			fmt.Printf(label+"not found (%v)\n", e.String()+":", err)
		case slot.Path == "":
			fmt.Printf(label+"%s (no save file yet)\n", e.String()+":", slot.Dir)
		default:
			age := "unknown age"
			if fi, statErr := os.Stat(slot.Path); statErr == nil {
				age = "modified " + output.FormatAge(fi.ModTime(), time.Now())
			}
			fmt.Printf(label+"%s (%s)\n", e.String()+":", slot.Path, age)
		}
	}

	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()

	for _, e := range saves.Editions {
		records, err := catalog.ListBackups(e)
		if err != nil {
			return fmt.Errorf("failed to list backups: %w", err)
		}
		var total int64
		for _, rec := range records {
			total += rec.SizeBytes
		}
		fmt.Printf(label+"%d %s backups (%s)\n", "Backups:", len(records), e, output.FormatSize(total))
	}

	events, err := catalog.RecentSyncEvents(10)
	if err != nil {
		return fmt.Errorf("failed to load sync history: %w", err)
	}
	fmt.Println()
	if len(events) == 0 {
		fmt.Println("No sync activity recorded yet.")
	} else {
		fmt.Println("Recent activity:")
		fmt.Print(output.RenderSyncEventTable(events))
		if last := lastSynced(events); last != nil {
			fmt.Printf("\nLast successful sync: %s\n", output.FormatAge(last.OccurredAt, time.Now()))
		}
	}
	fmt.Println()
	return nil
}

// lastSynced returns the newest synced event, events are newest first.
func lastSynced(events []*store.SyncEventRecord) *store.SyncEventRecord {
	for _, ev := range events {
		if ev.Status == store.StatusSynced {
			return ev
		}
	}
	return nil
}
