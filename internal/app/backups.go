package app

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodewerx/steevesync/internal/output"
	"github.com/kodewerx/steevesync/internal/saves"
)

var (
	backupsEdition string
	backupsKeep    int

	backupsCmd = &cobra.Command{
		Use:   "backups",
		Short: "Inspect, prune, and restore save backups",
		Long: `Manage the save backups taken before each overwrite.

Every time a save is about to be overwritten, the previous content is
stored in the backup folder and recorded in the catalog. Backups are
never deleted automatically; use 'backups prune' to trim old ones.`,
	}

	backupsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored backups",
		Example: `  # List all backups
  steevesync backups list

  # List only Xbox edition backups
  steevesync backups list --edition xbox`,
		RunE: runBackupsList,
	}

	backupsPruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Delete old backups, keeping the newest N per edition",
		Example: `  # Keep the 10 newest backups of each edition
  steevesync backups prune --keep 10`,
		RunE: runBackupsPrune,
	}

	backupsRestoreCmd = &cobra.Command{
		Use:   "restore <id>",
		Short: "Copy a backup back over the live save file",
		Long: `Restore a backup over the current save of its edition.

The current save is backed up first, so a restore can itself be undone.
If the sync daemon is running, the restored save propagates to the other
edition like any other change.`,
		Example: `  # Restore backup 42 (IDs from 'backups list')
  steevesync backups restore 42`,
		Args: cobra.ExactArgs(1),
		RunE: runBackupsRestore,
	}

	backupsOpenCmd = &cobra.Command{
		Use:   "open",
		Short: "Open the backup folder in the file browser",
		RunE:  runBackupsOpen,
	}
)

func init() {
	backupsListCmd.Flags().StringVar(&backupsEdition, "edition", "", "limit to one edition (steam or xbox)")
	backupsPruneCmd.Flags().StringVar(&backupsEdition, "edition", "", "limit to one edition (steam or xbox)")
	backupsPruneCmd.Flags().IntVar(&backupsKeep, "keep", 0, "backups to keep per edition (default: max_backups setting)")

	backupsCmd.AddCommand(backupsListCmd)
	backupsCmd.AddCommand(backupsPruneCmd)
	backupsCmd.AddCommand(backupsRestoreCmd)
	backupsCmd.AddCommand(backupsOpenCmd)
}

// selectedEditions resolves the --edition flag to a list of editions.
func selectedEditions() ([]saves.Edition, error) {
	if backupsEdition == "" {
		return saves.Editions, nil
	}
	e, err := saves.ParseEdition(backupsEdition)
	if err != nil {
		return nil, err
	}
	return []saves.Edition{e}, nil
}

func runBackupsList(cmd *cobra.Command, args []string) error {
	editions, err := selectedEditions()
	if err != nil {
		return err
	}

	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()

	shown := 0
	for _, e := range editions {
		records, err := catalog.ListBackups(e)
		if err != nil {
			return fmt.Errorf("failed to list backups: %w", err)
		}
		if len(records) == 0 {
			continue
		}
		shown += len(records)
		fmt.Printf("\n%s edition:\n", e)
		fmt.Print(output.RenderBackupTable(records))
	}
	if shown == 0 {
		fmt.Println("No backups stored yet.")
		return nil
	}
	fmt.Println()
	fmt.Println("Restore one with 'steevesync backups restore <id>'.")
	return nil
}

func runBackupsPrune(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	keep := backupsKeep
	if keep == 0 {
		keep = settings.MaxBackups
	}

	editions, err := selectedEditions()
	if err != nil {
		return err
	}

	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()

	backups, err := newBackupStore(settings, catalog)
	if err != nil {
		return fmt.Errorf("failed to open backup store: %w", err)
	}

	total := 0
	for _, e := range editions {
		removed, err := backups.Prune(e, keep)
		if err != nil {
			return fmt.Errorf("failed to prune %s backups: %w", e, err)
		}
		total += len(removed)
		for _, rec := range removed {
			fmt.Printf("  removed %s (%s)\n", filepath.Base(rec.StoredPath), output.FormatSize(rec.SizeBytes))
		}
	}
	if total == 0 {
		fmt.Printf("Nothing to prune; each edition has at most %d backups.\n", keep)
	} else {
		fmt.Printf("Pruned %d backups, keeping the newest %d per edition.\n", total, keep)
	}
	return nil
}

func runBackupsRestore(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid backup id %q", args[0])
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()

	backups, err := newBackupStore(settings, catalog)
	if err != nil {
		return fmt.Errorf("failed to open backup store: %w", err)
	}

	rec, err := catalog.GetBackup(id)
	if err != nil {
		return fmt.Errorf("backup %d not found: %w", id, err)
	}

	slot, err := newResolver(settings).Resolve(rec.Edition)
	if err != nil {
		return fmt.Errorf("cannot restore, %s save location not found: %w", rec.Edition, err)
	}
	dest := slot.Path
	if dest == "" {
		dest = filepath.Join(slot.Dir, rec.Filename)
	}

	if err := backups.Restore(id, dest); err != nil {
		return fmt.Errorf("failed to restore backup %d: %w", id, err)
	}

	fmt.Printf("Restored backup %d over %s\n", id, dest)
	fmt.Printf("  content from %s\n", output.FormatAge(rec.SourceModified, time.Now()))
	return nil
}

func runBackupsOpen(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	root := settings.BackupRoot
	if root == "" {
		root, err = backupRootUnder()
		if err != nil {
			return err
		}
	}

	fmt.Printf("Backup folder: %s\n", root)

	var opener string
	switch runtime.GOOS {
	case "windows":
		opener = "explorer"
	case "darwin":
		opener = "open"
	default:
		opener = "xdg-open"
	}
	if err := exec.Command(opener, root).Start(); err != nil {
		// Not fatal, the path was already printed.
		fmt.Printf("Could not open a file browser (%v)\n", err)
	}
	return nil
}
