package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kodewerx/steevesync/internal/engine"
	"github.com/kodewerx/steevesync/internal/notify"
	"github.com/kodewerx/steevesync/internal/output"
	"github.com/kodewerx/steevesync/internal/saves"
	"github.com/kodewerx/steevesync/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	pidFile          string
	logFile          string
	watchStop        bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Watch both save locations and mirror changes",
		Long: `Start watching the Steam and Xbox save locations and mirror changes.

When the save file of one edition changes, the previous save of the other
edition is backed up and then overwritten with the new content. The most
recent change always wins, regardless of which edition it came from.

Watch modes:
  • Foreground (default): run in the current terminal, Ctrl+C to stop
  • Daemon: run as a background process
  • Stop: stop a running daemon

If only one edition is installed, the watcher still runs and records
changes, but nothing is copied until the other edition appears.`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  steevesync watch

  # Run as background daemon
  steevesync watch --daemon

  # Stop running daemon
  steevesync watch --stop

  # Use custom PID and log files
  steevesync watch --daemon --pid-file /tmp/steevesync.pid --log-file /tmp/steevesync.log`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&pidFile, "pid-file", "", "PID file path (default: data dir)")
	watchCmd.Flags().StringVar(&logFile, "log-file", "", "log file path (default: data dir)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")

	// Hide the internal daemon-child flag from help
	watchCmd.Flags().MarkHidden("daemon-child")
}

func runWatch(cmd *cobra.Command, args []string) error {
	pidPath, err := getPIDFile()
	if err != nil {
		return fmt.Errorf("failed to get PID file path: %w", err)
	}
	logPath, err := getLogFile()
	if err != nil {
		return fmt.Errorf("failed to get log file path: %w", err)
	}

	if watchStop {
		return stopSyncDaemon(pidPath)
	}

	if watchDaemon {
		return startSyncDaemon(pidPath, logPath)
	}

	if watchDaemonChild {
		return runSyncDaemonChild(pidPath)
	}

	return runSyncForeground()
}

// buildEngine assembles the full sync stack from settings. The returned
// cleanup closes the catalog and must be called after the engine stops.
func buildEngine() (*engine.Engine, []*saves.Slot, func(), error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, nil, err
	}

	catalog, err := openCatalog()
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() { catalog.Close() }

	backups, err := newBackupStore(settings, catalog)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("failed to open backup store: %w", err)
	}

	slots, missing := resolveSlots(settings)
	if len(slots) == 0 {
		cleanup()
		for e, err := range missing {
			log.WithError(err).WithField("edition", e).Error("Discovery failed")
		}
		return nil, nil, nil, fmt.Errorf("no Deep Rock Galactic save location found for either edition")
	}

	w, err := watcher.New(nil, settings.Debounce)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	eng, err := engine.New(engine.Config{
		Slots:    slots,
		Watcher:  w,
		Backups:  backups,
		Catalog:  catalog,
		Notifier: notify.NewLogNotifier(nil),
	})
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return eng, slots, cleanup, nil
}

func runSyncForeground() error {
	spinner := output.NewSpinner("Resolving save locations...")

	eng, slots, cleanup, err := buildEngine()
	if err != nil {
		spinner.Stop()
		return err
	}
	defer cleanup()

	if err := eng.Start(); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start sync engine: %w", err)
	}
	spinner.StopWithMessage("✓ Watching for save changes")

	fmt.Println()
	for _, slot := range slots {
		fmt.Printf("  %-6s %s\n", slot.Edition.String()+":", slot.Dir)
	}
	if len(slots) < len(saves.Editions) {
		fmt.Println()
		fmt.Println("Only one edition was found; changes are recorded but not mirrored.")
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	fmt.Printf("\nReceived signal %v, shutting down...\n", sig)

	if err := eng.Stop(); err != nil {
		return fmt.Errorf("failed to stop sync engine: %w", err)
	}
	fmt.Println("Sync stopped")
	return nil
}
