// Package app wires the steevesync command-line interface.
package app

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configDir string
	dataDir   string
	verbose   bool

	// RootCmd is the root command for steevesync
	RootCmd = &cobra.Command{
		Use:   "steevesync",
		Short: "Mirror Deep Rock Galactic saves between the Steam and Xbox editions",
		Long: `steevesync keeps the Deep Rock Galactic save file mirrored between the
Steam edition and the Xbox / Microsoft Store edition on this machine.

It watches both save locations for changes and copies the most recently
changed save over the other side, backing up whatever it overwrites first.
Backups accumulate under the backup folder and are never deleted
automatically.

Quick Start:
  1. steevesync status        # check that both editions were found
  2. steevesync watch --daemon
  3. Play on either edition; saves follow you.

Examples:
  # Run the sync engine in the foreground
  steevesync watch

  # Run as a background daemon
  steevesync watch --daemon

  # Stop the daemon
  steevesync watch --stop

  # Inspect sync history and backups
  steevesync status
  steevesync backups list

  # Roll a save back to an earlier backup
  steevesync backups restore 42`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "settings directory (default: per-user KodeWerx/SteeveSync)")
	RootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for catalog, backups, and PID file")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	RootCmd.SuggestionsMinimumDistance = 2

	// Register subcommands
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(backupsCmd)
	RootCmd.AddCommand(configCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}
