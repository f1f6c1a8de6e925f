package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kodewerx/steevesync/internal/config"
	"github.com/kodewerx/steevesync/internal/saves"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage steevesync settings",
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the default values",
		Long: `Write a commented settings file with the default values.

The file is not created if one already exists. Edit it to override the
save locations, debounce interval, or backup folder.`,
		RunE: runConfigInit,
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		RunE:  runConfigShow,
	}
)

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir, err := getConfigDir()
	if err != nil {
		return err
	}
	path, err := config.WriteDefault(dir)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	dir, err := getConfigDir()
	if err != nil {
		return err
	}
	settings, err := config.Load(dir)
	if err != nil {
		return err
	}

	const label = "%-16s"
	fmt.Printf(label+"%s\n", "Settings file:", config.Path(dir))
	fmt.Printf(label+"%s\n", "Debounce:", settings.Debounce)
	fmt.Printf(label+"%d\n", "Max backups:", settings.MaxBackups)
	if settings.BackupRoot != "" {
		fmt.Printf(label+"%s\n", "Backup root:", settings.BackupRoot)
	} else if root, err := backupRootUnder(); err == nil {
		fmt.Printf(label+"%s (default)\n", "Backup root:", root)
	}

	resolver := newResolver(settings)
	for _, e := range saves.Editions {
		name := e.String() + " saves:"
		if slot, err := resolver.Resolve(e); err == nil {
			fmt.Printf(label+"%s\n", name, slot.Dir)
		} else {
			fmt.Printf(label+"not found\n", name)
		}
	}
	return nil
}
