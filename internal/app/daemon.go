package app

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/kodewerx/steevesync/internal/output"
)

// startSyncDaemon forks the current executable as a detached child running
// `watch --daemon-child`, writes its PID to pidPath, and redirects its
// output to logPath.
func startSyncDaemon(pidPath, logPath string) error {
	running, err := isDaemonRunning(pidPath)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("daemon already running (PID file: %s)", pidPath)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logF, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logF.Close()

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"watch", "--daemon-child", "--pid-file", pidPath, "--log-file", logPath}
	if configDir != "" {
		args = append(args, "--config-dir", configDir)
	}
	if dataDir != "" {
		args = append(args, "--data-dir", dataDir)
	}

	spinner := output.NewSpinner("Starting daemon...")

	cmd := exec.Command(executable, args...)
	cmd.Stdout = logF
	cmd.Stderr = logF
	cmd.Stdin = nil
	cmd.SysProcAttr = daemonSysProcAttr()

	if err := cmd.Start(); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start daemon process: %w", err)
	}

	pid := cmd.Process.Pid
	if err := os.WriteFile(pidPath, []byte(fmt.Sprintf("%d\n", pid)), 0644); err != nil {
		cmd.Process.Kill()
		spinner.Stop()
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	if err := cmd.Process.Release(); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to release process: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon started")

	fmt.Printf("\nSave sync daemon started\n")
	fmt.Printf("  PID file: %s\n", pidPath)
	fmt.Printf("  Log file: %s\n", logPath)
	fmt.Printf("\nTo stop: steevesync watch --stop\n")

	return nil
}

// runSyncDaemonChild is the daemon child entry point. stdout and stderr are
// already redirected to the log file by the parent.
func runSyncDaemonChild(pidPath string) error {
	eng, _, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	if err := eng.Start(); err != nil {
		return fmt.Errorf("failed to start sync engine: %w", err)
	}

	sig := <-sigCh
	fmt.Fprintf(os.Stderr, "received signal %v, shutting down...\n", sig)

	if err := eng.Stop(); err != nil {
		return fmt.Errorf("failed to stop sync engine: %w", err)
	}

	if err := os.Remove(pidPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// stopSyncDaemon asks a running daemon to terminate.
func stopSyncDaemon(pidPath string) error {
	running, err := isDaemonRunning(pidPath)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running {
		fmt.Println("Daemon is not running")
		return nil
	}

	pid, err := readPIDFile(pidPath)
	if err != nil {
		return err
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	spinner := output.NewSpinner("Stopping daemon...")
	if err := terminateProcess(process); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to stop process %d: %w", pid, err)
	}
	spinner.StopWithMessage("✓ Daemon stopped")
	return nil
}

// isDaemonRunning checks the PID file and probes the recorded process.
// A stale PID file is removed.
func isDaemonRunning(pidPath string) (bool, error) {
	pid, err := readPIDFile(pidPath)
	if err != nil {
		// Missing or malformed PID file, consider daemon not running
		return false, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}
	if !processAlive(process) {
		os.Remove(pidPath)
		return false, nil
	}
	return true, nil
}

func readPIDFile(pidPath string) (int, error) {
	pidData, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file %s: %w", pidPath, err)
	}
	return pid, nil
}
