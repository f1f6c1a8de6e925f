//go:build windows

package app

import (
	"os"
	"syscall"
)

// detachedProcess is the DETACHED_PROCESS creation flag, which the syscall
// package does not export.
const detachedProcess = 0x00000008

// daemonSysProcAttr detaches the child from the parent console so it
// survives the parent terminal closing.
func daemonSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: detachedProcess | syscall.CREATE_NEW_PROCESS_GROUP,
		HideWindow:    true,
	}
}

// processAlive reports whether the PID refers to a live process. FindProcess
// succeeds on Windows only when a handle to the process can be opened.
func processAlive(p *os.Process) bool {
	// Signal 0 is not supported on Windows; a non-nil process from
	// FindProcess means the handle was opened, so treat it as alive.
	return p != nil
}

// terminateProcess kills the process. Windows has no SIGTERM delivery for
// detached processes, so the stop is not graceful; the engine's writes are
// atomic either way.
func terminateProcess(p *os.Process) error {
	return p.Kill()
}
