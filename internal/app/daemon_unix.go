//go:build !windows

package app

import (
	"os"
	"syscall"
)

// daemonSysProcAttr detaches the child into its own session so it survives
// the parent terminal closing.
func daemonSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setsid: true,
	}
}

// processAlive probes a process with signal 0.
func processAlive(p *os.Process) bool {
	return p.Signal(syscall.Signal(0)) == nil
}

// terminateProcess asks the process to shut down gracefully.
func terminateProcess(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
