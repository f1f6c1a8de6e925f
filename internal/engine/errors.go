package engine

import (
	"fmt"

	"github.com/kodewerx/steevesync/internal/saves"
)

// ErrorKind classifies a failed sync attempt for presentation and the event
// catalog.
type ErrorKind string

const (
	// KindIO covers read/write/permission/lock failures on either save file.
	KindIO ErrorKind = "io"
	// KindDiscovery means an edition's save could not be found; the engine
	// keeps running in degraded mode.
	KindDiscovery ErrorKind = "discovery"
	// KindWatch means the OS notification subsystem failed for an edition.
	KindWatch ErrorKind = "watch"
)

// SyncError is the only error type that crosses the engine boundary. Every
// per-event failure is wrapped into one, reported to the notifier exactly
// once, and never unwinds further.
type SyncError struct {
	Edition saves.Edition
	Kind    ErrorKind
	Err     error
}

func (err *SyncError) Error() string {
	return fmt.Sprintf("%s sync (%s): %v", err.Edition, err.Kind, err.Err)
}

func (err *SyncError) Unwrap() error { return err.Err }
