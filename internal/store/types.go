package store

import (
	"time"

	"github.com/kodewerx/steevesync/internal/saves"
)

// BackupRecord is one snapshot written to the backup store before a save file
// was overwritten. Records are append-only: they are never mutated, and only
// an explicit `backups prune` removes them.
type BackupRecord struct {
	ID      int64
	Edition saves.Edition

	// Filename is the save file's original basename, usable as a restore
	// target when the edition has no live save. The timestamped on-disk
	// name lives in StoredPath.
	Filename       string
	StoredPath     string
	ContentHash    string
	SourceModified time.Time
	StoredAt       time.Time
	SizeBytes      int64
}

// Sync event statuses recorded by the engine.
const (
	StatusSynced     = "synced"     // a copy was propagated
	StatusSuppressed = "suppressed" // self-triggered event, no copy
	StatusSkipped    = "skipped"    // nothing to sync against (degraded mode)
	StatusFailed     = "failed"     // the attempt errored
)

// SyncEventRecord is one handled watcher event.
type SyncEventRecord struct {
	ID            int64
	SourceEdition saves.Edition
	DestEdition   string // empty when no destination slot was active
	Status        string
	ErrorKind     string
	Detail        string
	OccurredAt    time.Time
}
