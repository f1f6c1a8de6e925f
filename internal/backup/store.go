// Package backup persists timestamped copies of save files before they are
// overwritten. Backups accumulate under an edition-specific directory and are
// cataloged in the store; nothing here deletes a backup except an explicit
// Prune call.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/kodewerx/steevesync/internal/saves"
	"github.com/kodewerx/steevesync/internal/store"
)

// Sortable, filesystem-safe timestamp prefix with sub-second precision so
// rapid successive backups stay lexicographically ordered.
const timestampFormat = "2006-01-02-150405.000"

// Store writes backup files under <root>/<Edition>/ and records them in the
// catalog.
type Store struct {
	root    string
	catalog *store.Store
	clock   clockwork.Clock
}

// New creates a backup store rooted at root, creating the per-edition
// directories up front. Failure here is fatal to startup: the engine must
// never run without a writable backup location.
func New(root string, catalog *store.Store, clock clockwork.Clock) (*Store, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	for _, e := range saves.Editions {
		dir := filepath.Join(root, e.String())
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create backup directory %s: %w", dir, err)
		}
	}

	return &Store{root: root, catalog: catalog, clock: clock}, nil
}

// Root returns the backup root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the backup directory for one edition.
func (s *Store) Dir(e saves.Edition) string {
	return filepath.Join(s.root, e.String())
}

// Backup snapshots the file at path into the edition's backup directory and
// catalogs it. The source file is never touched.
//
// When the content is byte-identical to an already-cataloged backup for the
// same edition, no new file is written and the existing record is returned
// with created=false.
func (s *Store) Backup(edition saves.Edition, path string) (*store.BackupRecord, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s save for backup: %w", edition, err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to stat %s save for backup: %w", edition, err)
	}

	hash := HashBytes(data)
	if existing, err := s.catalog.FindBackupByHash(edition, hash); err != nil {
		return nil, false, err
	} else if existing != nil {
		log.WithField("edition", edition.String()).Debugf("backup de-duped: %s", filepath.Base(path))
		return existing, false, nil
	}

	storedPath, err := s.pickStoredPath(edition, filepath.Base(path))
	if err != nil {
		return nil, false, err
	}

	if err := os.WriteFile(storedPath, data, 0644); err != nil {
		return nil, false, fmt.Errorf("failed to write backup %s: %w", storedPath, err)
	}

	rec := &store.BackupRecord{
		Edition:        edition,
		Filename:       filepath.Base(path),
		StoredPath:     storedPath,
		ContentHash:    hash,
		SourceModified: fi.ModTime(),
		StoredAt:       s.clock.Now(),
		SizeBytes:      int64(len(data)),
	}

	rec.ID, err = s.catalog.InsertBackup(rec)
	if err != nil {
		// Keep the catalog authoritative: a file without a record would be
		// invisible to prune and restore.
		os.Remove(storedPath)
		return nil, false, err
	}

	log.WithField("edition", edition.String()).Debugf("backed up %s -> %s", path, storedPath)
	return rec, true, nil
}

// pickStoredPath builds the timestamped backup filename, appending a counter
// suffix when two backups land on the same clock reading.
func (s *Store) pickStoredPath(edition saves.Edition, base string) (string, error) {
	ts := s.clock.Now().Format(timestampFormat)
	dir := s.Dir(edition)

	filename := fmt.Sprintf("%s-%s", ts, base)
	for n := 1; ; n++ {
		storedPath := filepath.Join(dir, filename)
		if _, err := os.Stat(storedPath); os.IsNotExist(err) {
			return storedPath, nil
		} else if err != nil {
			return "", fmt.Errorf("failed to probe backup path %s: %w", storedPath, err)
		}
		filename = fmt.Sprintf("%s-%d-%s", ts, n, base)
	}
}

// HashBytes returns the hex SHA-256 digest used for backup de-duplication and
// the engine's self-trigger suppression.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteFileAtomic replaces path with data without ever exposing a truncated
// file: the bytes go to a temp file in the same directory which is then
// renamed over the target.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".steevesync-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
