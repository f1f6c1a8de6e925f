package backup

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// Restore copies a cataloged backup over the live save file at destPath.
// The current destination content is backed up first, so a restore is always
// reversible; the write itself is atomic.
func (s *Store) Restore(id int64, destPath string) error {
	rec, err := s.catalog.GetBackup(id)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(rec.StoredPath)
	if err != nil {
		return fmt.Errorf("failed to read backup file %s: %w", rec.StoredPath, err)
	}

	if _, err := os.Stat(destPath); err == nil {
		if _, _, err := s.Backup(rec.Edition, destPath); err != nil {
			return fmt.Errorf("failed to back up current save before restore: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", destPath, err)
	}

	if err := WriteFileAtomic(destPath, data, 0644); err != nil {
		return err
	}

	log.WithField("edition", rec.Edition.String()).Infof("restored backup %s over %s", rec.Filename, destPath)
	return nil
}
