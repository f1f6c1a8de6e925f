package backup

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/kodewerx/steevesync/internal/saves"
	"github.com/kodewerx/steevesync/internal/store"
)

// Prune removes an edition's oldest backups so that at most keep remain.
// It returns the removed records. Pruning is only ever user-initiated; the
// sync path never deletes backups.
func (s *Store) Prune(edition saves.Edition, keep int) ([]*store.BackupRecord, error) {
	if keep < 1 {
		return nil, fmt.Errorf("keep must be > 0")
	}

	records, err := s.catalog.ListBackups(edition)
	if err != nil {
		return nil, err
	}
	if len(records) <= keep {
		return nil, nil
	}

	var removed []*store.BackupRecord
	for _, rec := range records[:len(records)-keep] {
		if err := os.Remove(rec.StoredPath); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to remove backup file %s: %w", rec.StoredPath, err)
		}
		if err := s.catalog.DeleteBackup(rec.ID); err != nil {
			return removed, err
		}
		log.WithField("edition", edition.String()).Debugf("pruned backup %s", rec.Filename)
		removed = append(removed, rec)
	}
	return removed, nil
}
