package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kodewerx/steevesync/internal/saves"
)

// Backup operations

// InsertBackup inserts a backup record and returns its assigned id.
func (s *Store) InsertBackup(rec *BackupRecord) (int64, error) {
	query := `
		INSERT INTO backups
		(edition, filename, stored_path, content_hash, source_modified, stored_at, size_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		rec.Edition.String(),
		rec.Filename,
		rec.StoredPath,
		rec.ContentHash,
		rec.SourceModified.Format(time.RFC3339Nano),
		rec.StoredAt.Format(time.RFC3339Nano),
		rec.SizeBytes,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert backup record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get backup record id: %w", err)
	}
	return id, nil
}

// GetBackup retrieves a backup record by id.
func (s *Store) GetBackup(id int64) (*BackupRecord, error) {
	query := `
		SELECT id, edition, filename, stored_path, content_hash, source_modified, stored_at, size_bytes
		FROM backups
		WHERE id = ?
	`

	rec, err := scanBackup(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("backup %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backup %d: %w", id, err)
	}
	return rec, nil
}

// ListBackups returns an edition's backup records, oldest first so that the
// rendered list reads chronologically.
func (s *Store) ListBackups(edition saves.Edition) ([]*BackupRecord, error) {
	query := `
		SELECT id, edition, filename, stored_path, content_hash, source_modified, stored_at, size_bytes
		FROM backups
		WHERE edition = ?
		ORDER BY stored_at ASC, id ASC
	`

	rows, err := s.db.Query(query, edition.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	defer rows.Close()

	var records []*BackupRecord
	for rows.Next() {
		rec, err := scanBackup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan backup row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FindBackupByHash returns the newest backup record for the edition whose
// content hash matches, or nil if none exists. The backup store uses this to
// de-duplicate snapshots of identical save content.
func (s *Store) FindBackupByHash(edition saves.Edition, hash string) (*BackupRecord, error) {
	query := `
		SELECT id, edition, filename, stored_path, content_hash, source_modified, stored_at, size_bytes
		FROM backups
		WHERE edition = ? AND content_hash = ?
		ORDER BY stored_at DESC, id DESC
		LIMIT 1
	`

	rec, err := scanBackup(s.db.QueryRow(query, edition.String(), hash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find backup by hash: %w", err)
	}
	return rec, nil
}

// DeleteBackup removes a backup record. The caller is responsible for
// removing the stored file.
func (s *Store) DeleteBackup(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM backups WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete backup %d: %w", id, err)
	}
	return nil
}

// Sync event operations

// InsertSyncEvent records one handled watcher event.
func (s *Store) InsertSyncEvent(rec *SyncEventRecord) error {
	query := `
		INSERT INTO sync_events
		(source_edition, dest_edition, status, error_kind, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		rec.SourceEdition.String(),
		rec.DestEdition,
		rec.Status,
		rec.ErrorKind,
		rec.Detail,
		rec.OccurredAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync event: %w", err)
	}
	return nil
}

// RecentSyncEvents returns up to limit events, newest first.
func (s *Store) RecentSyncEvents(limit int) ([]*SyncEventRecord, error) {
	query := `
		SELECT id, source_edition, dest_edition, status, error_kind, detail, occurred_at
		FROM sync_events
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync events: %w", err)
	}
	defer rows.Close()

	var records []*SyncEventRecord
	for rows.Next() {
		var rec SyncEventRecord
		var source, occurredAt string

		err := rows.Scan(&rec.ID, &source, &rec.DestEdition, &rec.Status,
			&rec.ErrorKind, &rec.Detail, &occurredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync event row: %w", err)
		}

		rec.SourceEdition, err = saves.ParseEdition(source)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sync event edition: %w", err)
		}
		rec.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sync event timestamp: %w", err)
		}

		records = append(records, &rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBackup(row rowScanner) (*BackupRecord, error) {
	var rec BackupRecord
	var edition, sourceModified, storedAt string

	err := row.Scan(&rec.ID, &edition, &rec.Filename, &rec.StoredPath,
		&rec.ContentHash, &sourceModified, &storedAt, &rec.SizeBytes)
	if err != nil {
		return nil, err
	}

	rec.Edition, err = saves.ParseEdition(edition)
	if err != nil {
		return nil, err
	}
	rec.SourceModified, err = time.Parse(time.RFC3339Nano, sourceModified)
	if err != nil {
		return nil, err
	}
	rec.StoredAt, err = time.Parse(time.RFC3339Nano, storedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
