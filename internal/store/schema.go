package store

const schema = `
CREATE TABLE IF NOT EXISTS backups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    edition TEXT NOT NULL,
    filename TEXT NOT NULL,
    stored_path TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    source_modified TIMESTAMP,
    stored_at TIMESTAMP NOT NULL,
    size_bytes INTEGER
);

CREATE TABLE IF NOT EXISTS sync_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_edition TEXT NOT NULL,
    dest_edition TEXT,
    status TEXT NOT NULL,
    error_kind TEXT,
    detail TEXT,
    occurred_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_backups_edition ON backups(edition, stored_at);
CREATE INDEX IF NOT EXISTS idx_backups_hash ON backups(edition, content_hash);
CREATE INDEX IF NOT EXISTS idx_sync_events_time ON sync_events(occurred_at);
`
