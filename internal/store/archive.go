package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// archiveSchema is the session archive table. The UNIQUE constraint makes
// mirroring idempotent: re-archiving the same log inserts nothing new.
const archiveSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id      TEXT PRIMARY KEY,
	client     TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time   TEXT NOT NULL,
	UNIQUE (client, start_time, end_time)
);
`

// Archive mirrors completed sessions into a SQLite database for ad-hoc
// SQL querying. The CSV log remains the source of truth; the archive is
// an export target and a non-critical path.
type Archive struct {
	db *sql.DB
}

// OpenArchive creates or opens a SQLite archive at the given path.
// Applies required pragmas and the schema automatically; safe to call
// against an existing archive.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to archive: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY on interleaved inserts.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply archive schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close closes the archive database.
func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Mirror inserts the given records, skipping any (client, start, end)
// triple already archived. Returns the number of newly inserted rows.
//
// Row ids are UUIDv7, so archived sessions sort by archival time.
func (a *Archive) Mirror(ctx context.Context, records []Record) (int, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sessions (id, client, start_time, end_time)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (client, start_time, end_time) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare archive insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		res, err := stmt.ExecContext(ctx,
			uuid.Must(uuid.NewV7()).String(),
			rec.Client,
			FormatTime(rec.Start),
			FormatTime(rec.End),
		)
		if err != nil {
			return 0, fmt.Errorf("archive session %s %s: %w", rec.Client, FormatTime(rec.Start), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("archive rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit archive transaction: %w", err)
	}
	return inserted, nil
}

// Count returns the number of archived sessions.
// Used for diagnostics and testing.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
		return 0, fmt.Errorf("count archived sessions: %w", err)
	}
	return n, nil
}
