package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"transformrecorder/internal/capture"
)

// Session is a cataloged recording session.
type Session struct {
	ID        string
	StartedAt time.Time
	StoppedAt time.Time
	Duration  float64
	Events    int
	Files     int
}

// File is a cataloged sequence file.
type File struct {
	ID        int64
	SessionID string
	Ordinal   int
	Channel   string
	Path      string
	Frames    int
	Size      int64
	SHA256    string
	CreatedAt time.Time
}

var _ capture.Catalog = (*Catalog)(nil)

const fileColumns = "id, session_id, ordinal, channel, path, frames, size_bytes, sha256, created_at"

// RecordSession stores the session and its files in one transaction. It
// implements capture.Catalog.
func (c *Catalog) RecordSession(ctx context.Context, rec capture.SessionRecord) error {
	if rec.ID == "" {
		return errors.New("session id is empty")
	}
	stopped := rec.StoppedAt
	if stopped.IsZero() {
		stopped = time.Now()
	}
	created := stopped.UTC().Format(time.RFC3339Nano)

	return retryOnBusy(ctx, func() error {
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin session tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, started_at, stopped_at, duration_seconds, events)
             VALUES (?, ?, ?, ?, ?)`,
			rec.ID,
			nullableTime(rec.StartedAt),
			created,
			rec.Duration,
			rec.Events,
		); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		for _, f := range rec.Files {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO files (session_id, ordinal, channel, path, frames, size_bytes, sha256, created_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				rec.ID,
				f.Ordinal,
				f.Channel,
				f.Path,
				f.Frames,
				f.Size,
				nullableString(f.SHA256),
				created,
			); err != nil {
				return fmt.Errorf("insert file %s: %w", f.Path, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit session: %w", err)
		}
		return nil
	})
}

// ListFiles returns the most recently cataloged files first. A limit <= 0
// returns every file.
func (c *Catalog) ListFiles(ctx context.Context, limit int) ([]File, error) {
	query := `SELECT ` + fileColumns + ` FROM files ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return c.queryFiles(ctx, query, args...)
}

// FilesForSession returns the files of one session in ordinal order.
func (c *Catalog) FilesForSession(ctx context.Context, sessionID string) ([]File, error) {
	return c.queryFiles(ctx,
		`SELECT `+fileColumns+` FROM files WHERE session_id = ? ORDER BY ordinal, id`,
		sessionID,
	)
}

// GetSession fetches a session by ID. A missing session returns nil, nil.
func (c *Catalog) GetSession(ctx context.Context, id string) (*Session, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT s.id, s.started_at, s.stopped_at, s.duration_seconds, s.events,
                (SELECT COUNT(1) FROM files f WHERE f.session_id = s.id)
         FROM sessions s WHERE s.id = ?`,
		id,
	)
	var (
		sess       Session
		startedRaw sql.NullString
		stoppedRaw string
	)
	err := row.Scan(&sess.ID, &startedRaw, &stoppedRaw, &sess.Duration, &sess.Events, &sess.Files)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if startedRaw.Valid {
		if t, err := parseTimeString(startedRaw.String); err == nil {
			sess.StartedAt = t
		}
	}
	if t, err := parseTimeString(stoppedRaw); err == nil {
		sess.StoppedAt = t
	}
	return &sess, nil
}

func (c *Catalog) queryFiles(ctx context.Context, query string, args ...any) ([]File, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var (
			f          File
			sha        sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&f.ID, &f.SessionID, &f.Ordinal, &f.Channel, &f.Path, &f.Frames, &f.Size, &sha, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		f.SHA256 = sha.String
		if t, err := parseTimeString(createdRaw); err == nil {
			f.CreatedAt = t
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}
