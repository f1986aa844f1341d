package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"neurocal/internal/modules/backend/domain"
	backendout "neurocal/internal/modules/backend/port/out"
	apperrors "neurocal/internal/platform/errors"
	"neurocal/internal/platform/tx"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteJournal struct {
	db *sql.DB
}

var _ backendout.Journal = (*SQLiteJournal)(nil)

func OpenSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	journal := &SQLiteJournal{db: db}
	if err := journal.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return journal, nil
}

func (s *SQLiteJournal) DB() *sql.DB { return s.db }

func (s *SQLiteJournal) Close() error { return s.db.Close() }

func (s *SQLiteJournal) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS collection_windows (
  id TEXT PRIMARY KEY,
  run_id TEXT,
  started_at TEXT NOT NULL,
  ended_at TEXT,
  action TEXT
);
CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  run_id TEXT,
  kind TEXT NOT NULL,
  payload TEXT NOT NULL,
  value_count INTEGER NOT NULL,
  received_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS submission_values (
  submission_id TEXT NOT NULL REFERENCES submissions(id),
  position INTEGER NOT NULL,
  key TEXT NOT NULL,
  number REAL NOT NULL,
  text TEXT,
  PRIMARY KEY (submission_id, position)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create journal tables: %w", err)
	}
	return nil
}

func (s *SQLiteJournal) SaveWindow(ctx context.Context, w domain.Window) error {
	const stmt = `
INSERT INTO collection_windows (id, run_id, started_at, ended_at, action)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  ended_at=excluded.ended_at,
  action=excluded.action;
`
	var ended sql.NullString
	if !w.EndedAt.IsZero() {
		ended = sql.NullString{String: w.EndedAt.UTC().Format(timeLayout), Valid: true}
	}
	_, err := tx.From(ctx, s.db).ExecContext(ctx, stmt, w.ID, w.RunID, w.StartedAt.UTC().Format(timeLayout), ended, string(w.Action))
	if err != nil {
		return fmt.Errorf("save collection window: %w", err)
	}
	return nil
}

func (s *SQLiteJournal) SaveSubmission(ctx context.Context, sub domain.Submission) error {
	const stmt = `
INSERT INTO submissions (id, run_id, kind, payload, value_count, received_at)
VALUES (?, ?, ?, ?, ?, ?);
`
	_, err := tx.From(ctx, s.db).ExecContext(ctx, stmt, sub.ID, sub.RunID, string(sub.Kind), sub.Payload, sub.Count, sub.ReceivedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	return nil
}

func (s *SQLiteJournal) SaveValues(ctx context.Context, submissionID string, values []domain.Value) error {
	const stmt = `
INSERT INTO submission_values (submission_id, position, key, number, text)
VALUES (?, ?, ?, ?, ?);
`
	exec := tx.From(ctx, s.db)
	for _, v := range values {
		var text sql.NullString
		if v.Text != nil {
			text = sql.NullString{String: *v.Text, Valid: true}
		}
		if _, err := exec.ExecContext(ctx, stmt, submissionID, v.Position, v.Key, v.Number, text); err != nil {
			return fmt.Errorf("save submission value %s: %w", v.Key, err)
		}
	}
	return nil
}

func (s *SQLiteJournal) ListSubmissions(ctx context.Context, limit int) ([]domain.Submission, error) {
	rows, err := tx.From(ctx, s.db).QueryContext(ctx, `
SELECT id, run_id, kind, payload, value_count, received_at
FROM submissions
ORDER BY received_at DESC, id
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	out := []domain.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

func (s *SQLiteJournal) GetSubmission(ctx context.Context, submissionID string) (domain.Submission, error) {
	rows, err := tx.From(ctx, s.db).QueryContext(ctx, `
SELECT id, run_id, kind, payload, value_count, received_at
FROM submissions WHERE id = ?;`, submissionID)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Submission{}, fmt.Errorf("get submission: %w", err)
		}
		return domain.Submission{}, fmt.Errorf("%w: submission %s", apperrors.ErrNotFound, submissionID)
	}
	return scanSubmission(rows)
}

func (s *SQLiteJournal) ListValues(ctx context.Context, submissionID string) ([]domain.Value, error) {
	rows, err := tx.From(ctx, s.db).QueryContext(ctx, `
SELECT position, key, number, text
FROM submission_values WHERE submission_id = ?
ORDER BY position;`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("list submission values: %w", err)
	}
	defer rows.Close()

	out := []domain.Value{}
	for rows.Next() {
		var v domain.Value
		var text sql.NullString
		if err := rows.Scan(&v.Position, &v.Key, &v.Number, &text); err != nil {
			return nil, fmt.Errorf("scan submission value: %w", err)
		}
		if text.Valid {
			t := text.String
			v.Text = &t
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission values: %w", err)
	}
	return out, nil
}

func scanSubmission(rows *sql.Rows) (domain.Submission, error) {
	var sub domain.Submission
	var runID sql.NullString
	var kind, received string
	if err := rows.Scan(&sub.ID, &runID, &kind, &sub.Payload, &sub.Count, &received); err != nil {
		return domain.Submission{}, fmt.Errorf("scan submission: %w", err)
	}
	sub.RunID = runID.String
	sub.Kind = domain.Kind(kind)
	t, err := time.Parse(timeLayout, received)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("parse received_at: %w", err)
	}
	sub.ReceivedAt = t
	return sub, nil
}
