package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite persists run records in a local SQLite database. cgo-free, so the
// binary stays a single static artifact.
type SQLite struct {
	db *sql.DB
}

var _ Repository = (*SQLite)(nil)

// NewSQLite opens (creating if needed) the history database at path and runs
// migrations.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open history database", goerr.V("path", path))
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to migrate history database")
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			project_id TEXT NOT NULL,
			query      TEXT NOT NULL,
			success    INTEGER NOT NULL,
			answer     TEXT,
			result     TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	return err
}

func (s *SQLite) PutRun(ctx context.Context, rec *model.RunRecord) error {
	var answer sql.NullString
	if rec.Answer != nil {
		answer = sql.NullString{String: *rec.Answer, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, session_id, project_id, query, success, answer, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.ProjectID, rec.Query,
		rec.Success, answer, string(rec.Result), rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to save run record", goerr.V("id", rec.ID))
	}
	return nil
}

func (s *SQLite) GetRun(ctx context.Context, id string) (*model.RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, project_id, query, success, answer, result, created_at
		 FROM runs WHERE id = ?`, id)

	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, goerr.New("run record not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get run record", goerr.V("id", id))
	}
	return rec, nil
}

func (s *SQLite) ListRuns(ctx context.Context, offset, limit int) ([]*model.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, project_id, query, success, answer, result, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list run records")
	}
	defer rows.Close()

	var recs []*model.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan run record")
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.RunRecord, error) {
	var (
		rec       model.RunRecord
		answer    sql.NullString
		result    string
		createdAt string
	)
	if err := row.Scan(&rec.ID, &rec.SessionID, &rec.ProjectID, &rec.Query,
		&rec.Success, &answer, &result, &createdAt); err != nil {
		return nil, err
	}

	if answer.Valid {
		rec.Answer = &answer.String
	}
	rec.Result = []byte(result)

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid created_at in history row")
	}
	rec.CreatedAt = ts
	return &rec, nil
}
