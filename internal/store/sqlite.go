package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	name       TEXT NOT NULL,
	source     TEXT NOT NULL,
	output     TEXT NOT NULL DEFAULT '',
	method     TEXT NOT NULL DEFAULT '',
	resolution REAL NOT NULL DEFAULT 0,
	nodata     REAL,
	crs        TEXT NOT NULL DEFAULT '',
	footprint  BLOB,
	breaks     TEXT,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_runs_name ON runs(name);
`

const runColumns = `id, kind, name, source, output, method, resolution, nodata, crs, footprint, breaks, status, error, created_at, updated_at`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, in RunInput) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	var nodata any = in.NoData
	if math.IsNaN(in.NoData) {
		nodata = nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, name, source, method, resolution, nodata, crs, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(in.Kind), in.Name, in.Source, in.Method, in.Resolution, nodata, in.CRS,
		string(RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &Run{
		ID:         id,
		Kind:       in.Kind,
		Name:       in.Name,
		Source:     in.Source,
		Method:     in.Method,
		Resolution: in.Resolution,
		NoData:     in.NoData,
		CRS:        in.CRS,
		Status:     RunStatusRunning,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, out RunOutput) error {
	var breaks any
	if out.Breaks != nil {
		raw, err := json.Marshal(out.Breaks)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal breaks")
		}
		breaks = string(raw)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET output = ?, resolution = CASE WHEN ? > 0 THEN ? ELSE resolution END,
		 footprint = ?, breaks = ?, status = ?, updated_at = ? WHERE id = ?`,
		out.Output, out.Resolution, out.Resolution, out.Footprint, breaks,
		string(RunStatusComplete), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) FailRun(ctx context.Context, id string, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(RunStatusFailed), msg, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Name != "" {
		query += ` AND name = ?`
		args = append(args, filter.Name)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var (
		r      Run
		nodata sql.NullFloat64
		breaks sql.NullString
	)
	err := row.Scan(&r.ID, &r.Kind, &r.Name, &r.Source, &r.Output, &r.Method, &r.Resolution,
		&nodata, &r.CRS, &r.Footprint, &breaks, &r.Status, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	r.NoData = math.NaN()
	if nodata.Valid {
		r.NoData = nodata.Float64
	}
	if breaks.Valid {
		if err := json.Unmarshal([]byte(breaks.String), &r.Breaks); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal breaks")
		}
	}
	return &r, nil
}
