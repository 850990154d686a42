package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"covid-pipeline/internal/model"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Store persists run bookkeeping and, optionally, the long table.
// The same schema is used for sqlite3 and postgres.
type Store struct {
	db     *sql.DB
	driver string
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		countries INTEGER NOT NULL DEFAULT 0,
		dates INTEGER NOT NULL DEFAULT 0,
		observations BIGINT NOT NULL DEFAULT 0,
		global_max BIGINT NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS run_errors (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		error_message TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS stage_progress (
		run_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		status TEXT NOT NULL,
		records BIGINT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP NOT NULL,
		duration_ms BIGINT NOT NULL,
		PRIMARY KEY (run_id, stage)
	)`,
	`CREATE TABLE IF NOT EXISTS country_maxima (
		run_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		country TEXT NOT NULL,
		max_cases BIGINT NOT NULL,
		PRIMARY KEY (run_id, rank)
	)`,
	`CREATE TABLE IF NOT EXISTS observations (
		run_id TEXT NOT NULL,
		country TEXT NOT NULL,
		obs_date TEXT NOT NULL,
		cases BIGINT NOT NULL,
		PRIMARY KEY (run_id, country, obs_date)
	)`,
}

// Open connects to the database and creates the tables if they don't exist.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the database/sql driver name.
func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	return err
}

// StartRun stores a new pipeline run
func (s *Store) StartRun(ctx context.Context, runID, source string, startedAt time.Time) error {
	now := startedAt.UTC()
	return s.exec(ctx, `INSERT INTO runs (id, source, status, started_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		runID, source, model.StatusRunning, now, now)
}

// UpdateRunStatus updates run status
func (s *Store) UpdateRunStatus(ctx context.Context, runID, status string) error {
	return s.exec(ctx, `UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), runID)
}

// SaveStageProgress records the metrics of a finished stage.
func (s *Store) SaveStageProgress(ctx context.Context, runID string, m model.StageMetrics) error {
	return s.exec(ctx, `INSERT INTO stage_progress (run_id, stage, status, records, started_at, ended_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, m.Stage, m.Status, m.Records, m.StartTime.UTC(), m.EndTime.UTC(), m.Duration.Milliseconds())
}

// SaveRunError records an error for a run
func (s *Store) SaveRunError(ctx context.Context, runID string, err error) error {
	if err == nil {
		return nil
	}
	var seq int
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM run_errors WHERE run_id = ?`), runID)
	if e := row.Scan(&seq); e != nil {
		return e
	}
	return s.exec(ctx, `INSERT INTO run_errors (run_id, seq, error_message, created_at) VALUES (?, ?, ?, ?)`,
		runID, seq+1, err.Error(), time.Now().UTC())
}

// FinishRun marks the run completed and stores its summary and ranking.
func (s *Store) FinishRun(ctx context.Context, runID string, sum *model.Summary, finishedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := finishedAt.UTC()
	_, err = tx.ExecContext(ctx, s.rebind(`UPDATE runs SET status = ?, countries = ?, dates = ?, observations = ?,
		global_max = ?, updated_at = ?, finished_at = ? WHERE id = ?`),
		model.StatusCompleted, sum.Countries, sum.Dates, int64(sum.Observations), sum.GlobalMax, now, now, runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO country_maxima (run_id, rank, country, max_cases) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, cv := range sum.TopCountries {
		if _, err := stmt.ExecContext(ctx, runID, i+1, cv.Country, cv.Cases); err != nil {
			return fmt.Errorf("insert maxima for %q: %w", cv.Country, err)
		}
	}
	return tx.Commit()
}

// SaveObservations stores the long table of a run in a single transaction.
func (s *Store) SaveObservations(ctx context.Context, runID string, obs []model.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO observations (run_id, country, obs_date, cases) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx, runID, o.Country, o.Date.Format("2006-01-02"), o.Cases); err != nil {
			return fmt.Errorf("insert observation %s/%s: %w", o.Country, o.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// GetRun fetches a run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*model.RunRecord, error) {
	var r model.RunRecord
	var finished sql.NullTime
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, source, status, countries, dates, observations, global_max,
		started_at, finished_at FROM runs WHERE id = ?`), runID).
		Scan(&r.ID, &r.Source, &r.Status, &r.Countries, &r.Dates, &r.Observations, &r.GlobalMax, &r.StartedAt, &finished)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}

// RunErrors returns the error messages of a run in insertion order.
func (s *Store) RunErrors(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT error_message FROM run_errors WHERE run_id = ? ORDER BY seq`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// StageProgress returns the stage metrics of a run, oldest first.
func (s *Store) StageProgress(ctx context.Context, runID string) ([]model.StageMetrics, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT stage, status, records, started_at, ended_at, duration_ms
		FROM stage_progress WHERE run_id = ? ORDER BY started_at, stage`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StageMetrics
	for rows.Next() {
		var m model.StageMetrics
		var ms int64
		if err := rows.Scan(&m.Stage, &m.Status, &m.Records, &m.StartTime, &m.EndTime, &ms); err != nil {
			return nil, err
		}
		m.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountryMaxima returns the stored ranking of a run.
func (s *Store) CountryMaxima(ctx context.Context, runID string) ([]model.CountryValue, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT country, max_cases FROM country_maxima WHERE run_id = ? ORDER BY rank`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CountryValue
	for rows.Next() {
		var cv model.CountryValue
		if err := rows.Scan(&cv.Country, &cv.Cases); err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, rows.Err()
}

// CountObservations returns how many long-form rows were stored for a run.
func (s *Store) CountObservations(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM observations WHERE run_id = ?`), runID).Scan(&n)
	return n, err
}
