package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/khrees2412/jobharvest/pkg/models"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// Repository mirrors harvest runs and the jobs they stored into SQLite.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Run operations

// StartRun inserts an open run and returns it with a fresh id.
func (r *Repository) StartRun(querySpec string, queries int) (*models.Run, error) {
	run := &models.Run{
		ID:        uuid.NewString(),
		QuerySpec: querySpec,
		Queries:   queries,
		StartedAt: r.now().UTC(),
	}
	query := `INSERT INTO runs (id, query_spec, queries, started_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.Exec(query, run.ID, run.QuerySpec, run.Queries, run.StartedAt); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final counters of run and stamps finished_at.
func (r *Repository) FinishRun(run *models.Run) error {
	finished := r.now().UTC()
	query := `UPDATE runs SET accepted=?, duplicates=?, failures=?, new_jobs=?, total_jobs=?, finished_at=?
			  WHERE id=?`
	result, err := r.db.Exec(query, run.Accepted, run.Duplicates, run.Failures,
		run.NewJobs, run.TotalJobs, finished, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	run.FinishedAt = &finished
	return nil
}

// RecordJobs mirrors the given records under runID. Records already mirrored
// by any run are left untouched; the number of new rows is returned.
func (r *Repository) RecordJobs(runID string, records []models.JobRecord) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO jobs
		(identity, run_id, search_term, title, publisher, platform, job_type, salary, time_posted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		result, err := stmt.Exec(rec.Identity(), runID, rec.SearchTerm, rec.JobTitle,
			rec.Publisher, rec.Platform(), rec.JobType, rec.Salary, rec.TimePosted)
		if err != nil {
			return 0, fmt.Errorf("failed to record job %q: %w", rec.JobTitle, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListRuns returns the most recent runs first.
func (r *Repository) ListRuns(limit int) ([]*models.Run, error) {
	query := `SELECT id, query_spec, queries, accepted, duplicates, failures, new_jobs, total_jobs,
			  started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT ?`
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*models.Run{}
	for rows.Next() {
		run := &models.Run{}
		var finished sql.NullTime
		err := rows.Scan(&run.ID, &run.QuerySpec, &run.Queries, &run.Accepted, &run.Duplicates,
			&run.Failures, &run.NewJobs, &run.TotalJobs, &run.StartedAt, &finished)
		if err != nil {
			return nil, err
		}
		if finished.Valid {
			run.FinishedAt = &finished.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *Repository) GetRun(id string) (*models.Run, error) {
	query := `SELECT id, query_spec, queries, accepted, duplicates, failures, new_jobs, total_jobs,
			  started_at, finished_at FROM runs WHERE id=?`
	run := &models.Run{}
	var finished sql.NullTime
	err := r.db.QueryRow(query, id).Scan(&run.ID, &run.QuerySpec, &run.Queries, &run.Accepted,
		&run.Duplicates, &run.Failures, &run.NewJobs, &run.TotalJobs, &run.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return run, nil
}

// Stats operations

// Count is one bucket of a breakdown.
type Count struct {
	Key   string
	Count int
}

// Stats summarises the mirrored jobs.
type Stats struct {
	TotalRuns  int
	TotalJobs  int
	ByPlatform []Count
	ByJobType  []Count
}

func (r *Repository) GetStats() (*Stats, error) {
	stats := &Stats{}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&stats.TotalRuns); err != nil {
		return nil, err
	}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM jobs`).Scan(&stats.TotalJobs); err != nil {
		return nil, err
	}

	var err error
	if stats.ByPlatform, err = r.breakdown("platform"); err != nil {
		return nil, err
	}
	if stats.ByJobType, err = r.breakdown("job_type"); err != nil {
		return nil, err
	}
	return stats, nil
}

// breakdown groups jobs by column; column is never user input.
func (r *Repository) breakdown(column string) ([]Count, error) {
	query := fmt.Sprintf(`SELECT %s, COUNT(*) AS n FROM jobs GROUP BY %s ORDER BY n DESC, %s ASC`,
		column, column, column)
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []Count{}
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
