// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package store keeps generation runs and their pairs in DuckDB.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcodagnone/haversine/record"
	"github.com/jcodagnone/haversine/spatial"
)

// DefaultH3Res is the resolution of the H3 cells stored next to each point.
const DefaultH3Res = 4

var ErrRunNotFound = errors.New("run not found")

// Run describes how a stored record was generated.
type Run struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	NPairs    int       `json:"n_pairs"` // requested pairs
	Emitted   int       `json:"emitted"` // pairs actually stored
	Clusters  int       `json:"clusters"`
	Policy    string    `json:"policy"` // faithful, corrected
	Seed      uint64    `json:"seed"`
	Radius    float64   `json:"radius"`
	AvgDist   float64   `json:"avg_dist"` // as computed at generation time
	H3Res     int       `json:"h3_res"`
}

// RunRepository handles persistence of generation runs.
type RunRepository interface {
	// CreateSchema creates the runs and pairs tables
	CreateSchema() error

	// SaveRun stores the run and all the record's pairs, returning the run id
	SaveRun(run *Run, rec *record.Record) (int64, error)

	// GetRun returns a run by id
	GetRun(id int64) (*Run, error)

	// ListRuns returns all runs, most recent first
	ListRuns() ([]*Run, error)

	// LoadRecord rebuilds the result record of a run
	LoadRecord(id int64) (*record.Record, error)

	// AverageDistance recomputes the run's average haversine distance in SQL
	AverageDistance(id int64) (float64, error)

	// CellCount returns how many distinct H3 cells the run's first points cover
	CellCount(id int64) (int, error)
}

type sqlRunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB) RunRepository {
	return &sqlRunRepository{db: db}
}

func (r *sqlRunRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS runs_seq START 1;

		CREATE TABLE IF NOT EXISTS runs (
			id BIGINT PRIMARY KEY DEFAULT nextval('runs_seq'),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			n_pairs BIGINT NOT NULL,
			emitted BIGINT NOT NULL,
			clusters INTEGER NOT NULL,
			policy VARCHAR NOT NULL,
			seed BIGINT NOT NULL,
			radius DOUBLE NOT NULL,
			avg_dist DOUBLE,
			h3_res INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS pairs (
			run_id BIGINT NOT NULL,
			idx BIGINT NOT NULL,
			x0 DOUBLE NOT NULL,
			y0 DOUBLE NOT NULL,
			x1 DOUBLE NOT NULL,
			y1 DOUBLE NOT NULL,
			h3_cell0 BIGINT,
			h3_cell1 BIGINT,
			PRIMARY KEY (run_id, idx)
		);
	`)

	return err
}

func (r *sqlRunRepository) SaveRun(run *Run, rec *record.Record) (int64, error) {
	if run.H3Res == 0 {
		run.H3Res = DefaultH3Res
	}

	run.Emitted = len(rec.Pairs)
	run.Radius = rec.Radius
	run.AvgDist = rec.AvgDist

	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}

	rollback := func(err error) (int64, error) {
		if rErr := tx.Rollback(); rErr != nil {
			err = errors.Join(err, rErr)
		}

		return 0, err
	}

	var id int64

	err = tx.QueryRow(`
		INSERT INTO runs (n_pairs, emitted, clusters, policy, seed, radius, avg_dist, h3_res)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at
	`,
		run.NPairs,
		run.Emitted,
		run.Clusters,
		run.Policy,
		int64(run.Seed),
		run.Radius,
		run.AvgDist,
		run.H3Res,
	).Scan(&id, &run.CreatedAt)
	if err != nil {
		return rollback(fmt.Errorf("inserting run: %w", err))
	}

	stmt, err := tx.Prepare(`
		INSERT INTO pairs (run_id, idx, x0, y0, x1, y1, h3_cell0, h3_cell1)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return rollback(err)
	}
	defer stmt.Close()

	for i, p := range rec.Pairs {
		cell0, err := spatial.Point{Lng: p.X0, Lat: p.Y0}.Cell(run.H3Res)
		if err != nil {
			return rollback(err)
		}

		cell1, err := spatial.Point{Lng: p.X1, Lat: p.Y1}.Cell(run.H3Res)
		if err != nil {
			return rollback(err)
		}

		if _, err := stmt.Exec(id, i, p.X0, p.Y0, p.X1, p.Y1, int64(cell0), int64(cell1)); err != nil {
			return rollback(fmt.Errorf("inserting pair %d: %w", i, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	run.ID = id

	return id, nil
}

const runColumns = `id, created_at, n_pairs, emitted, clusters, policy, seed, radius, avg_dist, h3_res`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run     Run
		seed    int64
		avgDist sql.NullFloat64
	)

	err := row.Scan(
		&run.ID,
		&run.CreatedAt,
		&run.NPairs,
		&run.Emitted,
		&run.Clusters,
		&run.Policy,
		&seed,
		&run.Radius,
		&avgDist,
		&run.H3Res,
	)
	if err != nil {
		return nil, err
	}

	run.Seed = uint64(seed)

	if avgDist.Valid {
		run.AvgDist = avgDist.Float64
	}

	return &run, nil
}

func (r *sqlRunRepository) GetRun(id int64) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}

	return run, err
}

func (r *sqlRunRepository) ListRuns() ([]*Run, error) {
	rows, err := r.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (r *sqlRunRepository) LoadRecord(id int64) (*record.Record, error) {
	run, err := r.GetRun(id)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`SELECT x0, y0, x1, y1 FROM pairs WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rec := &record.Record{
		Pairs:   make([]record.Pair, 0, run.Emitted),
		AvgDist: run.AvgDist,
		Radius:  run.Radius,
	}

	for rows.Next() {
		var p record.Pair
		if err := rows.Scan(&p.X0, &p.Y0, &p.X1, &p.Y1); err != nil {
			return nil, err
		}

		rec.Pairs = append(rec.Pairs, p)
	}

	return rec, rows.Err()
}

func (r *sqlRunRepository) AverageDistance(id int64) (float64, error) {
	if _, err := r.GetRun(id); err != nil {
		return 0, err
	}

	var avg sql.NullFloat64

	err := r.db.QueryRow(`
		SELECT AVG(2 * r.radius * asin(sqrt(least(greatest(
			pow(sin((radians(p.y1) - radians(p.y0)) / 2), 2) +
			cos(radians(p.y0)) * cos(radians(p.y1)) * pow(sin(radians(p.x0 - p.x1) / 2), 2),
			0), 1))))
		FROM pairs p
		JOIN runs r ON r.id = p.run_id
		WHERE p.run_id = ?
	`, id).Scan(&avg)
	if err != nil {
		return 0, err
	}

	if !avg.Valid {
		return 0, spatial.ErrEmpty
	}

	return avg.Float64, nil
}

func (r *sqlRunRepository) CellCount(id int64) (int, error) {
	if _, err := r.GetRun(id); err != nil {
		return 0, err
	}

	var n int
	err := r.db.QueryRow(`SELECT COUNT(DISTINCT h3_cell0) FROM pairs WHERE run_id = ?`, id).Scan(&n)

	return n, err
}
