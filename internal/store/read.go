package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned for run ids that are not stored.
var ErrRunNotFound = errors.New("run not found")

// NodeValue is one stored property of one node.
type NodeValue struct {
	Node       int64           `json:"node"`
	OriginalID int64           `json:"originalId"`
	Property   string          `json:"property"`
	Value      json.RawMessage `json:"value"`
}

// ValueQuery narrows NodeValues. The zero value selects everything.
type ValueQuery struct {
	Property   string
	OriginalID *int64
}

const runColumns = `id, algorithm, graph, node_count, supersteps, converged, duration_ns, created_at, job, stats`

// ListRuns returns every stored run in insertion order.
//
// Returns an empty slice (not nil) if no runs are stored.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with id, or an error wrapping ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// NodeValues returns the stored values of run id matching q, ordered by
// property, then node.
func (s *Store) NodeValues(ctx context.Context, id string, q ValueQuery) ([]NodeValue, error) {
	if _, err := s.GetRun(ctx, id); err != nil {
		return nil, err
	}

	query := `SELECT node, original_id, property, value FROM node_values WHERE run_id = ?`
	args := []any{id}
	if q.Property != "" {
		query += ` AND property = ?`
		args = append(args, q.Property)
	}
	if q.OriginalID != nil {
		query += ` AND original_id = ?`
		args = append(args, *q.OriginalID)
	}
	query += ` ORDER BY property COLLATE BINARY ASC, node ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query node values: %w", err)
	}
	defer rows.Close()

	values := []NodeValue{}
	for rows.Next() {
		var v NodeValue
		var data string
		if err := rows.Scan(&v.Node, &v.OriginalID, &v.Property, &data); err != nil {
			return nil, fmt.Errorf("scan node value: %w", err)
		}
		v.Value = json.RawMessage(data)
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate node values: %w", err)
	}
	return values, nil
}

// Properties returns the property keys stored for run id, sorted.
func (s *Store) Properties(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT property FROM node_values
		WHERE run_id = ?
		ORDER BY property COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	props := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return props, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		converged  bool
		durationNS int64
		createdAt  int64
		jobJSON    string
		statsJSON  string
	)
	err := row.Scan(
		&run.ID,
		&run.Algorithm,
		&run.Graph,
		&run.NodeCount,
		&run.Supersteps,
		&converged,
		&durationNS,
		&createdAt,
		&jobJSON,
		&statsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Converged = converged
	run.Duration = time.Duration(durationNS)
	run.CreatedAt = time.UnixMilli(createdAt).UTC()

	if run.Job, err = unmarshalJob(jobJSON); err != nil {
		return Run{}, err
	}
	if run.Stats, err = unmarshalStats(statsJSON); err != nil {
		return Run{}, err
	}
	return run, nil
}
