package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/superstep/internal/config"
	"github.com/roach88/superstep/internal/pregel"
)

// Run is one stored computation.
type Run struct {
	ID         string                  `json:"id"`
	Algorithm  string                  `json:"algorithm"`
	Graph      string                  `json:"graph,omitempty"`
	NodeCount  int64                   `json:"nodeCount"`
	Supersteps int                     `json:"supersteps"`
	Converged  bool                    `json:"converged"`
	Duration   time.Duration           `json:"duration"`
	CreatedAt  time.Time               `json:"createdAt"`
	Job        config.Job              `json:"job"`
	Stats      []pregel.SuperstepStats `json:"stats,omitempty"`
}

// SaveRun stores result together with the job that produced it. Every
// public property of every node is written; private properties never reach
// the result. g maps node ids back to external ids when it implements
// pregel.IDMapper.
//
// The run and its values are written in one transaction.
func (s *Store) SaveRun(ctx context.Context, job config.Job, g pregel.Graph, result *pregel.Result) (*Run, error) {
	run := &Run{
		ID:         s.ids.Generate(),
		Algorithm:  job.Algorithm,
		Graph:      job.Graph,
		NodeCount:  result.Values.NodeCount(),
		Supersteps: result.Supersteps,
		Converged:  result.Converged,
		Duration:   result.Duration,
		CreatedAt:  s.clock.Now().UTC().Truncate(time.Millisecond),
		Job:        job,
		Stats:      result.Stats,
	}

	jobJSON, err := marshalJSON(job)
	if err != nil {
		return nil, fmt.Errorf("save run: marshal job: %w", err)
	}
	statsJSON, err := marshalJSON(result.Stats)
	if err != nil {
		return nil, fmt.Errorf("save run: marshal stats: %w", err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs
			(id, algorithm, graph, node_count, supersteps, converged, duration_ns, created_at, job, stats)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			run.Algorithm,
			run.Graph,
			run.NodeCount,
			run.Supersteps,
			run.Converged,
			int64(run.Duration),
			run.CreatedAt.UnixMilli(),
			jobJSON,
			statsJSON,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return writeValues(ctx, tx, run.ID, g, result.Values)
	})
	if err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	return run, nil
}

func writeValues(ctx context.Context, tx *sql.Tx, runID string, g pregel.Graph, values pregel.Values) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO node_values (run_id, property, node, original_id, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare node values: %w", err)
	}
	defer stmt.Close()

	mapper, _ := g.(pregel.IDMapper)
	for _, el := range values.Properties() {
		for node := int64(0); node < values.NodeCount(); node++ {
			v, err := values.Value(el.Key, node)
			if err != nil {
				return err
			}
			data, err := marshalJSON(v)
			if err != nil {
				return fmt.Errorf("marshal %s of node %d: %w", el.Key, node, err)
			}
			original := node
			if mapper != nil {
				original = mapper.ToOriginalID(node)
			}
			if _, err := stmt.ExecContext(ctx, runID, el.Key, node, original, data); err != nil {
				return fmt.Errorf("insert %s of node %d: %w", el.Key, node, err)
			}
		}
	}
	return nil
}

// DeleteRun removes a run and its node values. Deleting an unknown run is
// an ErrRunNotFound.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrRunNotFound)
	}
	return nil
}
