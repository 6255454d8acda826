package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/superstep/internal/config"
	"github.com/roach88/superstep/internal/pregel"
)

// marshalJSON encodes v as compact JSON TEXT with HTML escaping disabled.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalJob parses a stored job. Parameters keep their exact numeric text
// as json.Number.
func unmarshalJob(data string) (config.Job, error) {
	var job config.Job
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&job); err != nil {
		return config.Job{}, fmt.Errorf("unmarshal job: %w", err)
	}
	return job, nil
}

func unmarshalStats(data string) ([]pregel.SuperstepStats, error) {
	var stats []pregel.SuperstepStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	return stats, nil
}
