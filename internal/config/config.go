// Package config loads job files. A job names an algorithm, its parameters,
// the input graph and the engine settings. Job files are written in CUE and
// checked against the embedded #Job schema before they are decoded.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/superstep/internal/algorithms"
	"github.com/roach88/superstep/internal/graph"
	"github.com/roach88/superstep/internal/pregel"
)

//go:embed schema.cue
var schemaSource string

// Error codes shared by every command that reads a job.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeNotFound         = "E005" // Path not found
	ErrCodeBuildFailed      = "E006" // CUE build failed
	ErrCodeSchema           = "E008" // Job does not match #Job
	ErrCodeUnknownAlgorithm = "E009" // Algorithm not registered
	ErrCodeParams           = "E010" // Algorithm rejected its parameters
)

// LoadError is a job file error with its CUE position when known.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the 1-based line of the error, or 0.
func (e *LoadError) Line() int {
	if !e.Pos.IsValid() {
		return 0
	}
	return e.Pos.Line()
}

// Job is one decoded job. The yaml tags let harness scenarios embed it.
type Job struct {
	Algorithm     string            `json:"algorithm" yaml:"algorithm"`
	Graph         string            `json:"graph,omitempty" yaml:"graph,omitempty"`
	Undirected    bool              `json:"undirected" yaml:"undirected"`
	Concurrency   int               `json:"concurrency" yaml:"concurrency"`
	MaxIterations int               `json:"maxIterations,omitempty" yaml:"maxIterations,omitempty"` // 0: not set
	Asynchronous  bool              `json:"asynchronous" yaml:"asynchronous"`
	Partitioning  string            `json:"partitioning" yaml:"partitioning"`
	Seed          uint64            `json:"seed" yaml:"seed"`
	Params        algorithms.Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// Default returns a job with the engine defaults, no algorithm and no
// superstep cap.
func Default() Job {
	cfg := pregel.DefaultConfig()
	return Job{
		Concurrency:  cfg.Concurrency,
		Partitioning: string(cfg.Partitioning),
	}
}

// Load reads and decodes the job file at path. A relative graph path is
// resolved against the directory of the job file.
func Load(path string) (*Job, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("job file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading job file: %v", err)}
	}

	job, err := Parse(path, src)
	if err != nil {
		return nil, err
	}
	if job.Graph != "" && !filepath.IsAbs(job.Graph) {
		job.Graph = filepath.Join(filepath.Dir(path), job.Graph)
	}
	return job, nil
}

// Parse decodes CUE source. filename is only used in positions.
func Parse(filename string, src []byte) (*Job, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling job schema: %w", err)
	}

	file := ctx.CompileBytes(src, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return nil, cueError(ErrCodeBuildFailed, filename, err)
	}

	v := schema.LookupPath(cue.ParsePath("#Job")).Unify(file)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeSchema, filename, err)
	}

	job, err := decode(v)
	if err != nil {
		return nil, err
	}

	if _, err := algorithms.Lookup(job.Algorithm); err != nil {
		return nil, &LoadError{
			Code:    ErrCodeUnknownAlgorithm,
			Message: err.Error(),
			Pos:     file.LookupPath(cue.ParsePath("algorithm")).Pos(),
		}
	}
	return job, nil
}

func decode(v cue.Value) (*Job, error) {
	job := &Job{}
	var err error

	if job.Algorithm, err = field(v, "algorithm").String(); err != nil {
		return nil, cueError(ErrCodeSchema, "", err)
	}
	if g := field(v, "graph"); g.Exists() && g.IsConcrete() {
		if job.Graph, err = g.String(); err != nil {
			return nil, cueError(ErrCodeSchema, "", err)
		}
	}
	if job.Undirected, err = field(v, "undirected").Bool(); err != nil {
		return nil, cueError(ErrCodeSchema, "", err)
	}
	if job.Asynchronous, err = field(v, "asynchronous").Bool(); err != nil {
		return nil, cueError(ErrCodeSchema, "", err)
	}
	if job.Partitioning, err = field(v, "partitioning").String(); err != nil {
		return nil, cueError(ErrCodeSchema, "", err)
	}
	if job.Seed, err = field(v, "seed").Uint64(); err != nil {
		return nil, cueError(ErrCodeSchema, "", err)
	}

	concurrency, err := field(v, "concurrency").Int64()
	if err != nil {
		return nil, cueError(ErrCodeSchema, "", err)
	}
	job.Concurrency = int(concurrency)

	if m := field(v, "maxIterations"); m.Exists() && m.IsConcrete() {
		maxIterations, err := m.Int64()
		if err != nil {
			return nil, cueError(ErrCodeSchema, "", err)
		}
		job.MaxIterations = int(maxIterations)
	}

	if job.Params, err = decodeParams(field(v, "params")); err != nil {
		return nil, err
	}
	return job, nil
}

// decodeParams keeps integers as int64 and everything else as float64. No
// params decode as nil.
func decodeParams(v cue.Value) (algorithms.Params, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, cueError(ErrCodeSchema, "", err)
	}

	params := algorithms.Params{}
	for iter.Next() {
		p := iter.Value()
		if p.Kind() == cue.IntKind {
			n, err := p.Int64()
			if err != nil {
				return nil, cueError(ErrCodeSchema, "", err)
			}
			params[iter.Label()] = n
			continue
		}
		f, err := p.Float64()
		if err != nil {
			return nil, cueError(ErrCodeSchema, "", err)
		}
		params[iter.Label()] = f
	}
	if len(params) == 0 {
		return nil, nil
	}
	return params, nil
}

// field looks up name and resolves it to its default, if any.
func field(v cue.Value, name string) cue.Value {
	f := v.LookupPath(cue.ParsePath(name))
	if d, ok := f.Default(); ok {
		return d
	}
	return f
}

// cueError converts the first CUE error into a LoadError. Positions inside
// filename win over positions in the schema.
func cueError(code, filename string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	loadErr := &LoadError{Code: code, Message: first.Error()}
	for i, pos := range cueerrors.Positions(first) {
		if i == 0 || pos.Filename() == filename {
			loadErr.Pos = pos
		}
		if pos.Filename() == filename {
			break
		}
	}
	return loadErr
}

// EngineConfig returns the engine settings of j. Without a cap the engine
// default applies.
func (j *Job) EngineConfig() pregel.Config {
	maxIterations := j.MaxIterations
	if maxIterations == 0 {
		maxIterations = pregel.DefaultMaxIterations
	}
	return pregel.Config{
		Concurrency:   j.Concurrency,
		MaxIterations: maxIterations,
		Asynchronous:  j.Asynchronous,
		Partitioning:  pregel.Partitioning(j.Partitioning),
		Seed:          j.Seed,
	}
}

// Computation builds the job's algorithm and the engine config it should
// run with. Algorithms with a fixed superstep count run that many supersteps
// unless the job sets a lower cap.
func (j *Job) Computation() (pregel.Computation, pregel.Config, error) {
	alg, err := algorithms.Lookup(j.Algorithm)
	if err != nil {
		return nil, pregel.Config{}, &LoadError{Code: ErrCodeUnknownAlgorithm, Message: err.Error()}
	}
	c, err := alg.New(j.Params)
	if err != nil {
		return nil, pregel.Config{}, &LoadError{
			Code:    ErrCodeParams,
			Message: fmt.Sprintf("%s: %v", j.Algorithm, err),
		}
	}
	cfg := algorithms.EngineConfig(c, j.EngineConfig())
	if j.MaxIterations != 0 {
		cfg.MaxIterations = min(cfg.MaxIterations, j.MaxIterations)
	}
	if _, err := c.Schema(cfg); err != nil {
		return nil, pregel.Config{}, &LoadError{Code: ErrCodeSchema, Message: err.Error()}
	}
	return c, cfg, nil
}

// LoadGraph reads the job's edge list.
func (j *Job) LoadGraph() (*graph.Graph, error) {
	if j.Graph == "" {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "job has no graph"}
	}
	g, err := graph.LoadEdgeList(j.Graph, graph.WithUndirected(j.Undirected))
	if err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	return g, nil
}

// ParamNames returns the parameter keys, sorted.
func (j *Job) ParamNames() []string {
	names := make([]string, 0, len(j.Params))
	for name := range j.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
