package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/superstep/internal/algorithms"
	"github.com/roach88/superstep/internal/config"
	"github.com/roach88/superstep/internal/graph"
	"github.com/roach88/superstep/internal/pregel"
	"github.com/roach88/superstep/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config        string
	Graph         string
	Algorithm     string
	Concurrency   int
	MaxIterations int
	Async         bool
	Seed          uint64
	Partitioning  string
	Undirected    bool
	Params        []string
	Database      string

	// StoreOptions are passed to store.Open (for testing).
	StoreOptions []store.Option
}

// RunSummary is the outcome of the run command.
type RunSummary struct {
	RunID         string                  `json:"runId,omitempty"`
	Algorithm     string                  `json:"algorithm"`
	Nodes         int64                   `json:"nodes"`
	Relationships int64                   `json:"relationships"`
	Supersteps    int                     `json:"supersteps"`
	Converged     bool                    `json:"converged"`
	DurationMS    int64                   `json:"durationMs"`
	Properties    []string                `json:"properties"`
	Stats         []pregel.SuperstepStats `json:"stats"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an algorithm over an edge list",
		Long: `Run a graph algorithm to completion and print a summary.

The job comes from --config (a CUE job file) and/or flags; flags override
values from the file. With --db the public node values are stored and can be
inspected with "superstep show".

Ctrl-C cancels the computation; a canceled run exits with code 1 and stores
nothing.

Algorithms: ` + strings.Join(algorithms.Names(), ", ") + `

Examples:
  superstep run --config job.cue
  superstep run --graph edges.csv --algorithm pagerank --param dampingFactor=0.8
  superstep run --config job.cue --concurrency 8 --db results.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Config, "config", "c", "", "CUE job file")
	f.StringVarP(&opts.Graph, "graph", "g", "", "edge list CSV (source,target[,weight])")
	f.StringVarP(&opts.Algorithm, "algorithm", "a", "", "algorithm name")
	f.IntVar(&opts.Concurrency, "concurrency", 0, "number of partitions computed in parallel")
	f.IntVar(&opts.MaxIterations, "max-iterations", 0, "superstep cap (default 20, or the fixed superstep count of hits and slpa)")
	f.BoolVar(&opts.Async, "async", false, "deliver messages within the superstep they are sent")
	f.Uint64Var(&opts.Seed, "seed", 0, "random seed")
	f.StringVar(&opts.Partitioning, "partitioning", "", "range or degree")
	f.BoolVar(&opts.Undirected, "undirected", false, "treat every edge as undirected")
	f.StringArrayVarP(&opts.Params, "param", "p", nil, "algorithm parameter as key=value (repeatable)")
	f.StringVar(&opts.Database, "db", "", "SQLite database to store the result in")

	return cmd
}

func runJob(opts *RunOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	job, err := buildJob(opts, cmd)
	if err != nil {
		return reportJobError(formatter, err)
	}
	if job.Algorithm == "" {
		return reportJobError(formatter, &config.LoadError{Code: config.ErrCodeSchema, Message: "an algorithm is required (--algorithm or algorithm: in --config)"})
	}

	c, cfg, err := job.Computation()
	if err != nil {
		return reportJobError(formatter, err)
	}

	g, err := job.LoadGraph()
	if err != nil {
		return reportJobError(formatter, err)
	}
	formatter.VerboseLog("Loaded %s: %d nodes, %d relationships", job.Graph, g.NodeCount(), g.RelationshipCount())

	p, err := pregel.New(g, c, cfg)
	if err != nil {
		return reportJobError(formatter, err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := p.Run(ctx)
	if err != nil {
		if pregel.IsCanceled(err) {
			_ = formatter.Error(string(pregel.ErrCodeCanceled), "computation canceled", nil)
			return WrapExitError(ExitFailure, "computation canceled", err)
		}
		_ = formatter.Error(engineErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, fmt.Sprintf("%s failed", job.Algorithm), err)
	}

	summary := RunSummary{
		Algorithm:     job.Algorithm,
		Nodes:         g.NodeCount(),
		Relationships: g.RelationshipCount(),
		Supersteps:    result.Supersteps,
		Converged:     result.Converged,
		DurationMS:    result.Duration.Milliseconds(),
		Stats:         result.Stats,
	}
	for _, el := range result.Values.Properties() {
		summary.Properties = append(summary.Properties, el.Key)
	}

	if opts.Database != "" {
		id, err := saveRun(ctx, opts, *job, g, result)
		if err != nil {
			_ = formatter.Error(config.ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to store result", err)
		}
		summary.RunID = id
	}

	if formatter.JSON() {
		return formatter.Success(summary)
	}
	writeSummary(formatter.Writer, summary)
	return nil
}

// buildJob reads --config, if given, and applies the flags that were set.
func buildJob(opts *RunOptions, cmd *cobra.Command) (*config.Job, error) {
	job := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, err
		}
		job = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("graph") {
		job.Graph = opts.Graph
	}
	if flags.Changed("algorithm") {
		job.Algorithm = opts.Algorithm
	}
	if flags.Changed("concurrency") {
		job.Concurrency = opts.Concurrency
	}
	if flags.Changed("max-iterations") {
		job.MaxIterations = opts.MaxIterations
	}
	if flags.Changed("async") {
		job.Asynchronous = opts.Async
	}
	if flags.Changed("seed") {
		job.Seed = opts.Seed
	}
	if flags.Changed("partitioning") {
		job.Partitioning = opts.Partitioning
	}
	if flags.Changed("undirected") {
		job.Undirected = opts.Undirected
	}

	if len(opts.Params) > 0 {
		params := make(algorithms.Params, len(job.Params)+len(opts.Params))
		for k, v := range job.Params {
			params[k] = v
		}
		for _, kv := range opts.Params {
			key, value, err := parseParam(kv)
			if err != nil {
				return nil, err
			}
			params[key] = value
		}
		job.Params = params
	}
	return &job, nil
}

// parseParam splits key=value. Integers stay int64, other numbers float64.
func parseParam(kv string) (string, any, error) {
	key, raw, ok := strings.Cut(kv, "=")
	if !ok || key == "" {
		return "", nil, &config.LoadError{Code: config.ErrCodeParams, Message: fmt.Sprintf("parameter %q: expected key=value", kv)}
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return key, i, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", nil, &config.LoadError{Code: config.ErrCodeParams, Message: fmt.Sprintf("parameter %q: value is not a number", key)}
	}
	return key, f, nil
}

func saveRun(ctx context.Context, opts *RunOptions, job config.Job, g *graph.Graph, result *pregel.Result) (string, error) {
	st, err := store.Open(opts.Database, opts.StoreOptions...)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// The computation is done; a late Ctrl-C must not lose the result.
	run, err := st.SaveRun(context.WithoutCancel(ctx), job, g, result)
	if err != nil {
		return "", err
	}
	slog.Info("run stored", "run_id", run.ID, "db", opts.Database)
	return run.ID, nil
}

func writeSummary(w io.Writer, s RunSummary) {
	status := "converged"
	if !s.Converged {
		status = "stopped at superstep cap"
	}
	fmt.Fprintf(w, "✓ %s: %d supersteps, %s\n", s.Algorithm, s.Supersteps, status)
	fmt.Fprintf(w, "  graph:      %d nodes, %d relationships\n", s.Nodes, s.Relationships)
	fmt.Fprintf(w, "  duration:   %s\n", (time.Duration(s.DurationMS) * time.Millisecond).String())
	fmt.Fprintf(w, "  properties: %s\n", strings.Join(s.Properties, ", "))
	if s.RunID != "" {
		fmt.Fprintf(w, "  stored as:  %s\n", s.RunID)
	}
}

// reportJobError prints a job, graph or engine setup error. These are all
// command errors: nothing ran.
func reportJobError(formatter *OutputFormatter, err error) error {
	var loadErr *config.LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, positionDetails(loadErr))
		return NewExitError(ExitCommandError, loadErr.Error())
	}
	_ = formatter.Error(engineErrorCode(err), err.Error(), nil)
	return WrapExitError(ExitCommandError, "invalid job", err)
}

func engineErrorCode(err error) string {
	var pe *pregel.Error
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	return config.ErrCodeGeneric
}
