package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/superstep/internal/store"
)

// DBOptions holds the database flag shared by the inspection commands.
type DBOptions struct {
	*RootOptions
	Database string

	// Options are passed to store.Open (for testing).
	Options []store.Option
}

func (o *DBOptions) open() (*store.Store, error) {
	st, err := store.Open(o.Database, o.Options...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	DBOptions
	Delete string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{DBOptions: DBOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Long: `List the runs stored in a database, oldest first.

Examples:
  superstep runs --db results.db
  superstep runs --db results.db --delete 0192b5b0-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Delete, "delete", "", "delete the run with this id and its values")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := opts.open()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	if opts.Delete != "" {
		if err := st.DeleteRun(ctx, opts.Delete); err != nil {
			return reportStoreError(formatter, opts.Delete, err)
		}
		if formatter.JSON() {
			return formatter.Success(map[string]string{"deleted": opts.Delete})
		}
		fmt.Fprintf(formatter.Writer, "✓ Deleted %s\n", opts.Delete)
		return nil
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if formatter.JSON() {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs stored.")
		return nil
	}
	w := formatter.Writer
	fmt.Fprintf(w, "%-36s  %-10s  %8s  %10s  %-9s  %s\n", "ID", "ALGORITHM", "NODES", "SUPERSTEPS", "CONVERGED", "CREATED")
	for _, run := range runs {
		fmt.Fprintf(w, "%-36s  %-10s  %8d  %10d  %-9s  %s\n",
			run.ID, run.Algorithm, run.NodeCount, run.Supersteps,
			strconv.FormatBool(run.Converged), run.CreatedAt.Local().Format(time.DateTime))
	}
	return nil
}

// reportStoreError maps store lookups of an unknown run to a failure and
// everything else to a command error.
func reportStoreError(formatter *OutputFormatter, id string, err error) error {
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error("E005", fmt.Sprintf("run not found: %s", id), nil)
		return WrapExitError(ExitFailure, id, err)
	}
	_ = formatter.Error("E001", err.Error(), nil)
	return WrapExitError(ExitCommandError, "database error", err)
}
