package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/superstep/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	DBOptions
	Property string
	Node     int64
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Run    *store.Run        `json:"run"`
	Values []store.NodeValue `json:"values"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{DBOptions: DBOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the stored node values of a run",
		Long: `Print a stored run and its node values.

Values are listed by property, then by node. --node takes the external id
used in the edge list.

Examples:
  superstep show --db results.db 0192b5b0-...
  superstep show --db results.db 0192b5b0-... --property rank --node 42`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Property, "property", "", "only this property")
	cmd.Flags().Int64Var(&opts.Node, "node", 0, "only this node (external id)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := opts.open()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	run, err := st.GetRun(ctx, id)
	if err != nil {
		return reportStoreError(formatter, id, err)
	}

	q := store.ValueQuery{Property: opts.Property}
	if cmd.Flags().Changed("node") {
		q.OriginalID = &opts.Node
	}
	values, err := st.NodeValues(ctx, id, q)
	if err != nil {
		return reportStoreError(formatter, id, err)
	}

	if formatter.JSON() {
		return formatter.Success(ShowResult{Run: run, Values: values})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s  %s  %d nodes  %d supersteps  converged=%v\n",
		run.ID, run.Algorithm, run.NodeCount, run.Supersteps, run.Converged)
	if run.Graph != "" {
		fmt.Fprintf(w, "graph: %s\n", run.Graph)
	}
	if len(values) == 0 {
		fmt.Fprintln(w, "No values match.")
		return nil
	}
	fmt.Fprintln(w)
	for _, v := range values {
		fmt.Fprintf(w, "%-12s %10d  %s\n", v.Property, v.OriginalID, v.Value)
	}
	return nil
}
