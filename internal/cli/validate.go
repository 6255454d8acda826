package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/superstep/internal/config"
	"github.com/roach88/superstep/internal/pregel"
)

// ValidationError is one problem found in a job file.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Job    *config.Job       `json:"job,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <job.cue>",
		Short: "Validate a job file without running it",
		Long: `Validate a CUE job file against the job schema.

Checks syntax, field types and ranges, and that the algorithm exists and
accepts the given parameters. The graph is not loaded.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var cfg pregel.Config
	job, err := config.Load(path)
	if err == nil {
		// Parameters are only checked by the algorithm itself.
		_, cfg, err = job.Computation()
	}
	if err != nil {
		var loadErr *config.LoadError
		if !errors.As(err, &loadErr) {
			return outputValidateError(formatter, config.ErrCodeGeneric, err.Error())
		}
		if loadErr.Code == config.ErrCodeNotFound || loadErr.Code == config.ErrCodeGeneric {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidationErrors(formatter, []ValidationError{{
			Code:    loadErr.Code,
			Message: loadErr.Message,
			Line:    loadErr.Line(),
		}})
	}

	formatter.VerboseLog("Parameters: %v", job.ParamNames())
	return outputValidateSuccess(formatter, job, cfg)
}

func outputValidateSuccess(formatter *OutputFormatter, job *config.Job, cfg pregel.Config) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Job: job})
	}

	fmt.Fprintf(formatter.Writer, "✓ Job valid: %s (concurrency %d, max iterations %d, %s partitioning)\n",
		job.Algorithm, job.Concurrency, cfg.MaxIterations, job.Partitioning)
	return nil
}

// outputValidateError reports a file that could not be read at all.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.JSON() {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// positionDetails returns the file position of a load error for verbose
// output, or nil.
func positionDetails(err *config.LoadError) any {
	if !err.Pos.IsValid() {
		return nil
	}
	return err.Pos.String()
}
