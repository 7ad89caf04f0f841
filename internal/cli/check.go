package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sailors/internal/checks"
	"github.com/roach88/sailors/internal/dataset"
	"github.com/roach88/sailors/internal/harness"
	"github.com/roach88/sailors/internal/resultset"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	Filter        string
	Tolerance     float64
	StrictColumns bool
	Dataset       string
}

// NewCheckCommand creates the check command for running the checks.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the structured queries and compare them with their literal SQL",
		Long: `Run every check against the configured database. Each check executes its
structured query and then its literal SQL; the two result sets must contain
the same rows in the same order.

Exit codes:
  0  every check passed
  1  at least one check failed or errored
  2  the command could not run (bad flags, dataset or connection)`,
		Example: `  sailors check
  sailors check --filter '*red*'
  sailors --dsn :memory: check --dataset datasets/classic.yaml
  sailors --format json check`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run checks whose name matches this glob")
	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", resultset.DefaultFloatTolerance, "relative tolerance for float cells")
	cmd.Flags().BoolVar(&opts.StrictColumns, "strict-columns", false, "also require identical column names")
	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "reset the database and load this dataset before running")

	return cmd
}

func runCheck(cmd *cobra.Command, rootOpts *RootOptions, opts *CheckOptions) error {
	ctx := cmd.Context()
	formatter := rootOpts.formatter(cmd)

	if opts.Tolerance < 0 {
		return commandError(formatter, ErrCodeGeneric,
			fmt.Sprintf("invalid tolerance %g: must not be negative", opts.Tolerance), nil)
	}

	selected, err := checks.Filter(opts.Filter)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, "invalid filter", err)
	}
	if len(selected) == 0 {
		return commandError(formatter, ErrCodeUnknownCheck,
			fmt.Sprintf("no checks match filter %q", opts.Filter), nil)
	}

	var ds *dataset.Dataset
	if opts.Dataset != "" {
		ds, err = dataset.Load(opts.Dataset)
		if err != nil {
			return commandError(formatter, ErrCodeDataset, "invalid dataset", err)
		}
	}

	st, cfg, err := rootOpts.openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	datasetName := cfg.DSN
	if ds != nil {
		if err := seedStore(ctx, st, ds, true); err != nil {
			return commandError(formatter, ErrCodeDatabase, "failed to seed database", err)
		}
		datasetName = ds.Name
	}

	h := harness.New(st,
		harness.WithLogger(rootOpts.logger(cmd)),
		harness.WithDataset(datasetName),
		harness.WithCompareOptions(resultset.Options{
			FloatTolerance:     opts.Tolerance,
			CompareColumnNames: opts.StrictColumns,
		}),
	)

	formatter.VerboseLog("Running %d checks against %s", len(selected), cfg.Driver)
	report, err := h.Run(ctx, selected)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, "check run interrupted", err)
	}

	if formatter.Format == "json" {
		if err := outputCheckJSON(formatter, report); err != nil {
			return err
		}
	} else {
		outputCheckText(cmd, formatter, report)
	}

	if !report.OK() {
		return NewExitError(ExitFailure, summaryLine(report))
	}
	return nil
}

func outputCheckJSON(formatter *OutputFormatter, report *harness.Report) error {
	resp := CLIResponse{
		Status: "ok",
		Data:   report,
		RunID:  report.RunID,
	}
	if !report.OK() {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    ErrCodeCheckFailed,
			Message: summaryLine(report),
			Details: failedNames(report),
		}
	}
	return formatter.Respond(resp)
}

func outputCheckText(cmd *cobra.Command, formatter *OutputFormatter, report *harness.Report) {
	out := cmd.OutOrStdout()

	for _, res := range report.Results {
		switch res.Status {
		case harness.StatusPass:
			fmt.Fprintf(out, "✓ %d %s (%d rows)\n", res.ID, res.Name, res.Rows)
			formatter.VerboseLog("  %s: %s", res.Name, res.Fingerprint)
		case harness.StatusFail:
			fmt.Fprintf(out, "✗ %d %s\n", res.ID, res.Name)
			printIndented(cmd, res.Mismatch.Error())
		default:
			fmt.Fprintf(out, "! %d %s\n", res.ID, res.Name)
			printIndented(cmd, res.Error)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Run %s\n", report.RunID)
	fmt.Fprintln(out, summaryLine(report))
}

func printIndented(cmd *cobra.Command, text string) {
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", line)
	}
}

func summaryLine(report *harness.Report) string {
	s := fmt.Sprintf("%d checks: %d passed, %d failed", report.Total, report.Passed, report.Failed)
	if report.Errored > 0 {
		s += fmt.Sprintf(" (%d errored)", report.Errored)
	}
	return s
}

func failedNames(report *harness.Report) []string {
	var names []string
	for _, res := range report.Results {
		if res.Status != harness.StatusPass {
			names = append(names, res.Name)
		}
	}
	return names
}
