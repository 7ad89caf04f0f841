package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sailors/internal/store"
)

// InitResult is the JSON payload of the init and seed commands.
type InitResult struct {
	Driver  string             `json:"driver"`
	Dataset string             `json:"dataset,omitempty"`
	Tables  []store.TableCount `json:"tables"`
}

// NewInitCommand creates the init command for creating the tables.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the sailors, boats and reserves tables",
		Long: `Connect to the configured database and create the tables if they do not
exist yet. Existing rows are kept. Prints the row count of every table.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, rootOpts)
		},
	}
	return cmd
}

func runInit(cmd *cobra.Command, rootOpts *RootOptions) error {
	ctx := cmd.Context()
	formatter := rootOpts.formatter(cmd)

	st, cfg, err := rootOpts.openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	counts, err := st.Counts(ctx)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, "failed to count rows", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(InitResult{Driver: cfg.Driver, Tables: counts})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Tables ready (%s)\n", cfg.Driver)
	printCounts(cmd, counts)
	return nil
}

func printCounts(cmd *cobra.Command, counts []store.TableCount) {
	out := cmd.OutOrStdout()
	for _, c := range counts {
		fmt.Fprintf(out, "  %-8s %d rows\n", c.Table+":", c.Rows)
	}
}
