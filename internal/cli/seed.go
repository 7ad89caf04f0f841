package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sailors/internal/dataset"
	"github.com/roach88/sailors/internal/store"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	Reset bool
}

// NewSeedCommand creates the seed command for loading a dataset file.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed <dataset.yaml>",
		Short: "Load a dataset file into the database",
		Long: `Validate a YAML dataset and insert its sailors, boats and reservations in
one transaction. With --reset every existing row is deleted first.

The file is checked before the database is touched: unknown fields, values
outside their column's range and dangling references are all rejected.`,
		Example: `  sailors seed datasets/classic.yaml
  sailors --dsn /tmp/s.db seed --reset datasets/classic.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "delete all existing rows before inserting")

	return cmd
}

func runSeed(cmd *cobra.Command, rootOpts *RootOptions, opts *SeedOptions, path string) error {
	ctx := cmd.Context()
	formatter := rootOpts.formatter(cmd)

	ds, err := dataset.Load(path)
	if err != nil {
		return commandError(formatter, ErrCodeDataset, "invalid dataset", err)
	}
	formatter.VerboseLog("Loaded %s: %d sailors, %d boats, %d reservations",
		ds.Name, len(ds.Sailors), len(ds.Boats), len(ds.Reserves))

	st, cfg, err := rootOpts.openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := seedStore(ctx, st, ds, opts.Reset); err != nil {
		return commandError(formatter, ErrCodeDatabase, "failed to seed database", err)
	}

	counts, err := st.Counts(ctx)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, "failed to count rows", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(InitResult{Driver: cfg.Driver, Dataset: ds.Name, Tables: counts})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Seeded %s: %d sailors, %d boats, %d reservations\n",
		ds.Name, len(ds.Sailors), len(ds.Boats), len(ds.Reserves))
	printCounts(cmd, counts)
	return nil
}

func seedStore(ctx context.Context, st *store.Store, ds *dataset.Dataset, reset bool) error {
	if reset {
		if err := st.Reset(ctx); err != nil {
			return err
		}
	}
	return st.Seed(ctx, ds)
}
