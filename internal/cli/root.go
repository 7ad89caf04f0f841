package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/sailors/internal/config"
	"github.com/roach88/sailors/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Backend selection. Empty values fall through to the environment,
	// the .env file and then the defaults.
	Driver  string
	DSN     string
	EnvFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sailors CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sailors",
		Short: "sailors - structured queries checked against literal SQL",
		Long: `Builds queries over the sailors/boats/reserves schema from a structured
representation and checks that each returns exactly the rows of its
hand-written SQL counterpart.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver (sqlite3|mysql|pgx), overrides "+config.EnvDriver)
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "data source name, overrides "+config.EnvDSN)
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "read settings from this file instead of ./.env")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger returns a text logger on the command's stderr: debug level with
// --verbose, warnings only otherwise.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return newLogger(cmd.ErrOrStderr(), o.Verbose)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore resolves the backend configuration and opens the store.
// Failures are command errors. The caller must Close the store.
func (o *RootOptions) openStore(ctx context.Context, cmd *cobra.Command) (*store.Store, config.Config, error) {
	f := o.formatter(cmd)

	cfg, err := config.Load(config.Flags{Driver: o.Driver, DSN: o.DSN, EnvFile: o.EnvFile})
	if err != nil {
		return nil, config.Config{}, commandError(f, ErrCodeConfig, "invalid configuration", err)
	}
	f.VerboseLog("Connecting to %s", cfg.Driver)

	st, err := store.Open(ctx, cfg.Store(), store.WithLogger(o.logger(cmd)))
	if err != nil {
		return nil, cfg, commandError(f, ErrCodeConnect, "failed to open database", err)
	}
	return st, cfg, nil
}

// commandError reports err through the formatter in JSON mode and wraps it
// with ExitCommandError. In text mode the caller of Execute prints it.
func commandError(f *OutputFormatter, code, message string, err error) error {
	if f.Format == "json" {
		_ = f.Error(code, message, errorDetail(err))
	}
	return WrapExitError(ExitCommandError, message, err)
}

func errorDetail(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}
