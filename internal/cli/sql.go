package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/roach88/sailors/internal/checks"
	"github.com/roach88/sailors/internal/config"
)

// CheckSQL is the JSON payload entry of the sql command.
type CheckSQL struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	StructuredSQL string `json:"structured_sql"`
	Params        []any  `json:"params"`
	Literal       string `json:"literal"`
}

// NewSQLCommand creates the sql command for printing compiled checks.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql [check-name...]",
		Short: "Print the compiled structured SQL of checks next to their literal SQL",
		Long: `Compile the structured query of each named check (all checks when no name
is given) and print it with its bound parameters and the literal SQL it is
compared against. Placeholders use the bind style of the configured driver.
Nothing is executed.`,
		Example: `  sailors sql
  sailors sql most_reserved_boat
  sailors --driver pgx sql never_reserved_red`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(cmd, rootOpts, args)
		},
	}
	return cmd
}

func runSQL(cmd *cobra.Command, rootOpts *RootOptions, names []string) error {
	formatter := rootOpts.formatter(cmd)

	cfg, err := config.Load(config.Flags{Driver: rootOpts.Driver, DSN: rootOpts.DSN, EnvFile: rootOpts.EnvFile})
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}

	selected := checks.All()
	if len(names) > 0 {
		selected = selected[:0]
		for _, name := range names {
			c, ok := checks.Lookup(name)
			if !ok {
				return commandError(formatter, ErrCodeUnknownCheck, fmt.Sprintf("unknown check %q", name), nil)
			}
			selected = append(selected, c)
		}
	}

	bindType := sqlx.BindType(cfg.Driver)
	entries := make([]CheckSQL, 0, len(selected))
	for _, c := range selected {
		compiled, err := checks.Compile(c)
		if err != nil {
			return commandError(formatter, ErrCodeGeneric, "failed to compile check", err)
		}
		params := compiled.Params
		if params == nil {
			params = []any{}
		}
		entries = append(entries, CheckSQL{
			ID:            c.ID,
			Name:          c.Name,
			Description:   c.Description,
			StructuredSQL: sqlx.Rebind(bindType, compiled.SQL),
			Params:        params,
			Literal:       c.Literal,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	out := cmd.OutOrStdout()
	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(out)
		}
		encoded, err := json.Marshal(e.Params)
		if err != nil {
			return commandError(formatter, ErrCodeGeneric, "failed to encode parameters", err)
		}
		fmt.Fprintf(out, "-- %d %s: %s\n", e.ID, e.Name, e.Description)
		fmt.Fprintf(out, "-- structured, params: %s\n", encoded)
		fmt.Fprintf(out, "%s;\n", e.StructuredSQL)
		fmt.Fprintln(out, "-- literal")
		fmt.Fprintf(out, "%s;\n", e.Literal)
	}
	return nil
}
