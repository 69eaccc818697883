// Package cli implements the relmap command line tool.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/syssam/relmap/compiler"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/schema"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Model   string // path of the YAML type model
	Dialect string
}

// NewRootCommand creates the root command of the relmap CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "relmap",
		Short: "Compile object queries into SQL",
		Long: `relmap compiles filters over a polymorphic type model into
parameterized SQL and renders the views the compiled statements read.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			d, err := dialect.Parse(opts.Dialect)
			if err != nil {
				return fmt.Errorf("invalid dialect %q: must be one of %v", opts.Dialect, dialect.Dialects)
			}
			opts.Dialect = d
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log compiled statements")
	cmd.PersistentFlags().StringVarP(&opts.Model, "model", "m", "model.yaml", "type model file")
	cmd.PersistentFlags().StringVarP(&opts.Dialect, "dialect", "d", dialect.SQLServer, "SQL dialect (sqlserver|postgres|mysql|sqlite)")

	cmd.AddCommand(NewViewsCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))

	return cmd
}

// logger returns the logger of a command, writing text records to w.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// compiler loads the model and returns a compiler over it.
func (o *RootOptions) compiler(cmd *cobra.Command, opts ...compiler.Option) (*compiler.Compiler, error) {
	snap, err := schema.LoadFile(o.Model)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return o.compilerFor(cmd, snap, opts...)
}

func (o *RootOptions) compilerFor(cmd *cobra.Command, snap *schema.Snapshot, opts ...compiler.Option) (*compiler.Compiler, error) {
	opts = append([]compiler.Option{
		compiler.WithDialect(o.Dialect),
		compiler.WithLogger(o.logger(cmd.ErrOrStderr())),
	}, opts...)
	return compiler.New(snap, opts...)
}
