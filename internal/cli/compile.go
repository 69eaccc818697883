package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/relmap/compiler"
	"github.com/syssam/relmap/dialect/sql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Subqueries bool
	Inline     bool // substitute literals for the placeholders
	Workers    int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query.yaml>...",
		Short: "Compile query documents into SQL",
		Long: `Compile YAML query documents into SELECT statements over the views
of the model. Documents are compiled concurrently and printed in argument
order, each followed by its parameters.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.Subqueries, "subqueries", "s", false, "compile collection conditions as subqueries")
	cmd.Flags().BoolVar(&opts.Inline, "inline", false, "inline parameters as literals")
	cmd.Flags().IntVar(&opts.Workers, "workers", runtime.GOMAXPROCS(0), "number of documents compiled at once")

	return cmd
}

func runCompile(cmd *cobra.Command, opts *CompileOptions, paths []string) error {
	c, err := opts.compiler(cmd, compiler.WithSubqueries(opts.Subqueries))
	if err != nil {
		return err
	}
	out := make([]string, len(paths))
	eg, ctx := errgroup.WithContext(cmd.Context())
	eg.SetLimit(max(opts.Workers, 1))
	for i, path := range paths {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			text, err := opts.compileFile(c, path)
			if err != nil {
				return err
			}
			out[i] = text
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for i, path := range paths {
		if _, err := fmt.Fprintf(w, "-- %s\n%s\n", path, out[i]); err != nil {
			return err
		}
	}
	return nil
}

func (o *CompileOptions) compileFile(c *compiler.Compiler, path string) (string, error) {
	q, err := compiler.LoadQuery(path)
	if err != nil {
		return "", err
	}
	sel, err := q.Select()
	if err != nil {
		return "", err
	}
	st, err := c.CompileSelect(sel)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	var b strings.Builder
	if err := o.write(&b, c.Dialect(), st); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return b.String(), nil
}

func (o *CompileOptions) write(w io.Writer, d string, st sql.Statement) error {
	if o.Inline {
		text, err := sql.ApplyParameters(d, st.Text, st.Parameters)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s;\n", text)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s;\n", st.Text); err != nil {
		return err
	}
	for _, p := range st.Parameters {
		if _, err := fmt.Fprintf(w, "-- %s = %v (%s)\n", sql.Placeholder(d, p), p.Value, p.Type); err != nil {
			return err
		}
	}
	return nil
}
