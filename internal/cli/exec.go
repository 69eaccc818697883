package cli

import (
	stdsql "database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/relmap/compiler"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/dialect/sql"
	"github.com/syssam/relmap/privacy"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Driver     string // database/sql driver name, derived from the dialect by default
	DSN        string
	Subqueries bool
	Groups     []string // restrict the select to objects allowed to these groups
	Slow       time.Duration
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <query.yaml>",
		Short: "Run a query document against a database",
		Long: `Compile a YAML query document and run it against a database
holding the views of the model. Rows are printed as YAML.

With --group the select is restricted to the objects whose permission
groups include one of the given group ids.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", "", "database/sql driver (default: derived from --dialect)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "data source name")
	cmd.Flags().BoolVarP(&opts.Subqueries, "subqueries", "s", false, "compile collection conditions as subqueries")
	cmd.Flags().StringSliceVarP(&opts.Groups, "group", "g", nil, "viewer group id (repeatable)")
	cmd.Flags().DurationVar(&opts.Slow, "slow", 100*time.Millisecond, "log statements slower than this")
	_ = cmd.MarkFlagRequired("dsn")

	return cmd
}

func runExec(cmd *cobra.Command, opts *ExecOptions, path string) error {
	ctx := cmd.Context()
	copts := []compiler.Option{compiler.WithSubqueries(opts.Subqueries)}
	if cmd.Flags().Changed("group") {
		viewer := &privacy.SimpleViewer{UserID: "cli"}
		for _, g := range opts.Groups {
			id, err := uuid.Parse(strings.TrimSpace(g))
			if err != nil {
				return fmt.Errorf("invalid group %q: %w", g, err)
			}
			viewer.Groups = append(viewer.Groups, id)
		}
		ctx = privacy.WithViewer(ctx, viewer)
		copts = append(copts, compiler.WithPolicy(privacy.Policy{}))
	}
	c, err := opts.compiler(cmd, copts...)
	if err != nil {
		return err
	}
	q, err := compiler.LoadQuery(path)
	if err != nil {
		return err
	}
	sel, err := q.Select()
	if err != nil {
		return err
	}
	access, err := q.AccessKind()
	if err != nil {
		return err
	}
	st, err := c.CompileSelectContext(ctx, access, sel)
	if err != nil {
		return err
	}

	drv, err := opts.open()
	if err != nil {
		return err
	}
	defer drv.Close()
	stats := sql.NewStatsDriver(drv,
		sql.WithLogger(opts.logger(cmd.ErrOrStderr())),
		sql.WithSlowThreshold(opts.Slow),
	)
	rows, err := sql.QueryStatement(ctx, stats, c.Dialect(), st)
	if err != nil {
		return err
	}
	res, err := sql.ScanMaps(rows)
	if err != nil {
		return err
	}
	if res == nil {
		res = []map[string]any{}
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	opts.logger(cmd.ErrOrStderr()).Debug("query stats", "stats", stats.QueryStats().Stats().String())
	return nil
}

// open opens the database. MySQL data source names are validated first so
// that a malformed DSN fails before any connection attempt.
func (o *ExecOptions) open() (*sql.Driver, error) {
	name := o.Driver
	if name == "" {
		name = sql.DriverName(o.Dialect)
	}
	if name == dialect.MySQL {
		cfg, err := mysql.ParseDSN(o.DSN)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		// Time columns are scanned into time.Time.
		cfg.ParseTime = true
		o.DSN = cfg.FormatDSN()
	}
	db, err := stdsql.Open(name, o.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	return sql.OpenDB(o.Dialect, db), nil
}
