package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"ariga.io/atlas/sql/migrate"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/relmap/compiler"
	sqlschema "github.com/syssam/relmap/dialect/sql/schema"
	"github.com/syssam/relmap/schema"
)

// ViewsOptions holds flags for the views command.
type ViewsOptions struct {
	*RootOptions
	Tables       bool   // also render the storage tables
	Drop         bool   // drop the views before creating them
	Watch        bool   // re-render whenever the model file changes
	MigrationDir string // write a versioned migration instead of printing
	Version      string // migration version, the current UTC time by default
	Name         string // migration name
}

// NewViewsCommand creates the views command.
func NewViewsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ViewsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "views",
		Short: "Render the view definitions of the model",
		Long: `Render CREATE VIEW statements for the polymorphic views of every
type of the model: table views, sub-table views and relation views.

With --migration-dir the statements are written as a versioned migration
dropping and recreating every view.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViews(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Tables, "tables", false, "also render CREATE TABLE statements")
	cmd.Flags().BoolVar(&opts.Drop, "drop", false, "drop the views before creating them")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "re-render when the model file changes")
	cmd.Flags().StringVar(&opts.MigrationDir, "migration-dir", "", "write a migration file to this directory")
	cmd.Flags().StringVar(&opts.Version, "version", "", "migration version (default: current time)")
	cmd.Flags().StringVar(&opts.Name, "name", "views", "migration name")

	return cmd
}

func runViews(cmd *cobra.Command, opts *ViewsOptions) error {
	snap, err := schema.LoadFile(opts.Model)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	store := schema.NewStore(snap)
	render := func() error {
		c, err := opts.compilerFor(cmd, store.Load())
		if err != nil {
			return err
		}
		return opts.render(cmd.OutOrStdout(), c)
	}
	if err := render(); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}
	log := opts.logger(cmd.ErrOrStderr())
	return watch(cmd.Context(), opts.Model, log, func() error {
		next, err := store.Update(func(*schema.Snapshot) (*schema.Snapshot, error) {
			return schema.LoadFile(opts.Model)
		})
		if err != nil {
			return err
		}
		log.Info("model reloaded", "generation", next.Generation())
		return render()
	})
}

func (o *ViewsOptions) render(w io.Writer, c *compiler.Compiler) error {
	views, err := c.BuildViewDefinitions()
	if err != nil {
		return err
	}
	d := c.Dialect()
	if o.MigrationDir != "" {
		dir, err := migrate.NewLocalDir(o.MigrationDir)
		if err != nil {
			return fmt.Errorf("open migration directory: %w", err)
		}
		version := o.Version
		if version == "" {
			version = time.Now().UTC().Format("20060102150405")
		}
		if err := sqlschema.WriteRecreatePlan(dir, d, version, o.Name, views); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s\n", filepath.Join(o.MigrationDir, version+"_"+o.Name+".sql"))
		return nil
	}
	var stmts []string
	if o.Tables {
		for _, t := range sqlschema.Tables(c.Snapshot()) {
			stmt, err := sqlschema.CreateTableSQL(d, t)
			if err != nil {
				return err
			}
			stmts = append(stmts, stmt)
		}
	}
	if o.Drop {
		for i := len(views) - 1; i >= 0; i-- {
			stmt, err := sqlschema.DropViewSQL(d, views[i])
			if err != nil {
				return err
			}
			stmts = append(stmts, stmt)
		}
	}
	for _, v := range views {
		stmt, err := sqlschema.CreateViewSQL(d, v)
		if err != nil {
			return err
		}
		stmts = append(stmts, stmt)
	}
	for _, stmt := range stmts {
		if _, err := fmt.Fprintf(w, "%s;\n\n", stmt); err != nil {
			return err
		}
	}
	return nil
}

// watch calls onChange whenever the file at path is written, until ctx is
// done. Failed reloads are logged and keep the previous output.
func watch(ctx context.Context, path string, log *slog.Logger, onChange func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch model: %w", err)
	}
	defer w.Close()
	// Editors often replace the file on save, so the directory is watched.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch model: %w", err)
	}
	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := onChange(); err != nil {
				log.Error("reload model", "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("watch model", "error", err)
		}
	}
}
