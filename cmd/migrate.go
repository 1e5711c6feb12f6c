package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/gosuri/uitable"
	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"plugin-migrate/internal/codegen"
	"plugin-migrate/internal/differ"
	"plugin-migrate/internal/render"
	"plugin-migrate/internal/scaffold"
	"plugin-migrate/internal/schema"
	"plugin-migrate/internal/version"
)

var migrateOpts struct {
	name      string
	plugins   []string
	sdk       bool
	fromDB    bool
	dryRun    bool
	schema    string
	out       string
	namespace string
	context   string
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create a migration for each plugin from its schema description",
	Long: `migrate diffs every plugin's schema description against the model of its
latest migration (or the live database with --from-db) and writes the new
migration next to the previous ones. Tables marked shared, and those listed in
settings.exclude, are left to the framework SDK unless --sdk is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)

	f := migrateCmd.Flags()
	f.StringVarP(&migrateOpts.name, "name", "n", "", "migration name (a C# identifier)")
	f.StringSliceVarP(&migrateOpts.plugins, "plugin", "p", []string{}, "plugins to migrate (default all configured)")
	f.BoolVar(&migrateOpts.sdk, "sdk", false, "generate for the framework SDK itself: exclude nothing")
	f.BoolVar(&migrateOpts.fromDB, "from-db", false, "diff against the live database instead of the snapshot")
	f.BoolVar(&migrateOpts.dryRun, "dry-run", false, "print the migrations without writing files")
	f.StringVar(&migrateOpts.schema, "schema", "", "schema description of an unconfigured plugin")
	f.StringVar(&migrateOpts.out, "out", "", "migrations directory for --schema")
	f.StringVar(&migrateOpts.namespace, "namespace", "", "migration namespace for --schema")
	f.StringVar(&migrateOpts.context, "context", "", "data context type for --schema")
	migrateCmd.MarkFlagRequired("name")

	f.Int("parallelism", 4, "plugins processed concurrently")
	viper.BindPFlag("settings.parallelism", f.Lookup("parallelism"))
	viper.SetDefault("settings.parallelism", 4)
	viper.SetDefault("settings.provider", "sqlserver")
}

type migrateResult struct {
	plugin     PluginConfig
	exclusions []string
	migration  *scaffold.Migration
	files      []string
}

func newScaffolder() *scaffold.Scaffolder {
	g := &codegen.Generator{
		Renderer: render.New(viper.GetString("settings.provider")),
		Version:  version.Current(),
	}
	return scaffold.New(g, clock.WallClock)
}

func selectedPlugins() ([]PluginConfig, error) {
	if migrateOpts.schema != "" {
		p := PluginConfig{
			Name:       "cli",
			Schema:     migrateOpts.schema,
			Migrations: migrateOpts.out,
			Namespace:  migrateOpts.namespace,
			Context:    migrateOpts.context,
		}
		if p.Migrations == "" {
			return nil, errors.NotValidf("--schema without --out")
		}
		return []PluginConfig{p}, nil
	}
	plugins, err := GetPlugins(migrateOpts.plugins)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(plugins) == 0 {
		return nil, errors.NotFoundf("plugins in config (or use --schema)")
	}
	return plugins, nil
}

func runMigrate(ctx context.Context, out io.Writer) error {
	plugins, err := selectedPlugins()
	if err != nil {
		return errors.Trace(err)
	}

	var live *schema.Model
	if migrateOpts.fromDB {
		db, d, schemaName, err := openDatabase(ctx)
		if err != nil {
			return errors.Trace(err)
		}
		defer db.Close()
		if live, err = schema.Analyze(ctx, db, d, schemaName); err != nil {
			return errors.Annotate(err, "analyzing database")
		}
	}

	s := newScaffolder()
	start := time.Now()

	progress := uiprogress.New()
	progress.Start()
	bar := progress.AddBar(len(plugins)).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return "Migrating: "
	})

	results := make([]*migrateResult, len(plugins))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(viper.GetInt("settings.parallelism"), 1))
	for i, p := range plugins {
		i, p := i, p
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := migratePlugin(s, p, live)
			if err != nil {
				return errors.Annotatef(err, "plugin %s", p.Name)
			}
			results[i] = r
			bar.Incr()
			return nil
		})
	}
	err = eg.Wait()
	progress.Stop()
	if err != nil {
		return errors.Trace(err)
	}

	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true
	table.AddRow("PLUGIN", "MIGRATION", "UP", "DOWN", "FILES")
	for _, r := range results {
		if len(r.exclusions) > 0 {
			fmt.Fprintf(out, "%s: Excluding tables: %s\n", r.plugin.Name, strings.Join(r.exclusions, ", "))
		}
		files := strings.Join(r.files, "\n")
		if migrateOpts.dryRun {
			files = "(dry run)"
		}
		table.AddRow(r.plugin.Name, r.migration.ID, len(r.migration.Up), len(r.migration.Down), files)
	}
	fmt.Fprintln(out, table)

	if migrateOpts.dryRun {
		for _, r := range results {
			source, metadata := r.migration.Files()
			fmt.Fprintf(out, "\n// ---- %s: %s\n%s", r.plugin.Name, source, r.migration.Source)
			fmt.Fprintf(out, "\n// ---- %s: %s\n%s", r.plugin.Name, metadata, r.migration.Metadata)
		}
	}
	logger.Infof("migrated %d plugins in %s", len(results), time.Since(start))
	return nil
}

func migratePlugin(s *scaffold.Scaffolder, p PluginConfig, live *schema.Model) (*migrateResult, error) {
	target, err := schema.LoadModel(p.Schema)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if p.Context != "" {
		target.Context = p.Context
	}
	if err := scaffold.FindExisting(p.Migrations, migrateOpts.name); err != nil {
		return nil, errors.Trace(err)
	}

	var baseline *schema.Model
	if live != nil {
		baseline = restrictTo(live, target)
	} else {
		baseline, err = schema.LoadModel(p.SnapshotPath())
		if errors.Is(err, errors.NotFound) {
			logger.Infof("plugin %s has no snapshot, creating the initial migration", p.Name)
			baseline, err = nil, nil
		}
		if err != nil {
			return nil, errors.Trace(err)
		}
	}

	exclusions := set.NewStrings()
	if !migrateOpts.sdk {
		exclusions = set.NewStrings(target.SharedTables()...).Union(configuredExclusions())
	}

	m, err := s.Scaffold(scaffold.Request{
		Namespace:   p.Namespace,
		Name:        migrateOpts.name,
		ContextType: p.Context,
		Up:          differ.Diff(baseline, target),
		Down:        differ.Diff(target, baseline),
		Exclusions:  exclusions,
		Model:       target,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if m.Empty() {
		logger.Warningf("plugin %s: nothing to migrate, writing an empty migration", p.Name)
	}

	r := &migrateResult{plugin: p, exclusions: exclusions.SortedValues(), migration: m}
	if migrateOpts.dryRun {
		return r, nil
	}
	if r.files, err = m.Save(p.Migrations); err != nil {
		return nil, errors.Trace(err)
	}
	if err := schema.SaveModel(p.SnapshotPath(), target); err != nil {
		return nil, errors.Annotate(err, "saving model snapshot")
	}
	return r, nil
}

// restrictTo keeps the tables of the live model the plugin declares, so other
// plugins' tables are not dropped.
func restrictTo(live, target *schema.Model) *schema.Model {
	m := &schema.Model{Context: target.Context}
	for _, t := range live.Tables {
		if target.Table(t.Name) != nil {
			m.Tables = append(m.Tables, t)
		}
	}
	return m
}
