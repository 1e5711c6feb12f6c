package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"plugin-migrate/internal/operation"
	"plugin-migrate/internal/scaffold"
	"plugin-migrate/internal/schema"
	"plugin-migrate/internal/seed"
)

var seedOpts struct {
	plugin string
	table  string
	name   string
	seed   int64
	asOf   string
	sdk    bool
	dryRun bool
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a migration that inserts generated rows into a table",
	Long: `seed generates fake rows for one table of a plugin and scaffolds a
migration that inserts them (Up) and deletes them again by key (Down).
Dates fall in the year before --as-of, so the same --seed and --as-of always
yield the same rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd.OutOrStdout())
	},
}

func init() {
	RootCmd.AddCommand(seedCmd)

	f := seedCmd.Flags()
	f.StringVarP(&seedOpts.plugin, "plugin", "p", "", "plugin owning the table")
	f.StringVarP(&seedOpts.table, "table", "t", "", "table to seed")
	f.StringVarP(&seedOpts.name, "name", "n", "", "migration name (default Seed<Table>)")
	f.Int64Var(&seedOpts.seed, "seed", 1, "random seed")
	f.StringVar(&seedOpts.asOf, "as-of", "", "reference date of generated dates, YYYY-MM-DD (default "+seedEpoch.Format(time.DateOnly)+")")
	f.BoolVar(&seedOpts.sdk, "sdk", false, "allow seeding tables shared with the framework SDK")
	f.BoolVar(&seedOpts.dryRun, "dry-run", false, "print the migration without writing files")
	seedCmd.MarkFlagRequired("plugin")
	seedCmd.MarkFlagRequired("table")

	f.Int("rows", 10, "number of rows to generate")
	viper.BindPFlag("settings.seed_rows", f.Lookup("rows"))
	viper.SetDefault("settings.seed_rows", 10)
}

// seedEpoch is the reference time when --as-of is not given.
var seedEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func referenceTime(asOf string) (time.Time, error) {
	if asOf == "" {
		return seedEpoch, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, asOf); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.NotValidf("--as-of %q (want YYYY-MM-DD)", asOf)
}

func runSeed(out io.Writer) error {
	now, err := referenceTime(seedOpts.asOf)
	if err != nil {
		return errors.Trace(err)
	}

	plugins, err := GetPlugins([]string{seedOpts.plugin})
	if err != nil {
		return errors.Trace(err)
	}
	p := plugins[0]

	model, err := schema.LoadModel(p.Schema)
	if err != nil {
		return errors.Trace(err)
	}
	if p.Context != "" {
		model.Context = p.Context
	}
	t := model.Table(seedOpts.table)
	if t == nil {
		return errors.NotFoundf("table %q in plugin %s", seedOpts.table, p.Name)
	}
	if t.Shared && !seedOpts.sdk {
		return errors.NotValidf("seeding table %s shared with the framework SDK without --sdk", t.Name)
	}

	name := seedOpts.name
	if name == "" {
		name = "Seed" + strings.ReplaceAll(t.Name, "_", "")
	}
	if err := scaffold.FindExisting(p.Migrations, name); err != nil {
		return errors.Trace(err)
	}

	rows := viper.GetInt("settings.seed_rows")
	up, down, err := seed.New(seedOpts.seed, now).Operations(t, rows)
	if err != nil {
		return errors.Annotatef(err, "seeding %s", t.Name)
	}

	m, err := newScaffolder().Scaffold(scaffold.Request{
		Namespace:   p.Namespace,
		Name:        name,
		ContextType: p.Context,
		Up:          []operation.Operation{up},
		Down:        []operation.Operation{down},
		Exclusions:  set.NewStrings(),
		Model:       model,
	})
	if err != nil {
		return errors.Trace(err)
	}

	if seedOpts.dryRun {
		fmt.Fprint(out, m.Source)
		return nil
	}
	files, err := m.Save(p.Migrations)
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Fprintf(out, "Seeded %d rows into %s:\n", rows, t.Name)
	for _, f := range files {
		fmt.Fprintf(out, "  %s\n", f)
	}
	return nil
}
