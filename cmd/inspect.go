package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"plugin-migrate/internal/schema"
)

var inspectOpts struct {
	out     string
	context string
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Analyze the database schema and print its tables",
	Long: `inspect reads tables, columns, foreign keys and indexes from the
configured database and lists them in dependency order. With --out the
model is written as a schema description, ready to be trimmed down to a
plugin's tables or used as a snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, d, schemaName, err := openDatabase(cmd.Context())
		if err != nil {
			return errors.Trace(err)
		}
		defer db.Close()

		logger.Infof("analyzing schema %s", schemaName)
		model, err := schema.Analyze(cmd.Context(), db, d, schemaName)
		if err != nil {
			return errors.Trace(err)
		}
		model.Context = inspectOpts.context

		printModel(cmd.OutOrStdout(), model)

		if inspectOpts.out != "" {
			if err := schema.SaveModel(inspectOpts.out, model); err != nil {
				return errors.Trace(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema written to %s\n", inspectOpts.out)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectOpts.out, "out", "o", "", "write the analyzed model to this file")
	inspectCmd.Flags().StringVar(&inspectOpts.context, "context", "", "data context type recorded in the model")
}

func printModel(out io.Writer, m *schema.Model) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true
	table.AddRow("TABLE", "COLUMNS", "FKS", "INDEXES", "DEPENDS ON")
	for _, t := range m.Tables {
		table.AddRow(t.Name, len(t.Columns), len(t.ForeignKeys), len(t.Indexes), strings.Join(t.Dependencies, ", "))
	}
	fmt.Fprintln(out, table)
	fmt.Fprintf(out, "%d tables\n", len(m.Tables))
}
