package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"plugin-migrate/internal/dialect"
	"plugin-migrate/internal/version"
)

var logger = loggo.GetLogger("plugin-migrate.cmd")

var (
	cfgFile  string
	dsn      string
	driver   string
	logLevel string
)

var RootCmd = &cobra.Command{
	Use:     "plugin-migrate",
	Short:   "Generate EF Core migrations for framework plugins",
	Version: version.Current(),
	Long: `plugin-migrate computes schema changes between a plugin's last migration
and its declared schema, strips changes to tables owned by the framework SDK,
and writes C# migration sources into the plugin.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(viper.GetString("log.level"))
	},
}

func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./plugin-migrate.yaml)")
	RootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database Source Name (DSN) for --from-db and inspect")
	RootCmd.PersistentFlags().StringVar(&driver, "driver", "", "database driver (mysql, postgres, sqlserver, oracle, sqlite)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (TRACE, DEBUG, INFO, WARNING, ERROR)")

	viper.BindPFlag("database.dsn", RootCmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag("database.driver", RootCmd.PersistentFlags().Lookup("driver"))
	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))

	viper.SetDefault("log.level", "WARNING")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// The executable's directory takes precedence over the working directory.
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		viper.AddConfigPath(".")

		viper.SetConfigName("plugin-migrate")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debugf("using config file %s", viper.ConfigFileUsed())
	}
}

func setupLogging(level string) error {
	if _, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(os.Stderr, loggo.DefaultFormatter)); err != nil {
		return errors.Trace(err)
	}
	if level == "" {
		return nil
	}
	return errors.Annotate(loggo.ConfigureLoggers("<root>="+level), "configuring logging")
}

// openDatabase connects to the configured database and resolves the schema
// to work in.
func openDatabase(ctx context.Context) (*sql.DB, dialect.Dialect, string, error) {
	config, err := ResolveDBConfig()
	if err != nil {
		return nil, nil, "", errors.Trace(err)
	}
	d := dialect.GetDialect(config.Driver)
	logger.Infof("connecting to %s via %s", config.Name, d.DriverName())

	db, err := sql.Open(d.DriverName(), config.DSN)
	if err != nil {
		return nil, nil, "", errors.Annotate(err, "opening database")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, "", errors.Annotate(err, "connecting to database")
	}

	schemaName := config.Schema
	if schemaName == "" {
		if err := db.QueryRowContext(ctx, d.CurrentSchemaQuery()).Scan(&schemaName); err != nil {
			db.Close()
			return nil, nil, "", errors.Annotate(err, "resolving current schema")
		}
	}
	if schemaName = d.GetSchemaName(schemaName); schemaName == "" {
		db.Close()
		return nil, nil, "", errors.NotValidf("no schema selected in DSN")
	}
	return db, d, schemaName, nil
}
