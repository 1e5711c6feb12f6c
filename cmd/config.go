package cmd

import (
	"path/filepath"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/spf13/viper"

	"plugin-migrate/internal/dialect"
	"plugin-migrate/internal/scaffold"
)

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Schema string `mapstructure:"schema"`
	Active bool   `mapstructure:"active"`
}

// GetActiveDBConfig returns the currently active database configuration.
func GetActiveDBConfig() (*DBConfig, error) {
	var configs []DBConfig
	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, errors.Annotate(err, "parsing databases config")
	}

	var active *DBConfig
	count := 0
	for i := range configs {
		if configs[i].Active {
			active = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, errors.NotFoundf("active database in config (set active: true)")
	}
	if count > 1 {
		return nil, errors.NotValidf("multiple active databases (only one can be active)")
	}
	return active, nil
}

// ResolveDBConfig prefers --dsn/database.dsn over the active entry of the
// databases list.
func ResolveDBConfig() (*DBConfig, error) {
	if connStr := viper.GetString("database.dsn"); connStr != "" {
		d := viper.GetString("database.driver")
		if d == "" {
			d = dialect.DetectDriver(connStr)
		}
		return &DBConfig{Name: "command line", Driver: d, DSN: connStr, Schema: viper.GetString("database.schema")}, nil
	}
	config, err := GetActiveDBConfig()
	if err != nil {
		return nil, errors.Annotate(err, "database.dsn is required (via flag or config)")
	}
	if config.Driver == "" {
		config.Driver = dialect.DetectDriver(config.DSN)
	}
	return config, nil
}

// PluginConfig locates a plugin's schema description and migrations.
type PluginConfig struct {
	Name string `mapstructure:"name"`
	// Schema is the plugin's schema description file.
	Schema string `mapstructure:"schema"`
	// Migrations is the directory migrations and the model snapshot live in.
	Migrations string `mapstructure:"migrations"`
	Namespace  string `mapstructure:"namespace"`
	// Context is the fully qualified data context type.
	Context string `mapstructure:"context"`
}

// SnapshotPath is where the model of the plugin's latest migration is kept.
func (p PluginConfig) SnapshotPath() string {
	return filepath.Join(p.Migrations, scaffold.SnapshotFile)
}

// GetPlugins returns the configured plugins, restricted to names when given.
func GetPlugins(names []string) ([]PluginConfig, error) {
	var plugins []PluginConfig
	if err := viper.UnmarshalKey("plugins", &plugins); err != nil {
		return nil, errors.Annotate(err, "parsing plugins config")
	}
	for i := range plugins {
		if plugins[i].Migrations == "" {
			plugins[i].Migrations = filepath.Join(filepath.Dir(plugins[i].Schema), "Migrations")
		}
	}
	if len(names) == 0 {
		return plugins, nil
	}

	wanted := set.NewStrings(names...)
	var selected []PluginConfig
	for _, p := range plugins {
		if wanted.Contains(p.Name) {
			selected = append(selected, p)
			wanted.Remove(p.Name)
		}
	}
	if !wanted.IsEmpty() {
		return nil, errors.NotFoundf("plugins %v in config", wanted.SortedValues())
	}
	return selected, nil
}

// configuredExclusions returns the extra excluded tables from settings.exclude.
func configuredExclusions() set.Strings {
	return set.NewStrings(viper.GetStringSlice("settings.exclude")...)
}
