package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gyeh/claimengine/internal/config"
)

var (
	cfg        = config.Default()
	configPath string
)

var rootCmd = &cobra.Command{
	Use:               "claimrun",
	Short:             "Encounter → claim line decision engine",
	Long:              "Evaluates clinical encounters into billable claim lines and manages the Postgres reference data they are priced against.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfigFile,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file with engine tunables")
	pf.StringVar(&cfg.DSN, "dsn", cfg.DSN, "Postgres connection string (or set CLAIMRUN_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
}

// loadConfigFile merges --config into cfg. Flags given on the command line
// win over the file.
func loadConfigFile(cmd *cobra.Command, _ []string) error {
	if configPath == "" {
		return nil
	}
	explicit := make(map[string]string)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		explicit[f.Name] = f.Value.String()
	})
	if err := cfg.LoadFromFile(configPath); err != nil {
		return err
	}
	for name, v := range explicit {
		if err := cmd.Flags().Set(name, v); err != nil {
			return err
		}
	}
	return nil
}
