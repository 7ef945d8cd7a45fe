package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/opengrow-box/growd/pkg/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	cfgBackend string
	serverURL  string
)

var rootCmd = &cobra.Command{
	Use:   "growctl",
	Short: "growctl - grow room controller management",
	Long: `growctl manages growd and its configuration: room status and events,
growth-stage and control-mode settings, sensor calibration, and
configuration conversion between the YAML and SQLite backends.

Status commands talk to a running growd daemon over its REST API.
Mutating commands write to the configuration source directly and
require the SQLite backend.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "growd.db", "Path to the configuration source")
	rootCmd.PersistentFlags().StringVar(&cfgBackend, "config-backend", "sqlite", "Configuration backend type: 'yaml' or 'sqlite'")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the growd REST API")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// openProvider opens the configuration source selected by the persistent
// flags.
func openProvider() (config.ConfigProvider, error) {
	filename, _ := filepath.Abs(cfgFile)

	switch cfgBackend {
	case "yaml":
		return config.NewYAMLProvider(filename), nil
	case "sqlite":
		provider, err := config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error opening SQLite configuration: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
}

// openWritableProvider opens the configuration source and rejects read-only
// backends. Stage, mode, and calibration changes all need to persist.
func openWritableProvider() (config.ConfigProvider, error) {
	provider, err := openProvider()
	if err != nil {
		return nil, err
	}
	if provider.IsReadOnly() {
		provider.Close()
		return nil, fmt.Errorf("the %s backend is read-only; convert to SQLite first with 'growctl config convert'", cfgBackend)
	}
	return provider, nil
}
