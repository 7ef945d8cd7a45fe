package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/opengrow-box/growd/pkg/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration sources",
}

var configConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a YAML configuration to the SQLite backend",
	Long: `Convert a YAML configuration file into a SQLite database. The SQLite
backend is required for the stage, mode, and calibration commands, which
persist their changes.`,
	RunE: runConfigConvert,
}

var (
	convertYAML   string
	convertSQLite string
	convertForce  bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configConvertCmd)

	configConvertCmd.Flags().StringVar(&convertYAML, "yaml", "", "Path to the source YAML configuration (required)")
	configConvertCmd.Flags().StringVar(&convertSQLite, "sqlite", "", "Path to the target SQLite database (required)")
	configConvertCmd.Flags().BoolVar(&convertForce, "force", false, "Overwrite an existing SQLite database")
	configConvertCmd.MarkFlagRequired("yaml")
	configConvertCmd.MarkFlagRequired("sqlite")
}

func runConfigConvert(cmd *cobra.Command, args []string) error {
	yamlFile, _ := filepath.Abs(convertYAML)
	sqliteFile, _ := filepath.Abs(convertSQLite)

	if _, err := os.Stat(yamlFile); os.IsNotExist(err) {
		return fmt.Errorf("YAML file does not exist: %s", yamlFile)
	}
	if _, err := os.Stat(sqliteFile); err == nil {
		if !convertForce {
			return fmt.Errorf("SQLite file already exists: %s (use --force to overwrite)", sqliteFile)
		}
		if err := os.Remove(sqliteFile); err != nil {
			return fmt.Errorf("could not remove existing SQLite file: %w", err)
		}
	}

	cfg, err := config.NewYAMLProvider(yamlFile).LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading YAML configuration: %w", err)
	}
	fmt.Printf("Loaded %d rooms, %d sensors, %d actuators from %s\n",
		len(cfg.Rooms), len(cfg.Sensors), len(cfg.Actuators), yamlFile)

	provider, err := config.NewSQLiteProvider(sqliteFile)
	if err != nil {
		return fmt.Errorf("error creating SQLite database: %w", err)
	}
	defer provider.Close()

	if err := provider.ImportConfig(cfg); err != nil {
		return fmt.Errorf("error importing configuration: %w", err)
	}

	fmt.Printf("Conversion complete: %s\n", sqliteFile)
	fmt.Printf("Start growd with: growd -config %s -config-backend sqlite\n", sqliteFile)
	return nil
}
