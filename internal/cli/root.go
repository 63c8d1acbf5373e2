// Package cli implements the biomasa command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/Evils19/BioMasa/pkg/config"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "biomasa",
		Short: "Pasture biomass estimation from photographs",
		Long: `Estimates pasture biomass components (green, clover, dead, total,
green dry matter) from a photograph by combining a local ONNX regression
model with a remote vision-language model.`,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/biomasa/config.json)")
}

// loadConfig reads the config file named by --config, the default path, or
// falls back to built-in defaults when neither exists.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	if cfg, err := config.LoadFromFile(config.GetConfigPath()); err == nil {
		return cfg, nil
	}
	return config.Default(), nil
}
