// Package main implements the voxctl command line interface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxchain/voxchain"
	"github.com/voxchain/voxchain/core"

	// Provider adapters register their factories on import.
	_ "github.com/voxchain/voxchain/tts/providers/google"
	_ "github.com/voxchain/voxchain/tts/providers/local"
	_ "github.com/voxchain/voxchain/tts/providers/openai"
)

var (
	configFile string
	logLevel   string
	devMode    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voxctl",
		Short: "voxctl drives a text-to-speech provider chain from the command line",
		Long: `voxctl synthesizes speech through a prioritized chain of TTS providers
with automatic failover. Providers are configured through a config file,
environment variables, or both; API keys are resolved from the
environment by their symbolic secret names.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a JSON or YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "minimum log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "development mode: readable logs, every request logged")

	rootCmd.AddCommand(newSpeakCmd())
	rootCmd.AddCommand(newProvidersCmd())
	rootCmd.AddCommand(newServeCmd())

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of voxctl",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "voxctl version %s\n", voxchain.Version)
			return err
		},
	}
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// loadConfig assembles configuration for a command invocation. The
// config file applies first so command line flags win over it.
func loadConfig() (*core.Config, error) {
	var opts []core.Option
	if configFile != "" {
		opts = append(opts, core.WithConfigFile(configFile))
	}
	if logLevel != "" {
		opts = append(opts, core.WithLogLevel(logLevel))
	}
	if devMode {
		opts = append(opts, core.WithDevelopmentMode(true))
	}
	return core.NewConfig(opts...)
}
