package cmd

import (
	"fmt"
	"os"

	config "github.com/inference-gateway/operator/config"
	logger "github.com/inference-gateway/operator/internal/logger"
	cobra "github.com/spf13/cobra"
	viper "github.com/spf13/viper"
)

// V holds the layered configuration: file, .env and OPERATOR_* variables
var V = viper.New()

var loadedConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "operator",
	Short: "On-device automation agent",
	Long: `Operator exposes a device's screen, accessibility tree and input primitives
to a remote controller over a local HTTP command server and an optional
outbound socket channel.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Operator - on-device automation agent")
		fmt.Println("Use 'operator serve' to start the command server or --help to see available commands.")
	},
}

func Execute() {
	defer logger.Close()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", fmt.Sprintf("config file (default is %s)", config.DefaultConfigPath))
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	configPath, _ := rootCmd.PersistentFlags().GetString("config")

	cfg, err := config.Load(V, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	loadedConfig = cfg

	if err := logger.Init(logger.Options{Verbose: verbose || cfg.Logging.Debug, File: cfg.Logging.File}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
	}
}

// getConfigFromViper returns the configuration loaded for this invocation
func getConfigFromViper() (*config.Config, error) {
	if loadedConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return loadedConfig, nil
}
