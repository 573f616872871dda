package cmd

import (
	"fmt"
	"os"

	config "github.com/inference-gateway/operator/config"
	cobra "github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage agent configuration",
	Long:  `Manage the operator configuration file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration file",
	Long: fmt.Sprintf(`Initialize a new %s configuration file in the current directory
with default settings.`, config.DefaultConfigPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = config.DefaultConfigPath
		}

		if _, err := os.Stat(configPath); err == nil {
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			if !overwrite {
				return fmt.Errorf("configuration file %s already exists (use --overwrite to replace)", configPath)
			}
		}

		if err := config.DefaultConfig().SaveConfig(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		fmt.Printf("Successfully created %s\n", configPath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after file, .env and environment overrides are applied. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromViper()
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(masked(cfg))
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

// masked returns a copy of cfg with credentials hidden
func masked(cfg *config.Config) config.Config {
	c := *cfg
	for _, s := range []*string{
		&c.Server.APIKey,
		&c.Socket.Token,
		&c.Notify.Telegram.Token,
		&c.Storage.Postgres.Password,
		&c.Storage.Redis.Password,
	} {
		if *s != "" {
			*s = "********"
		}
	}
	return c
}

func init() {
	configInitCmd.Flags().Bool("overwrite", false, "overwrite an existing configuration file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
