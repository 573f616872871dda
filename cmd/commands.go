package cmd

import (
	"fmt"
	"strings"

	glamour "github.com/charmbracelet/glamour"
	commands "github.com/inference-gateway/operator/internal/commands"
	openapi "github.com/inference-gateway/operator/internal/openapi"
	services "github.com/inference-gateway/operator/internal/services"
	cobra "github.com/spf13/cobra"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the automation commands the server exposes",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := detachedRegistry()
		if err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetBool("raw")
		md := commandsMarkdown(registry)
		if raw {
			fmt.Print(md)
			return nil
		}

		renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return fmt.Errorf("failed to create renderer: %w", err)
		}
		out, err := renderer.Render(md)
		if err != nil {
			return fmt.Errorf("failed to render commands: %w", err)
		}
		fmt.Print(out)
		return nil
	},
}

var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Print the OpenAPI document served at /openapi.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := detachedRegistry()
		if err != nil {
			return err
		}
		doc, err := openapi.Generate(registry.Routes(), GetVersionInfo().Version).JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(doc))
		return nil
	},
}

// detachedRegistry builds the command table without a device
func detachedRegistry() (*commands.Registry, error) {
	return commands.Build(commands.Default(services.NewAutomation(nil), nil)...)
}

func commandsMarkdown(registry *commands.Registry) string {
	var b strings.Builder
	b.WriteString("# Commands\n\n| Path | Arguments | Description |\n| --- | --- | --- |\n")
	for _, info := range registry.Commands() {
		args := "-"
		if len(info.ArgNames) > 0 {
			args = strings.Join(info.ArgNames, ", ")
		}
		fmt.Fprintf(&b, "| /%s | %s | %s |\n", info.Name, args, info.Description)
	}
	return b.String()
}

func init() {
	commandsCmd.Flags().Bool("raw", false, "print markdown without rendering")

	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(openapiCmd)
}
