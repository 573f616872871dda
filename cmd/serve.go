package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/inference-gateway/operator/config"
	constants "github.com/inference-gateway/operator/internal/constants"
	container "github.com/inference-gateway/operator/internal/container"
	storage "github.com/inference-gateway/operator/internal/infra/storage"
	logger "github.com/inference-gateway/operator/internal/logger"
	socket "github.com/inference-gateway/operator/internal/socket"
	cobra "github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the command server and attach to the device",
	Long: `Start the local HTTP command server, open the configured device and attach
the automation session to it.

The command server provides:
  - One GET endpoint per automation command (see 'operator commands')
  - An OpenAPI 3.0 document at /openapi.json and a reference page at /redoc
  - A test client at /client
  - The command journal at /history

When socket.url is configured the agent also dials the controller over a
websocket and answers command events on it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromViper()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Server.Host = host
		}
		if surface, _ := cmd.Flags().GetString("surface"); surface != "" {
			cfg.Overlay.Surface = surface
		}
		if url, _ := cmd.Flags().GetString("socket-url"); url != "" {
			cfg.Socket.URL = url
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "command server base port (default: 8080)")
	serveCmd.Flags().String("host", "", "command server host (default: 0.0.0.0)")
	serveCmd.Flags().String("surface", "", "overlay surface: log or island")
	serveCmd.Flags().String("socket-url", "", "controller socket URL")
}

func runServe(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := container.NewServiceContainer(ctx, cfg, GetVersionInfo(), container.Options{Interrupt: stop})
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Warn("Failed to close services", "error", err)
		}
	}()

	checkStorageHealth(ctx, services.GetJournal())

	server := services.GetServer()
	if err := server.Start(ctx); err != nil {
		return err
	}

	if err := services.AttachDevice(ctx); err != nil {
		logger.Error("Failed to attach device, commands will report the service as not running", "error", err)
		fmt.Printf("Warning: no device attached: %v\n", err)
	} else {
		logLaunchableApplications(ctx, services)
	}

	if channel := services.GetChannel(); channel != nil {
		status := channel.Connect(ctx)
		fmt.Printf("   Socket:  %s (%s)\n", cfg.Socket.URL, status)
		if status == socket.Failure {
			logger.Warn("Socket connection failed, continuing with HTTP only", "url", cfg.Socket.URL)
		}
	}

	printServerInfo(server.URL(), cfg)

	var serveErr error
	select {
	case <-ctx.Done():
	case err, ok := <-server.Errors():
		if ok {
			serveErr = err
		}
	}

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Command server shutdown failed", "error", err)
	}
	return serveErr
}

func checkStorageHealth(ctx context.Context, journal storage.JournalStorage) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := journal.Health(ctx); err != nil {
		logger.Warn("Journal health check failed", "error", err)
		fmt.Printf("Warning: journal backend may not be available: %v\n", err)
	}
}

// logLaunchableApplications lists what a controller can launch, for the operator's benefit
func logLaunchableApplications(ctx context.Context, services *container.ServiceContainer) {
	res := services.GetAutomation().ListInstalledApplications(ctx)
	if !res.Success {
		logger.Warn("Failed to list applications", "message", res.Message)
		return
	}
	for i, pkg := range res.Data.PackageNames {
		logger.Info("Launchable application", "package", pkg, "label", res.Data.ApplicationNames[i])
	}
	logger.Info("Applications listed", "count", len(res.Data.PackageNames))
}

func printServerInfo(url string, cfg *config.Config) {
	fmt.Printf("Command server listening on %s\n", url)
	fmt.Printf("   Journal: %s\n", cfg.Storage.Type)
	fmt.Printf("   Overlay: %s\n", cfg.Overlay.Surface)
	if cfg.Server.APIKey != "" || cfg.Server.APIKeyHash != "" {
		fmt.Printf("   Auth:    bearer token required\n")
	}
	fmt.Printf("\nUseful endpoints:\n")
	fmt.Printf("   GET  /commands      - List commands\n")
	fmt.Printf("   GET  /openapi.json  - OpenAPI document\n")
	fmt.Printf("   GET  /redoc         - API reference\n")
	fmt.Printf("   GET  /client        - Test client\n")
	fmt.Printf("   GET  /history       - Command journal\n")
	fmt.Printf("   GET  /timestamps    - Last capture times\n")
	fmt.Printf("   GET  /health        - Health check\n\n")
}
