package container

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	config "github.com/inference-gateway/operator/config"
	commands "github.com/inference-gateway/operator/internal/commands"
	device "github.com/inference-gateway/operator/internal/device"
	domain "github.com/inference-gateway/operator/internal/domain"
	adapters "github.com/inference-gateway/operator/internal/infra/adapters"
	storage "github.com/inference-gateway/operator/internal/infra/storage"
	logger "github.com/inference-gateway/operator/internal/logger"
	openapi "github.com/inference-gateway/operator/internal/openapi"
	overlay "github.com/inference-gateway/operator/internal/overlay"
	services "github.com/inference-gateway/operator/internal/services"
	socket "github.com/inference-gateway/operator/internal/socket"
	island "github.com/inference-gateway/operator/internal/ui/island"
	web "github.com/inference-gateway/operator/internal/web"

	// device backends register themselves
	_ "github.com/inference-gateway/operator/internal/device/adb"
	_ "github.com/inference-gateway/operator/internal/device/macos"
	_ "github.com/inference-gateway/operator/internal/device/x11"
)

// Options overrides parts of the wiring
type Options struct {
	// Device skips provider resolution
	Device device.Device
	// Surface replaces the configured overlay surface
	Surface overlay.Surface
	// Interrupt is handed to the island surface for ctrl+c
	Interrupt func()
	// Terminal is where the island surface draws; defaults to stdin/stdout
	TerminalIn  io.Reader
	TerminalOut io.Writer
}

// ServiceContainer manages all application dependencies
type ServiceContainer struct {
	config  *config.Config
	version domain.VersionInfo
	opts    Options

	journal    storage.JournalStorage
	timestamps *services.TimestampTracker
	notifier   services.BotNotifier
	automation *services.Automation
	registry   *commands.Registry
	schema     []byte
	server     *web.Server
	channel    *socket.Channel

	// live session, set by AttachDevice
	device  device.Device
	overlay *overlay.Coordinator
}

// NewServiceContainer creates a new service container with all dependencies
func NewServiceContainer(ctx context.Context, cfg *config.Config, version domain.VersionInfo, opts Options) (*ServiceContainer, error) {
	c := &ServiceContainer{
		config:  cfg,
		version: version,
		opts:    opts,
	}

	if err := c.initializeStorage(ctx); err != nil {
		return nil, err
	}
	if err := c.initializeServices(); err != nil {
		_ = c.journal.Close()
		return nil, err
	}
	if err := c.initializeTransports(); err != nil {
		_ = c.journal.Close()
		return nil, err
	}
	return c, nil
}

// initializeStorage opens the journal and restores capture timestamps from it
func (c *ServiceContainer) initializeStorage(ctx context.Context) error {
	journal, err := storage.NewStorage(c.config.Storage)
	if err != nil {
		return fmt.Errorf("failed to open %s journal: %w", c.config.Storage.Type, err)
	}
	c.journal = journal
	c.timestamps = services.NewTimestampTracker(ctx, journal)
	return nil
}

// initializeServices creates the automation facade and its command table
func (c *ServiceContainer) initializeServices() error {
	notifier, err := c.createNotifier()
	if err != nil {
		return err
	}
	c.notifier = notifier
	c.automation = services.NewAutomation(notifier)

	registry, err := commands.Build(commands.Default(c.automation, c.timestamps)...)
	if err != nil {
		return err
	}
	c.registry = registry

	schema, err := openapi.Generate(registry.Routes(), c.version.Version).JSON()
	if err != nil {
		return fmt.Errorf("failed to render openapi document: %w", err)
	}
	c.schema = schema
	return nil
}

func (c *ServiceContainer) createNotifier() (services.BotNotifier, error) {
	tg := c.config.Notify.Telegram
	if !tg.Enabled {
		return adapters.LogNotifier{}, nil
	}
	return adapters.NewTelegramNotifier(adapters.TelegramOptions{
		Token:  tg.Token,
		ChatID: tg.ChatID,
		Retry: adapters.RetryConfig{
			MaxAttempts:       tg.MaxAttempts,
			InitialBackoff:    time.Duration(tg.InitialBackoffMs) * time.Millisecond,
			MaxBackoff:        time.Duration(tg.MaxBackoffMs) * time.Millisecond,
			BackoffMultiplier: 2,
		},
	})
}

// initializeTransports builds the HTTP server and, when configured, the socket channel
func (c *ServiceContainer) initializeTransports() error {
	srv := c.config.Server
	server, err := web.NewServer(web.Options{
		Host:           srv.Host,
		Port:           srv.Port,
		PortAttempts:   srv.PortAttempts,
		APIKey:         srv.APIKey,
		APIKeyHash:     srv.APIKeyHash,
		RequestTimeout: time.Duration(srv.RequestTimeoutMs) * time.Millisecond,
		ReadTimeout:    time.Duration(srv.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(srv.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(srv.IdleTimeout) * time.Second,
		CORS: web.CORSOptions{
			Enabled:        srv.CORS.Enabled,
			AllowedOrigins: srv.CORS.AllowedOrigins,
			AllowedMethods: srv.CORS.AllowedMethods,
			AllowedHeaders: srv.CORS.AllowedHeaders,
		},
	}, web.DispatcherOptions{
		Registry:   c.registry,
		OpenAPI:    c.schema,
		Journal:    c.journal,
		Timestamps: c.timestamps,
		Version:    c.version,
	})
	if err != nil {
		return err
	}
	c.server = server

	if sock := c.config.Socket; sock.URL != "" {
		c.channel = socket.New(c.automation, socket.Options{
			URL:            sock.URL,
			Token:          sock.Token,
			UserInput:      sock.UserInput,
			ConnectTimeout: time.Duration(sock.ConnectTimeoutMs) * time.Millisecond,
		})
	}
	return nil
}

// AttachDevice opens the configured device and attaches a live session to
// the automation facade. Until it succeeds every command reports the
// service as not running.
func (c *ServiceContainer) AttachDevice(ctx context.Context) error {
	dev := c.opts.Device
	if dev == nil {
		provider, err := device.Resolve(c.config.Device.Provider)
		if err != nil {
			return err
		}
		dev, err = provider.Open(device.Options{
			Serial:  c.config.Device.Serial,
			Display: c.config.Device.Display,
			ADBPath: c.config.Device.ADBPath,
		})
		if err != nil {
			return fmt.Errorf("failed to open %s device: %w", provider.Info().Name, err)
		}
		logger.Info("Device opened", "provider", provider.Info().Name, "tree", provider.Info().SupportsTree)
	}

	coord := overlay.New(c.createSurface(), overlay.Options{
		MessageDuration: time.Duration(c.config.Overlay.MessageDurationMs) * time.Millisecond,
	})

	capt := c.config.Capture
	c.automation.Attach(&services.Session{
		Device: dev,
		Capture: services.NewCapture(dev, services.CaptureOptions{
			Quality:  capt.JPEGQuality,
			Scale:    capt.Scale,
			Throttle: time.Duration(capt.ThrottleMs) * time.Millisecond,
		}),
		Executor: services.NewExecutor(dev),
		Overlay:  coord,
	})
	c.device = dev
	c.overlay = coord

	logger.FromContext(ctx).Debug("Automation session ready")
	return nil
}

func (c *ServiceContainer) createSurface() overlay.Surface {
	if c.opts.Surface != nil {
		return c.opts.Surface
	}
	if c.config.Overlay.Surface == "island" {
		in, out := c.opts.TerminalIn, c.opts.TerminalOut
		if in == nil {
			in = os.Stdin
		}
		if out == nil {
			out = os.Stdout
		}
		return island.New(island.Options{
			Input:     in,
			Output:    out,
			Timing:    overlay.DefaultTiming(),
			Keys:      config.ResolveKeybindings(c.config.Overlay.Keybindings),
			Interrupt: c.opts.Interrupt,
		})
	}
	return overlay.NewLogSurface(overlay.DefaultTiming())
}

// Close detaches the session and releases every resource in reverse order of creation
func (c *ServiceContainer) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	c.automation.Detach()

	if c.overlay != nil {
		if err := c.overlay.Close(); err != nil {
			logger.Warn("Failed to close overlay", "error", err)
		}
	}
	if c.device != nil {
		if err := c.device.Close(); err != nil {
			logger.Warn("Failed to close device", "error", err)
		}
	}
	return c.journal.Close()
}

func (c *ServiceContainer) GetConfig() *config.Config {
	return c.config
}

func (c *ServiceContainer) GetAutomation() *services.Automation {
	return c.automation
}

func (c *ServiceContainer) GetRegistry() *commands.Registry {
	return c.registry
}

func (c *ServiceContainer) GetOpenAPI() []byte {
	return c.schema
}

func (c *ServiceContainer) GetJournal() storage.JournalStorage {
	return c.journal
}

func (c *ServiceContainer) GetTimestamps() *services.TimestampTracker {
	return c.timestamps
}

func (c *ServiceContainer) GetServer() *web.Server {
	return c.server
}

// GetChannel returns the socket channel, or nil when no socket URL is configured
func (c *ServiceContainer) GetChannel() *socket.Channel {
	return c.channel
}
