package x11

import (
	"fmt"
	"os"

	device "github.com/inference-gateway/operator/internal/device"
)

// Provider implements device.Provider for X11 desktops
type Provider struct{}

var _ device.Provider = (*Provider)(nil)

// NewProvider creates a new X11 provider
func NewProvider() *Provider {
	return &Provider{}
}

// Open connects to opts.Display, falling back to $DISPLAY
func (p *Provider) Open(opts device.Options) (device.Device, error) {
	display := opts.Display
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	if display == "" {
		return nil, fmt.Errorf("DISPLAY environment variable not set")
	}

	c, err := newClient(display)
	if err != nil {
		return nil, err
	}
	return &Device{client: c, dirs: applicationDirs()}, nil
}

func (p *Provider) Info() device.Info {
	return device.Info{Name: "x11", SupportsTree: false}
}

// IsAvailable checks for an X11 session that is not Wayland
func (p *Provider) IsAvailable() bool {
	return os.Getenv("DISPLAY") != "" && os.Getenv("WAYLAND_DISPLAY") == ""
}

func init() {
	device.Register(NewProvider())
}
