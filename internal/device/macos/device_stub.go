//go:build !darwin

package macos

import (
	"fmt"

	device "github.com/inference-gateway/operator/internal/device"
)

// Provider is a stub for non-macOS platforms
type Provider struct{}

var _ device.Provider = (*Provider)(nil)

func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Open(device.Options) (device.Device, error) {
	return nil, fmt.Errorf("macOS platform not available on this system")
}

func (p *Provider) Info() device.Info {
	return device.Info{Name: "macos"}
}

func (p *Provider) IsAvailable() bool {
	return false
}

// No init() - don't register on non-macOS systems
