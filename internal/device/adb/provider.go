package adb

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	device "github.com/inference-gateway/operator/internal/device"
)

// Provider implements device.Provider for Android devices reachable over adb
type Provider struct{}

var _ device.Provider = (*Provider)(nil)

// NewProvider creates a new adb provider
func NewProvider() *Provider {
	return &Provider{}
}

// Open connects to the device selected by opts.Serial and verifies it is online
func (p *Provider) Open(opts device.Options) (device.Device, error) {
	client := NewClient(opts.ADBPath, opts.Serial)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	state, err := client.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reach android device: %w", err)
	}
	if state != "device" {
		return nil, fmt.Errorf("android device is %s, expected device", state)
	}
	return &Device{client: client}, nil
}

// Info returns information about the adb backend
func (p *Provider) Info() device.Info {
	return device.Info{Name: "adb", SupportsTree: true}
}

// IsAvailable returns true when an adb binary is on PATH or ANDROID_SERIAL is set
func (p *Provider) IsAvailable() bool {
	if _, err := exec.LookPath("adb"); err == nil {
		return true
	}
	return os.Getenv("ANDROID_SERIAL") != ""
}

func init() {
	device.Register(NewProvider())
}
