package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	constants "github.com/inference-gateway/operator/internal/constants"
	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
)

type listenFunc func(ctx context.Context, network, address string) (net.Listener, error)

func defaultListen(ctx context.Context, network, address string) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, network, address)
}

// listenWithRetry binds base, then base+1 and so on for up to attempts ports.
// Only address-in-use errors move on to the next port.
func listenWithRetry(ctx context.Context, listen listenFunc, host string, base, attempts int) (net.Listener, error) {
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		port := base + attempt
		ln, err := listen(ctx, "tcp", net.JoinHostPort(host, fmt.Sprint(port)))
		if err == nil {
			if attempt > 0 {
				logger.Info("Base port busy, bound fallback port", "base_port", base, "port", port)
			}
			return ln, nil
		}
		if !isAddrInUse(err) {
			return nil, fmt.Errorf("failed to listen on port %d: %w", port, err)
		}

		logger.Debug("Port in use", "port", port, "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(constants.PortRetryBackoff * time.Duration(attempt+1)):
		}
	}
	return nil, &domain.PortCollisionError{BasePort: base, Attempts: attempts}
}

func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}

// lanIPv4 returns the first non-loopback IPv4 address of an interface that is up
func lanIPv4() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip := ipNet.IP.To4(); ip != nil && !ip.IsLinkLocalUnicast() {
				return ip.String()
			}
		}
	}
	return ""
}
