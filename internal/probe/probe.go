// Package probe discovers live hosts in an address range and identifies
// them by management port, hardware address and vendor.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"autoadopt/internal/domain"
	"autoadopt/internal/iprange"
	"autoadopt/internal/logger"
)

// ErrInterrupted is returned when the context ends before every address
// was probed
var ErrInterrupted = errors.New("discovery interrupted")

// Config holds prober settings
type Config struct {
	// PingTimeout bounds the single echo request
	PingTimeout time.Duration
	// PortTimeout bounds the management port connect
	PortTimeout time.Duration
	// Port is the management service port
	Port int
	// MaxConcurrent limits hosts probed at once. Zero probes every address at once.
	MaxConcurrent int
}

// DefaultConfig returns the standard probe settings
func DefaultConfig() Config {
	return Config{
		PingTimeout:   1 * time.Second,
		PortTimeout:   500 * time.Millisecond,
		Port:          22,
		MaxConcurrent: 0,
	}
}

// EventPublisher receives discovery progress events
type EventPublisher interface {
	PublishDiscoveryEvent(eventType string, payload interface{})
}

// VendorResolver maps a hardware address to a manufacturer name
type VendorResolver interface {
	Lookup(mac string) string
}

// DialFunc opens a network connection
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Prober fans out host probes over an address range
type Prober struct {
	config    Config
	platform  Platform
	vendors   VendorResolver
	dial      DialFunc
	publisher EventPublisher
	log       zerolog.Logger
}

// NewProber creates a prober
func NewProber(config Config, platform Platform, vendors VendorResolver) *Prober {
	if config.Port == 0 {
		config.Port = 22
	}
	return &Prober{
		config:   config,
		platform: platform,
		vendors:  vendors,
		dial:     (&net.Dialer{}).DialContext,
		log:      logger.WithComponent("probe"),
	}
}

// SetEventPublisher sets the event publisher for progress updates
func (p *Prober) SetEventPublisher(pub EventPublisher) {
	p.publisher = pub
}

// SetDialer replaces the dialer used for the management port check
func (p *Prober) SetDialer(dial DialFunc) {
	p.dial = dial
}

// Platform returns the platform used for ping and neighbor lookups
func (p *Prober) Platform() Platform {
	return p.platform
}

func (p *Prober) publishProgress(eventType string, payload interface{}) {
	if p.publisher != nil {
		p.publisher.PublishDiscoveryEvent(eventType, payload)
	}
}

// Discover probes every address from start to end inclusive and returns a
// record for each live host, in no particular order. It fails when the
// bounds are invalid or ctx ends first. An interrupted run returns the hosts
// found so far with an ErrInterrupted error.
func (p *Prober) Discover(ctx context.Context, start, end string) ([]domain.Device, error) {
	r, err := iprange.ParseRange(start, end)
	if err != nil {
		return nil, err
	}

	addresses := r.Addresses()
	total := len(addresses)

	p.log.Info().
		Str("range", r.String()).
		Int("addresses", total).
		Str("platform", p.platform.Name()).
		Int("max_concurrent", p.config.MaxConcurrent).
		Msg("Starting discovery")

	p.publishProgress("discovery-started", map[string]interface{}{
		"start":   start,
		"end":     end,
		"total":   total,
		"message": fmt.Sprintf("Scanning %s (%d addresses)", r.String(), total),
		"phase":   "host_discovery",
	})

	var (
		mu      sync.Mutex
		devices []domain.Device
	)

	g, gctx := errgroup.WithContext(ctx)
	if p.config.MaxConcurrent > 0 {
		g.SetLimit(p.config.MaxConcurrent)
	}

	for _, ip := range addresses {
		g.Go(func() error {
			device, ok := p.ProbeHost(gctx, ip)
			if !ok {
				return nil
			}

			mu.Lock()
			devices = append(devices, device)
			found := len(devices)
			mu.Unlock()

			p.publishProgress("discovery-progress", map[string]interface{}{
				"ip":      device.Address,
				"mac":     device.HardwareAddress,
				"vendor":  device.Vendor,
				"ssh":     device.ManagementPortOpen,
				"found":   found,
				"total":   total,
				"message": fmt.Sprintf("Host alive: %s (%s)", device.Address, device.Vendor),
				"phase":   "host_discovery",
			})
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		p.log.Warn().Err(err).Int("discovered", len(devices)).Msg("Discovery interrupted")
		p.publishProgress("discovery-complete", map[string]interface{}{
			"total":       total,
			"discovered":  len(devices),
			"interrupted": true,
			"message":     fmt.Sprintf("Discovery interrupted after %d hosts", len(devices)),
		})
		return devices, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	p.publishProgress("discovery-complete", map[string]interface{}{
		"total":      total,
		"discovered": len(devices),
		"message":    fmt.Sprintf("Discovered %d hosts", len(devices)),
	})

	p.log.Info().Int("discovered", len(devices)).Str("range", r.String()).Msg("Discovery complete")
	return devices, nil
}

// ProbeHost checks a single address. ok is false when the host did not
// answer the ping.
func (p *Prober) ProbeHost(ctx context.Context, ip string) (domain.Device, bool) {
	if !p.platform.Ping(ctx, ip, p.config.PingTimeout) {
		return domain.Device{}, false
	}

	portOpen := p.portOpen(ctx, ip)

	mac, ok := p.platform.LookupMAC(ctx, ip)
	if !ok {
		mac = domain.UnknownHardwareAddress
	}
	vendor := p.vendors.Lookup(mac)

	p.log.Debug().
		Str("ip", ip).
		Str("mac", mac).
		Str("vendor", vendor).
		Bool("ssh", portOpen).
		Msg("Host alive")

	return domain.NewDevice(ip, mac, vendor, portOpen), true
}

// portOpen attempts a TCP connect to the management port
func (p *Prober) portOpen(ctx context.Context, ip string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.config.PortTimeout)
	defer cancel()

	conn, err := p.dial(ctx, "tcp", net.JoinHostPort(ip, strconv.Itoa(p.config.Port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
