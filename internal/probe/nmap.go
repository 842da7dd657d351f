package probe

import (
	"context"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"

	"autoadopt/internal/logger"
)

// NmapPlatform checks liveness with an nmap ping scan of a single host.
// When nmap reports the host's MAC it is used directly; otherwise the
// system neighbor table is consulted.
type NmapPlatform struct {
	fallback Platform
	log      zerolog.Logger

	// scan runs nmap; replaced in tests
	scan func(ctx context.Context, ip string, timeout time.Duration) (*nmap.Run, error)

	macs *macCache
}

// NewNmapPlatform creates an nmap platform backed by fallback for MAC lookups
func NewNmapPlatform(fallback Platform) *NmapPlatform {
	return &NmapPlatform{
		fallback: fallback,
		log:      logger.WithComponent("probe.nmap"),
		scan:     runPingScan,
		macs:     newMACCache(),
	}
}

func (p *NmapPlatform) Name() string { return "nmap" }

func (p *NmapPlatform) Ping(ctx context.Context, ip string, timeout time.Duration) bool {
	result, err := p.scan(ctx, ip, timeout)
	if err != nil {
		p.log.Debug().Err(err).Str("ip", ip).Msg("Ping scan failed")
		return false
	}

	for _, host := range result.Hosts {
		if host.Status.State != "up" {
			continue
		}
		matched := false
		mac := ""
		for _, addr := range host.Addresses {
			switch addr.AddrType {
			case "ipv4":
				matched = addr.Addr == ip
			case "mac":
				mac = strings.ToUpper(addr.Addr)
			}
		}
		if !matched {
			continue
		}
		if mac != "" {
			p.macs.put(ip, mac)
		}
		return true
	}
	return false
}

func (p *NmapPlatform) LookupMAC(ctx context.Context, ip string) (string, bool) {
	if mac, ok := p.macs.take(ip); ok {
		return mac, true
	}
	return p.fallback.LookupMAC(ctx, ip)
}

func runPingScan(ctx context.Context, ip string, timeout time.Duration) (*nmap.Run, error) {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets(ip),
		nmap.WithPingScan(),
		nmap.WithHostTimeout(timeout+time.Second),
	)
	if err != nil {
		return nil, err
	}

	result, _, err := scanner.Run()
	if err != nil {
		return nil, err
	}
	return result, nil
}
