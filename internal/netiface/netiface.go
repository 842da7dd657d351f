// Package netiface lists the local IPv4 networks and suggests a default
// discovery range.
package netiface

import (
	"context"
	"fmt"
	"math/bits"
	"net"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"

	"autoadopt/internal/iprange"
)

// Network is one IPv4 address assigned to a local interface
type Network struct {
	Name  string `json:"name"`
	IP    string `json:"ip"`
	Start string `json:"start"`
	End   string `json:"end"`
	CIDR  string `json:"cidr"`
}

func (n Network) String() string {
	return fmt.Sprintf("%s - %s (%s)", n.Name, n.IP, n.CIDR)
}

// interfaces is replaced in tests
var interfaces = psnet.InterfacesWithContext

// List returns every non-loopback IPv4 network on the host
func List(ctx context.Context) ([]Network, error) {
	stats, err := interfaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	return fromStats(stats), nil
}

func fromStats(stats []psnet.InterfaceStat) []Network {
	var networks []Network
	for _, iface := range stats {
		if hasFlag(iface.Flags, "loopback") {
			continue
		}
		for _, addr := range iface.Addrs {
			ip, ipnet, err := net.ParseCIDR(addr.Addr)
			if err != nil {
				continue
			}
			ip4 := ip.To4()
			if ip4 == nil || ip4.IsLoopback() {
				continue
			}
			ones, _ := ipnet.Mask.Size()
			networks = append(networks, FromAddress(iface.Name, ip4, ones))
		}
	}
	return networks
}

// FromAddress derives the host range of the network containing ip. The
// network and broadcast addresses are excluded except on /31 and /32.
func FromAddress(name string, ip net.IP, ones int) Network {
	addr := toUint32(ip.To4())
	mask := uint32(0)
	if ones > 0 {
		mask = ^uint32(0) << (32 - ones)
	}

	network := addr & mask
	broadcast := network | ^mask

	start, end := network, broadcast
	if ones < 31 {
		start, end = network+1, broadcast-1
	}

	return Network{
		Name:  name,
		IP:    iprange.Render(addr),
		Start: iprange.Render(start),
		End:   iprange.Render(end),
		CIDR:  fmt.Sprintf("%s/%d", iprange.Render(network), bits.OnesCount32(mask)),
	}
}

// Default picks the network most likely to hold devices: 192.168/16 first,
// then 10/8, then 172.16/12, then whatever comes first
func Default(networks []Network) (Network, bool) {
	preferences := []func(net.IP) bool{
		func(ip net.IP) bool { return ip[0] == 192 && ip[1] == 168 },
		func(ip net.IP) bool { return ip[0] == 10 },
		func(ip net.IP) bool { return ip[0] == 172 && ip[1] >= 16 && ip[1] <= 31 },
	}

	for _, prefer := range preferences {
		for _, n := range networks {
			ip := net.ParseIP(n.IP).To4()
			if ip != nil && prefer(ip) {
				return n, true
			}
		}
	}

	if len(networks) > 0 {
		return networks[0], true
	}
	return Network{}, false
}

// Detect lists local networks and returns the preferred one
func Detect(ctx context.Context) (Network, bool, error) {
	networks, err := List(ctx)
	if err != nil {
		return Network{}, false, err
	}
	n, ok := Default(networks)
	return n, ok, nil
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, flag) {
			return true
		}
	}
	return false
}

func toUint32(ip net.IP) uint32 {
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}
