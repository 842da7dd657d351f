package probe

import (
	"strings"
)

// zeroMAC marks incomplete entries in /proc/net/arp
const zeroMAC = "00:00:00:00:00:00"

// ParseIPNeigh finds ip in `ip neigh show` output:
//
//	192.168.1.20 dev eth0 lladdr fc:ec:da:01:02:03 REACHABLE
func ParseIPNeigh(output, ip string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != ip {
			continue
		}
		for i, f := range fields {
			if f == "lladdr" && i+1 < len(fields) {
				return strings.ToUpper(fields[i+1]), true
			}
		}
	}
	return "", false
}

// ParseProcNetARP finds ip in the contents of /proc/net/arp:
//
//	IP address       HW type     Flags       HW address            Mask     Device
//	192.168.1.20     0x1         0x2         fc:ec:da:01:02:03     *        eth0
func ParseProcNetARP(content, ip string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[0] != ip {
			continue
		}
		mac := fields[3]
		if mac == zeroMAC || !strings.Contains(mac, ":") {
			continue
		}
		return strings.ToUpper(mac), true
	}
	return "", false
}

// ParseDarwinARP finds ip in `arp -n <ip>` output:
//
//	? (192.168.1.20) at fc:ec:da:1:2:3 on en0 ifscope [ethernet]
func ParseDarwinARP(output, ip string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[1] != "("+ip+")" {
			continue
		}
		if mac := fields[3]; strings.Contains(mac, ":") {
			return strings.ToUpper(mac), true
		}
	}
	return "", false
}

// ParseWindowsARP finds ip in `arp -a` output:
//
//	Internet Address      Physical Address      Type
//	192.168.1.20          fc-ec-da-01-02-03     dynamic
func ParseWindowsARP(output, ip string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != ip {
			continue
		}
		raw := fields[1]
		if !strings.ContainsAny(raw, "-:") {
			continue
		}
		mac := strings.ReplaceAll(raw, "-", ":")
		if len(mac) < 17 {
			continue
		}
		return strings.ToUpper(mac), true
	}
	return "", false
}
