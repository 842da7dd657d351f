package probe

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// Platform performs the OS-specific parts of a host probe
type Platform interface {
	// Name identifies the platform in logs
	Name() string
	// Ping sends a single echo request and reports whether ip answered
	Ping(ctx context.Context, ip string, timeout time.Duration) bool
	// LookupMAC returns the neighbor-table hardware address for ip
	LookupMAC(ctx context.Context, ip string) (string, bool)
}

// Runner executes a command and returns its standard output
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec, hiding the console window where
// the OS has one
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	hideWindow(cmd)
	return cmd.Output()
}

// Backend names accepted by NewPlatform
const (
	BackendSystem = "system"
	BackendNmap   = "nmap"
)

// NewPlatform returns the platform for backend on the running OS. An empty
// backend selects the system tools.
func NewPlatform(backend string, run Runner) (Platform, error) {
	if run == nil {
		run = ExecRunner
	}
	system := systemPlatform(run)

	switch backend {
	case "", BackendSystem:
		return system, nil
	case BackendNmap:
		return NewNmapPlatform(system), nil
	default:
		return nil, fmt.Errorf("unknown discovery backend: %s", backend)
	}
}

// LinuxPlatform uses iputils ping and the kernel neighbor table
type LinuxPlatform struct {
	run      Runner
	readFile func(string) ([]byte, error)
}

// NewLinuxPlatform creates a Linux platform using run for subprocesses
func NewLinuxPlatform(run Runner) *LinuxPlatform {
	return &LinuxPlatform{run: run, readFile: os.ReadFile}
}

func (p *LinuxPlatform) Name() string { return "linux" }

func (p *LinuxPlatform) Ping(ctx context.Context, ip string, timeout time.Duration) bool {
	return ping(ctx, p.run, timeout, "-c", "1", "-W", wholeSeconds(timeout), ip)
}

func (p *LinuxPlatform) LookupMAC(ctx context.Context, ip string) (string, bool) {
	if out, err := p.run(ctx, "ip", "neigh", "show"); err == nil {
		if mac, ok := ParseIPNeigh(string(out), ip); ok {
			return mac, true
		}
	}
	content, err := p.readFile("/proc/net/arp")
	if err != nil {
		return "", false
	}
	return ParseProcNetARP(string(content), ip)
}

// DarwinPlatform uses BSD ping and arp
type DarwinPlatform struct {
	run Runner
}

// NewDarwinPlatform creates a macOS platform using run for subprocesses
func NewDarwinPlatform(run Runner) *DarwinPlatform {
	return &DarwinPlatform{run: run}
}

func (p *DarwinPlatform) Name() string { return "darwin" }

func (p *DarwinPlatform) Ping(ctx context.Context, ip string, timeout time.Duration) bool {
	return ping(ctx, p.run, timeout, "-c", "1", "-W", millis(timeout), ip)
}

func (p *DarwinPlatform) LookupMAC(ctx context.Context, ip string) (string, bool) {
	out, err := p.run(ctx, "arp", "-n", ip)
	if err != nil {
		return "", false
	}
	return ParseDarwinARP(string(out), ip)
}

// WindowsPlatform uses the Windows ping and arp utilities
type WindowsPlatform struct {
	run Runner
	// ARPSettle is waited before reading the ARP cache so the entry from
	// the preceding ping is present
	ARPSettle time.Duration
}

// NewWindowsPlatform creates a Windows platform using run for subprocesses
func NewWindowsPlatform(run Runner) *WindowsPlatform {
	return &WindowsPlatform{run: run, ARPSettle: 50 * time.Millisecond}
}

func (p *WindowsPlatform) Name() string { return "windows" }

func (p *WindowsPlatform) Ping(ctx context.Context, ip string, timeout time.Duration) bool {
	return ping(ctx, p.run, timeout, "-n", "1", "-w", millis(timeout), ip)
}

func (p *WindowsPlatform) LookupMAC(ctx context.Context, ip string) (string, bool) {
	if p.ARPSettle > 0 {
		select {
		case <-time.After(p.ARPSettle):
		case <-ctx.Done():
			return "", false
		}
	}
	out, err := p.run(ctx, "arp", "-a")
	if err != nil {
		return "", false
	}
	return ParseWindowsARP(string(out), ip)
}

// ping runs the ping utility and reports success by exit status. The
// subprocess gets a grace period beyond its own timeout.
func ping(ctx context.Context, run Runner, timeout time.Duration, args ...string) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout+2*time.Second)
	defer cancel()
	_, err := run(ctx, "ping", args...)
	return err == nil
}

func wholeSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func millis(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return strconv.FormatInt(ms, 10)
}
