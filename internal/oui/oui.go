// Package oui resolves hardware addresses to manufacturer names using the
// IEEE organizationally unique identifier prefix.
package oui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"autoadopt/internal/domain"
	"autoadopt/internal/logger"
)

// DefaultOverrideFile is read from the working directory when no path is configured
const DefaultOverrideFile = "oui-database.txt"

// markers identify IEEE registry lines that carry an assignment
var markers = []string{"(base 16)", "(hex)"}

// Resolver maps hardware addresses to vendor names. The table is built
// once on first lookup and never mutated afterwards.
type Resolver struct {
	overridePath string
	seed         map[string]string

	once  sync.Once
	table map[string]string
}

// New creates a resolver backed by the baseline table and the optional
// override file at path. An empty path disables the override.
func New(path string) *Resolver {
	return &Resolver{overridePath: path}
}

// NewWithTable creates a resolver over a fixed table, skipping the baseline
func NewWithTable(table map[string]string) *Resolver {
	seed := make(map[string]string, len(table))
	for k, v := range table {
		seed[strings.ToUpper(k)] = v
	}
	return &Resolver{seed: seed}
}

// Lookup returns the vendor name for mac
func (r *Resolver) Lookup(mac string) string {
	if mac == domain.UnknownHardwareAddress {
		return domain.UnknownHardwareAddress
	}

	r.once.Do(r.load)

	octets := strings.Split(mac, ":")
	if len(octets) > 3 {
		octets = octets[:3]
	}

	if vendor, ok := r.table[Prefix(mac)]; ok {
		return vendor
	}
	return fmt.Sprintf("Unknown (%s)", strings.Join(octets, ":"))
}

// Len returns the number of prefixes known to the resolver
func (r *Resolver) Len() int {
	r.once.Do(r.load)
	return len(r.table)
}

func (r *Resolver) load() {
	if r.seed != nil {
		r.table = r.seed
		return
	}

	r.table = Baseline()
	if r.overridePath == "" {
		return
	}

	log := logger.WithComponent("oui")

	f, err := os.Open(r.overridePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", r.overridePath).Msg("Failed to open vendor override file")
		}
		return
	}
	defer f.Close()

	entries, err := ParseOverride(f)
	if err != nil {
		log.Warn().Err(err).Str("path", r.overridePath).Msg("Failed to read vendor override file")
		return
	}
	for k, v := range entries {
		r.table[k] = v
	}
	log.Debug().Int("entries", len(entries)).Str("path", r.overridePath).Msg("Loaded vendor overrides")
}

// Prefix returns the 6-character lookup key for mac: the first three
// colon-separated octets, uppercased, single digits zero-padded.
func Prefix(mac string) string {
	octets := strings.Split(mac, ":")
	if len(octets) > 3 {
		octets = octets[:3]
	}

	var b strings.Builder
	for _, o := range octets {
		o = strings.ToUpper(o)
		if len(o) == 1 {
			b.WriteByte('0')
		}
		b.WriteString(o)
	}
	return b.String()
}

// ParseOverride reads IEEE registry formatted lines:
//
//	00-27-22   (hex)		Ubiquiti Networks Inc.
//	002722     (base 16)		Ubiquiti Networks Inc.
//
// Lines without a marker, with a malformed prefix, or with no company are skipped.
func ParseOverride(r io.Reader) (map[string]string, error) {
	entries := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		marker := ""
		for _, m := range markers {
			if strings.Contains(line, m) {
				marker = m
				break
			}
		}
		if marker == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}

		key := strings.ToUpper(strings.ReplaceAll(fields[0], "-", ""))
		if !isHexPrefix(key) {
			continue
		}

		pos := strings.Index(line, marker)
		company := strings.TrimSpace(line[pos+len(marker):])
		if company == "" {
			continue
		}
		entries[key] = company
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan override: %w", err)
	}
	return entries, nil
}

func isHexPrefix(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
