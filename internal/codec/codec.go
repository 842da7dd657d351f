package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"autoadopt/internal/domain"
	"autoadopt/internal/iprange"
)

// Importer reads adoption target addresses from a file format
type Importer interface {
	Parse(r io.Reader) ([]string, error)
	Format() string
}

// Exporter writes a device inventory in a file format
type Exporter interface {
	Export(devices []domain.Device, w io.Writer) error
	Format() string
}

// Codec is both an Importer and an Exporter
type Codec interface {
	Importer
	Exporter
}

// Formats lists the supported format identifiers
func Formats() []string {
	return []string{"json", "yaml", "ansible-inventory"}
}

// ForFormat returns the codec for a format identifier
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "ansible-inventory", "ansible":
		return NewAnsibleCodec(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (supported: %s)", format, strings.Join(Formats(), ", "))
	}
}

// FormatFromPath guesses the format from a file extension
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}

// validateAddresses drops blanks and duplicates and rejects anything that
// is not an IPv4 address
func validateAddresses(addresses []string) ([]string, error) {
	seen := make(map[string]bool, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		if _, err := iprange.Parse(a); err != nil {
			return nil, err
		}
		seen[a] = true
		out = append(out, a)
	}
	return out, nil
}
