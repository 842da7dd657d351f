package codec

import (
	"fmt"
	"io"
	"time"

	"autoadopt/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles generic YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlInventory represents the YAML structure for device data
type yamlInventory struct {
	Devices []yamlDevice `yaml:"devices"`
}

type yamlDevice struct {
	Address         string    `yaml:"address"`
	HardwareAddress string    `yaml:"hardware_address,omitempty"`
	Vendor          string    `yaml:"vendor,omitempty"`
	SSH             bool      `yaml:"ssh,omitempty"`
	Selected        bool      `yaml:"selected,omitempty"`
	Status          string    `yaml:"status,omitempty"`
	LastSeen        time.Time `yaml:"last_seen,omitempty"`
}

// Parse reads addresses from a devices list
func (c *YAMLCodec) Parse(r io.Reader) ([]string, error) {
	var yi yamlInventory
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yi); err != nil {
		if err == io.EOF {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	addresses := make([]string, 0, len(yi.Devices))
	for _, yd := range yi.Devices {
		addresses = append(addresses, yd.Address)
	}

	return validateAddresses(addresses)
}

// Export exports devices to YAML. Transcripts are left out.
func (c *YAMLCodec) Export(devices []domain.Device, w io.Writer) error {
	yi := yamlInventory{
		Devices: make([]yamlDevice, 0, len(devices)),
	}

	for _, d := range devices {
		yi.Devices = append(yi.Devices, yamlDevice{
			Address:         d.Address,
			HardwareAddress: d.HardwareAddress,
			Vendor:          d.Vendor,
			SSH:             d.ManagementPortOpen,
			Selected:        d.Selected,
			Status:          string(d.Status),
			LastSeen:        d.LastSeen,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yi); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
