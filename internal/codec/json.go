package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"autoadopt/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads addresses from a JSON array of strings or of device objects
func (c *JSONCodec) Parse(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	var addresses []string
	if err := json.Unmarshal(data, &addresses); err != nil {
		var devices []domain.Device
		if err := json.NewDecoder(bytes.NewReader(data)).Decode(&devices); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		for _, d := range devices {
			addresses = append(addresses, d.Address)
		}
	}

	return validateAddresses(addresses)
}

// Export exports devices to JSON
func (c *JSONCodec) Export(devices []domain.Device, w io.Writer) error {
	if devices == nil {
		devices = []domain.Device{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(devices); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
