package codec

import (
	"fmt"
	"io"
	"sort"

	"autoadopt/internal/domain"

	"gopkg.in/yaml.v3"
)

// AnsibleCodec handles Ansible inventory import/export
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible-inventory"
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
	Hosts    map[string]ansibleHost     `yaml:"hosts,omitempty"`
	Vars     map[string]interface{}     `yaml:"vars,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
	Vars  map[string]interface{} `yaml:"vars,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string                 `yaml:"ansible_host,omitempty"`
	Vars        map[string]interface{} `yaml:",inline"`
}

// Parse reads addresses from every host in the inventory. A host's
// ansible_host wins over its inventory name.
func (c *AnsibleCodec) Parse(r io.Reader) ([]string, error) {
	var inv ansibleInventory
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&inv); err != nil {
		if err == io.EOF {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to parse Ansible inventory: %w", err)
	}

	var addresses []string
	collect := func(hosts map[string]ansibleHost) {
		for name, host := range hosts {
			if host.AnsibleHost != "" {
				addresses = append(addresses, host.AnsibleHost)
			} else {
				addresses = append(addresses, name)
			}
		}
	}

	collect(inv.All.Hosts)
	for _, group := range inv.All.Children {
		collect(group.Hosts)
	}

	sort.Slice(addresses, func(i, j int) bool {
		return domain.AddressLess(addresses[i], addresses[j])
	})

	return validateAddresses(addresses)
}

// Export writes devices as an inventory with one group per adoption status
func (c *AnsibleCodec) Export(devices []domain.Device, w io.Writer) error {
	inv := ansibleInventory{
		All: ansibleGroup{
			Children: make(map[string]ansibleGroupDef),
		},
	}

	for _, d := range devices {
		group := string(d.Status)
		if group == "" {
			group = string(domain.StatusPending)
		}

		def, ok := inv.All.Children[group]
		if !ok {
			def = ansibleGroupDef{Hosts: make(map[string]ansibleHost)}
			inv.All.Children[group] = def
		}

		def.Hosts[d.Address] = ansibleHost{
			AnsibleHost: d.Address,
			Vars: map[string]interface{}{
				"hardware_address": d.HardwareAddress,
				"vendor":           d.Vendor,
				"ssh":              d.ManagementPortOpen,
			},
		}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}

	return nil
}
