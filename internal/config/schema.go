package config

import (
	"time"

	"autoadopt/internal/domain"
	"autoadopt/internal/logger"
)

// Config is the root configuration structure
type Config struct {
	Version       int               `yaml:"version"`
	ControllerURL string            `yaml:"controller_url"`
	Credentials   CredentialsConfig `yaml:"credentials"`
	Discovery     DiscoveryConfig   `yaml:"discovery"`
	Adoption      AdoptionConfig    `yaml:"adoption"`
	Stream        StreamConfig      `yaml:"stream"`
	Database      DatabaseConfig    `yaml:"database"`
	Server        ServerConfig      `yaml:"server"`
	Logging       logger.Config     `yaml:"logging"`

	// overrides holds the file values replaced by environment variables
	overrides map[string]envOverride
}

// CredentialsConfig holds the two SSH logins offered for adoption
type CredentialsConfig struct {
	Default   domain.Credentials `yaml:"default"`
	Alternate domain.Credentials `yaml:"alternate"`
}

// Get returns the credentials for set
func (c CredentialsConfig) Get(set domain.CredentialSet) domain.Credentials {
	if set == domain.CredentialsAlternate {
		return c.Alternate
	}
	return c.Default
}

// DiscoveryConfig holds host probe settings
type DiscoveryConfig struct {
	// Backend selects the liveness implementation: system or nmap
	Backend        string   `yaml:"backend"`
	PingTimeout    Duration `yaml:"ping_timeout"`
	PortTimeout    Duration `yaml:"port_timeout"`
	ManagementPort int      `yaml:"management_port"`
	// MaxConcurrent limits parallel host probes, 0 = unlimited
	MaxConcurrent int    `yaml:"max_concurrent"`
	OUIFile       string `yaml:"oui_file"`
}

// AdoptionConfig holds SSH session timings
type AdoptionConfig struct {
	ConnectTimeout  Duration `yaml:"connect_timeout"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	ShellSettle     Duration `yaml:"shell_settle"`
	PromptSettle    Duration `yaml:"prompt_settle"`
	CommandSettle   Duration `yaml:"command_settle"`
	PollInterval    Duration `yaml:"poll_interval"`
	DrainTimeout    Duration `yaml:"drain_timeout"`
	CloseTimeout    Duration `yaml:"close_timeout"`
	PromptMarkers   []string `yaml:"prompt_markers,omitempty"`
	CommandTemplate string   `yaml:"command_template"`
	// Quiet stops session output being copied to stdout
	Quiet bool `yaml:"quiet"`
}

// StreamConfig holds progress batching intervals
type StreamConfig struct {
	Window Duration `yaml:"window"`
	Idle   Duration `yaml:"idle"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
