// Package config provides configuration management for autoadopt.
//
// Config file locations (priority order):
//  1. $AUTOADOPT_CONFIG
//  2. ./autoadopt.yaml
//  3. $XDG_CONFIG_HOME/autoadopt/config.yaml
//  4. ~/.config/autoadopt/config.yaml
//  5. /etc/autoadopt/config.yaml
//
// A .env file in the working directory and AUTOADOPT_* environment
// variables are applied on top of the file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"autoadopt/internal/domain"
)

// Environment overrides
const (
	EnvControllerURL = "AUTOADOPT_CONTROLLER_URL"
	EnvSSHUsername   = "AUTOADOPT_SSH_USERNAME"
	EnvSSHPassword   = "AUTOADOPT_SSH_PASSWORD"
	EnvDatabasePath  = "AUTOADOPT_DB"
	EnvServerAddr    = "AUTOADOPT_ADDR"
	EnvLogLevel      = "AUTOADOPT_LOG_LEVEL"
)

const (
	DefaultControllerURL = "http://192.168.1.1:8080"
	DefaultDatabasePath  = "./autoadopt.db"
	DefaultServerAddr    = ":3000"
)

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides are applied either way.
func Load() (*Config, string, error) {
	_ = godotenv.Load()

	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, path, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, path, nil
}

// readFile parses path and fills defaults without consulting the environment
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes config to the specified path. Values that came from
// AUTOADOPT_* variables are not written.
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	doc := c.fileDocument()
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{
		Version:       1,
		ControllerURL: DefaultControllerURL,
		Credentials: CredentialsConfig{
			Default: domain.Credentials{Username: "ubnt", Password: "ubnt"},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.ControllerURL == "" {
		c.ControllerURL = DefaultControllerURL
	}
	if c.Credentials.Default.IsZero() {
		c.Credentials.Default = domain.Credentials{Username: "ubnt", Password: "ubnt"}
	}

	d := &c.Discovery
	if d.Backend == "" {
		d.Backend = "system"
	}
	setDuration(&d.PingTimeout, time.Second)
	setDuration(&d.PortTimeout, 500*time.Millisecond)
	if d.ManagementPort == 0 {
		d.ManagementPort = 22
	}
	if d.OUIFile == "" {
		d.OUIFile = "oui-database.txt"
	}

	a := &c.Adoption
	setDuration(&a.ConnectTimeout, 10*time.Second)
	setDuration(&a.ReadTimeout, 30*time.Second)
	setDuration(&a.ShellSettle, time.Second)
	setDuration(&a.PromptSettle, 500*time.Millisecond)
	setDuration(&a.CommandSettle, 500*time.Millisecond)
	setDuration(&a.PollInterval, 100*time.Millisecond)
	setDuration(&a.DrainTimeout, 5*time.Second)
	setDuration(&a.CloseTimeout, 2*time.Second)
	if len(a.PromptMarkers) == 0 {
		a.PromptMarkers = []string{"#"}
	}
	if a.CommandTemplate == "" {
		a.CommandTemplate = "set-inform %s/inform"
	}

	setDuration(&c.Stream.Window, 100*time.Millisecond)
	setDuration(&c.Stream.Idle, 50*time.Millisecond)

	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func setDuration(d *Duration, def time.Duration) {
	if *d == 0 {
		*d = Duration(def)
	}
}

// envFields maps each AUTOADOPT_* override to the setting it replaces
var envFields = map[string]func(*Config) *string{
	EnvControllerURL: func(c *Config) *string { return &c.ControllerURL },
	EnvSSHUsername:   func(c *Config) *string { return &c.Credentials.Default.Username },
	EnvSSHPassword:   func(c *Config) *string { return &c.Credentials.Default.Password },
	EnvDatabasePath:  func(c *Config) *string { return &c.Database.Path },
	EnvServerAddr:    func(c *Config) *string { return &c.Server.Addr },
	EnvLogLevel:      func(c *Config) *string { return &c.Logging.Level },
}

// envOverride remembers the file value an environment variable replaced
type envOverride struct {
	file string
	env  string
}

// applyEnv overrides settings from AUTOADOPT_* variables. The replaced
// values are kept so Save writes the file's own values back.
func (c *Config) applyEnv() {
	for name, field := range envFields {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		p := field(c)
		if c.overrides == nil {
			c.overrides = make(map[string]envOverride)
		}
		c.overrides[name] = envOverride{file: *p, env: v}
		*p = v
	}
}

// fileDocument returns a copy of c with environment values swapped back
// for the file's values. A setting edited since loading keeps the edit.
func (c *Config) fileDocument() Config {
	doc := *c
	for name, o := range c.overrides {
		if p := envFields[name](&doc); *p == o.env {
			*p = o.file
		}
	}
	return doc
}

// Validate checks values that would make discovery or adoption fail
func (c *Config) Validate() error {
	u, err := url.Parse(c.ControllerURL)
	if err != nil {
		return fmt.Errorf("controller_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("controller_url must be an http(s) URL with a host: %q", c.ControllerURL)
	}

	switch c.Discovery.Backend {
	case "system", "nmap":
	default:
		return fmt.Errorf("discovery.backend must be system or nmap: %q", c.Discovery.Backend)
	}

	if c.Discovery.ManagementPort < 1 || c.Discovery.ManagementPort > 65535 {
		return fmt.Errorf("discovery.management_port out of range: %d", c.Discovery.ManagementPort)
	}
	if c.Discovery.MaxConcurrent < 0 {
		return fmt.Errorf("discovery.max_concurrent must not be negative: %d", c.Discovery.MaxConcurrent)
	}

	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Controller: %s\n", c.ControllerURL)
	summary += fmt.Sprintf("Credentials: default=%s", c.Credentials.Default.Username)
	if !c.Credentials.Alternate.IsZero() {
		summary += fmt.Sprintf(" alternate=%s", c.Credentials.Alternate.Username)
	}
	summary += fmt.Sprintf("\nDiscovery: backend=%s port=%d concurrency=%d\n",
		c.Discovery.Backend, c.Discovery.ManagementPort, c.Discovery.MaxConcurrent)
	summary += fmt.Sprintf("Database: %s", c.Database.Path)
	return summary
}
