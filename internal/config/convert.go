package config

import (
	"io"
	"os"

	"autoadopt/internal/adopt"
	"autoadopt/internal/probe"
	"autoadopt/internal/service"
	"autoadopt/internal/stream"
)

// ProbeSettings returns the host prober settings
func (c *Config) ProbeSettings() probe.Config {
	return probe.Config{
		PingTimeout:   c.Discovery.PingTimeout.Duration(),
		PortTimeout:   c.Discovery.PortTimeout.Duration(),
		Port:          c.Discovery.ManagementPort,
		MaxConcurrent: c.Discovery.MaxConcurrent,
	}
}

// AdoptSettings returns the session controller settings
func (c *Config) AdoptSettings() adopt.Config {
	a := c.Adoption
	var mirror io.Writer = os.Stdout
	if a.Quiet {
		mirror = nil
	}
	return adopt.Config{
		ConnectTimeout:  a.ConnectTimeout.Duration(),
		ReadTimeout:     a.ReadTimeout.Duration(),
		ShellSettle:     a.ShellSettle.Duration(),
		PromptSettle:    a.PromptSettle.Duration(),
		CommandSettle:   a.CommandSettle.Duration(),
		PollInterval:    a.PollInterval.Duration(),
		DrainTimeout:    a.DrainTimeout.Duration(),
		CloseTimeout:    a.CloseTimeout.Duration(),
		PromptMarkers:   append([]string(nil), a.PromptMarkers...),
		CommandTemplate: a.CommandTemplate,
		Terminal:        "xterm",
		Mirror:          mirror,
	}
}

// StreamSettings returns the progress batching settings
func (c *Config) StreamSettings() stream.Config {
	return stream.Config{
		Window: c.Stream.Window.Duration(),
		Idle:   c.Stream.Idle.Duration(),
	}
}

// ServiceSettings returns the runtime adoption settings
func (c *Config) ServiceSettings() service.Settings {
	return service.Settings{
		ControllerURL: c.ControllerURL,
		Default:       c.Credentials.Default,
		Alternate:     c.Credentials.Alternate,
		Port:          c.Discovery.ManagementPort,
	}
}

// ApplyServiceSettings copies edited runtime settings back for saving
func (c *Config) ApplyServiceSettings(s service.Settings) {
	c.ControllerURL = s.ControllerURL
	c.Credentials.Default = s.Default
	c.Credentials.Alternate = s.Alternate
}
