package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"bootconda/internal/installer"
	"bootconda/internal/paths"
	"bootconda/internal/sandbox"
)

// Config captures how bootconda locates, installs and isolates conda.
type Config struct {
	Prefix         string          `yaml:"prefix"`
	Installer      InstallerConfig `yaml:"installer"`
	Channels       ChannelsConfig  `yaml:"channels"`
	Sandbox        SandboxConfig   `yaml:"sandbox"`
	Log            LogConfig       `yaml:"log"`
	CommandTimeout Duration        `yaml:"command_timeout"`
}

// InstallerConfig selects where the Miniconda installer comes from.
type InstallerConfig struct {
	BaseURL string `yaml:"base_url"`
	SHA256  string `yaml:"sha256"`
}

// ChannelsConfig lists channels registered right after a fresh install.
type ChannelsConfig struct {
	Default []string `yaml:"default"`
}

// SandboxConfig controls which ambient variables are stripped from conda's
// environment and which private condarc is injected instead.
type SandboxConfig struct {
	ReservedPrefix string `yaml:"reserved_prefix"`
	ConfigVar      string `yaml:"config_var"`
	ConfigFile     string `yaml:"config_file"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Duration is a time.Duration that reads and writes as "90s" in YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

// Default returns the baseline configuration. An empty Prefix means the XDG
// data directory.
func Default() Config {
	return Config{
		Installer: InstallerConfig{
			BaseURL: installer.DefaultBaseURL,
		},
		Channels: ChannelsConfig{
			Default: []string{"defaults"},
		},
		Sandbox: SandboxConfig{
			ReservedPrefix: sandbox.DefaultReservedPrefix,
			ConfigVar:      sandbox.DefaultConfigVar,
			ConfigFile:     paths.DefaultConfigFileName,
		},
		Log: LogConfig{
			Level: "",
			File:  "",
		},
	}
}

// SandboxOptions returns the sandbox settings for a resolved condarc path.
func (c Config) SandboxOptions(configPath string) sandbox.Options {
	return sandbox.Options{
		ReservedPrefix: c.Sandbox.ReservedPrefix,
		ConfigVar:      c.Sandbox.ConfigVar,
		ConfigPath:     configPath,
	}
}

var sha256Pattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Validate reports every problem found, joined.
func (c Config) Validate() error {
	var errs []error

	if c.Installer.BaseURL == "" {
		errs = append(errs, errors.New("installer.base_url must not be empty"))
	} else if u, err := url.Parse(c.Installer.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("installer.base_url %q is not an http(s) URL", c.Installer.BaseURL))
	}
	if c.Installer.SHA256 != "" && !sha256Pattern.MatchString(c.Installer.SHA256) {
		errs = append(errs, fmt.Errorf("installer.sha256 %q is not a hex SHA-256 digest", c.Installer.SHA256))
	}

	for i, ch := range c.Channels.Default {
		if strings.TrimSpace(ch) == "" {
			errs = append(errs, fmt.Errorf("channels.default[%d] is empty", i))
		}
	}

	if c.Sandbox.ReservedPrefix == "" {
		errs = append(errs, errors.New("sandbox.reserved_prefix must not be empty"))
	}
	if c.Sandbox.ConfigVar == "" {
		errs = append(errs, errors.New("sandbox.config_var must not be empty"))
	}
	if c.Sandbox.ConfigFile == "" || strings.ContainsAny(c.Sandbox.ConfigFile, `/\`) {
		errs = append(errs, fmt.Errorf("sandbox.config_file %q must be a bare file name", c.Sandbox.ConfigFile))
	}

	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
			errs = append(errs, fmt.Errorf("log.level: %w", err))
		}
	}
	if c.CommandTimeout < 0 {
		errs = append(errs, fmt.Errorf("command_timeout %s must not be negative", c.CommandTimeout))
	}

	return errors.Join(errs...)
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
