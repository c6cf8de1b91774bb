// Package config loads vnicctl runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vnicctl/vnicctl/pkg/util"
)

// Config holds runtime configuration for vnicctl
type Config struct {
	Convergence ConvergenceConfig `yaml:"convergence"`
	Agent       AgentConfig       `yaml:"agent"`
	Cloud       CloudConfig       `yaml:"cloud"`
	Journal     JournalConfig     `yaml:"journal"`

	// LockPath is the flock file guarding against concurrent provisioning runs
	LockPath string `yaml:"lock_path"`
}

// ConvergenceConfig bounds the polling loop. Waits are whole seconds so
// the file stays easy to hand-edit.
type ConvergenceConfig struct {
	MaxAttempts           int `yaml:"max_attempts"`
	EmptyTableWaitSeconds int `yaml:"empty_table_wait_seconds"`
	MismatchWaitSeconds   int `yaml:"mismatch_wait_seconds"`
}

// EmptyTableWait returns the pause after a cycle with no recognized rows
func (c ConvergenceConfig) EmptyTableWait() time.Duration {
	return time.Duration(c.EmptyTableWaitSeconds) * time.Second
}

// MismatchWait returns the pause after a cycle with unmatched rows
func (c ConvergenceConfig) MismatchWait() time.Duration {
	return time.Duration(c.MismatchWaitSeconds) * time.Second
}

// AgentConfig describes how the network configuration agent is invoked
type AgentConfig struct {
	Command        []string `yaml:"command"`
	NICPrefixes    []string `yaml:"nic_prefixes"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Timeout returns the per-invocation agent timeout
func (c AgentConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CloudConfig configures how the oci CLI is invoked
type CloudConfig struct {
	Bin     string `yaml:"bin"`
	Auth    string `yaml:"auth,omitempty"`
	Profile string `yaml:"profile,omitempty"`
}

// JournalConfig configures the provisioning journal
type JournalConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int64  `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// MaxSizeBytes returns the rotation threshold in bytes
func (c JournalConfig) MaxSizeBytes() int64 {
	return c.MaxSizeMB * 1024 * 1024
}

// DefaultPath returns the default location of the config file
func DefaultPath() string {
	return "/etc/vnicctl/config.yml"
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Convergence: ConvergenceConfig{
			MaxAttempts:           120,
			EmptyTableWaitSeconds: 3,
			MismatchWaitSeconds:   1,
		},
		Agent: AgentConfig{
			Command:        []string{"oci-network-config", "show"},
			NICPrefixes:    []string{"ens", "enp", "eno", "eth"},
			TimeoutSeconds: 120,
		},
		Cloud: CloudConfig{
			Bin: "oci",
		},
		Journal: JournalConfig{
			Path:       "/var/log/vnicctl/journal.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		LockPath: "/run/lock/vnicctl.lock",
	}
}

// Load reads configuration from the default location
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads configuration from a specific path, layering the file
// over the built-in defaults. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// SaveTo writes the configuration to a specific path
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks for values the loop and journal cannot run with
func (c *Config) Validate() error {
	v := &util.ValidationBuilder{}
	v.Add(c.Convergence.MaxAttempts > 0, "convergence.max_attempts must be positive")
	v.Add(c.Convergence.EmptyTableWaitSeconds >= 0, "convergence.empty_table_wait_seconds must not be negative")
	v.Add(c.Convergence.MismatchWaitSeconds >= 0, "convergence.mismatch_wait_seconds must not be negative")
	v.Add(len(c.Agent.Command) > 0, "agent.command must not be empty")
	v.Add(len(c.Agent.NICPrefixes) > 0, "agent.nic_prefixes must not be empty")
	v.Add(c.Agent.TimeoutSeconds > 0, "agent.timeout_seconds must be positive")
	v.Add(c.Cloud.Bin != "", "cloud.bin must not be empty")
	v.Add(c.Journal.MaxSizeMB >= 0, "journal.max_size_mb must not be negative")
	v.Add(c.Journal.MaxBackups >= 0, "journal.max_backups must not be negative")
	return v.Build()
}
