// Package config loads the bridge's startup configuration: where to
// listen, which transport backends to try, and the watcher list that
// defines the state snapshot.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user-none/emubridge/snapshot"
	"github.com/user-none/emubridge/transport"
)

// Config is the on-disk configuration. Missing fields fall back to
// defaults; the zero value is not usable directly, use Default or
// Load.
type Config struct {
	Listen struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"listen"`

	// Backends is the transport probe order.
	Backends []string `yaml:"backends"`

	Serial struct {
		Device string `yaml:"device"`
		Baud   int    `yaml:"baud"`
	} `yaml:"serial"`

	// MemoryDomain names the host bus watchers read from. Empty means
	// the host's single implicit domain.
	MemoryDomain string `yaml:"memory_domain"`

	Watchers []WatcherConfig `yaml:"watchers"`

	Emulator struct {
		Kind   string   `yaml:"kind"`
		Path   string   `yaml:"path"`
		ROM    string   `yaml:"rom"`
		Script string   `yaml:"script"`
		Args   []string `yaml:"args"`
	} `yaml:"emulator"`
}

// WatcherConfig is one watcher entry. Addresses accept hex in YAML
// (0x03004360).
type WatcherConfig struct {
	Name    string `yaml:"name"`
	Address uint32 `yaml:"address"`
	Size    int    `yaml:"size"`
}

// Default returns the built-in configuration: TCP on the port the
// controller tooling expects, no watchers beyond the frame counter.
func Default() *Config {
	cfg := &Config{}
	cfg.Listen.Host = "127.0.0.1"
	cfg.Listen.Port = 8765
	cfg.Backends = []string{"tcp"}
	return cfg
}

// Load reads a YAML config file. A missing file is not an error: the
// defaults apply, so the bridge runs without any configuration on
// disk.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Listen.Port < 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen port %d out of range", c.Listen.Port)
	}
	if len(c.Backends) == 0 {
		return fmt.Errorf("no transport backends configured")
	}
	known := make(map[string]bool)
	for _, name := range transport.Backends() {
		known[name] = true
	}
	for _, name := range c.Backends {
		if !known[name] {
			return fmt.Errorf("unknown backend %q (have %v)", name, transport.Backends())
		}
	}
	for _, w := range c.Watchers {
		if w.Name == "" {
			return fmt.Errorf("watcher with empty name")
		}
		if w.Name != snapshot.FrameName {
			switch w.Size {
			case 1, 2, 4:
			default:
				return fmt.Errorf("watcher %q has unsupported size %d", w.Name, w.Size)
			}
		}
	}
	return nil
}

// TransportConfig converts the listen settings for the transport
// layer.
func (c *Config) TransportConfig() transport.Config {
	return transport.Config{
		Host:         c.Listen.Host,
		Port:         c.Listen.Port,
		SerialDevice: c.Serial.Device,
		SerialBaud:   c.Serial.Baud,
	}
}

// SnapshotWatchers converts the watcher entries for the snapshot
// source.
func (c *Config) SnapshotWatchers() []snapshot.Watcher {
	out := make([]snapshot.Watcher, 0, len(c.Watchers))
	for _, w := range c.Watchers {
		out = append(out, snapshot.Watcher{Name: w.Name, Address: w.Address, Size: w.Size})
	}
	return out
}
