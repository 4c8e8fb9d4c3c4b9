// Package config loads hostaddr settings from a TOML file.
package config

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Defaults used when neither the file nor a flag sets a value
const (
	DefaultCommand         = "ifconfig"
	DefaultWebPort         = 8080
	DefaultCheckinInterval = time.Hour
	DefaultService         = "_hostaddr._tcp"
)

// Duration is a time.Duration written as "90s" or "1h" in the file
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(text))
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Web configures the HTTP/websocket API
type Web struct {
	Port    int      `toml:"port"`
	Token   string   `toml:"token"`
	// Refresh pushes a new snapshot to websocket clients; zero disables it
	Refresh Duration `toml:"refresh"`
}

// Checkin configures periodic reporting to a collector
type Checkin struct {
	URL      string   `toml:"url"`
	Token    string   `toml:"token"`
	Interval Duration `toml:"interval"`
}

// MDNS configures the mDNS announcement
type MDNS struct {
	Instance string `toml:"instance"`
	Service  string `toml:"service"`
	Port     int    `toml:"port"`
}

// Config is the whole settings file
type Config struct {
	Source  string   `toml:"source"`
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Debug   bool     `toml:"debug"`

	Web     Web     `toml:"web"`
	Checkin Checkin `toml:"checkin"`
	MDNS    MDNS    `toml:"mdns"`
}

// Default returns a Config with every default filled in
func Default() *Config {
	return &Config{
		Source:  "auto",
		Command: DefaultCommand,
		Web:     Web{Port: DefaultWebPort},
		Checkin: Checkin{Interval: Duration{DefaultCheckinInterval}},
		MDNS:    MDNS{Service: DefaultService},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	if err := cfg.decode(string(data)); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults
func Parse(text string) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(text); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(text string) error {
	md, err := toml.Decode(text, c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return errors.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return c.Validate()
}

// Validate checks values that TOML types alone cannot
func (c *Config) Validate() error {
	switch strings.ToLower(c.Source) {
	case "", "auto", "system", "command":
	default:
		return errors.Errorf("source must be auto, system or command, got %q", c.Source)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return errors.Errorf("web.port out of range: %d", c.Web.Port)
	}
	if c.Web.Refresh.Duration < 0 {
		return errors.New("web.refresh must not be negative")
	}
	if c.MDNS.Port < 0 || c.MDNS.Port > 65535 {
		return errors.Errorf("mdns.port out of range: %d", c.MDNS.Port)
	}
	if c.Checkin.URL != "" && c.Checkin.Interval.Duration <= 0 {
		return errors.New("checkin.interval must be positive")
	}
	return nil
}
