// Package config loads chromectl's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neboloop/chromectl/internal/defaults"
)

// FileName is the config file inside the data directory.
const FileName = "config.yaml"

// Config holds the chromectl configuration
type Config struct {
	DataDir string `yaml:"-"` // Platform data directory

	// Browser settings
	ProfileDir  string   `yaml:"profile_dir"`  // Base dir holding one directory per profile
	BrowserPath string   `yaml:"browser_path"` // Explicit executable; empty = discover
	DebugPort   int      `yaml:"debug_port"`   // Remote debugging port (default: 9222)
	Headless    bool     `yaml:"headless"`
	Driver      string   `yaml:"driver"` // "playwright" or "cdp"
	ExtraArgs   []string `yaml:"extra_args"`

	// Timing
	LaunchDelay     Duration `yaml:"launch_delay"`     // Sleep after launch (default: 3s)
	WaitReady       bool     `yaml:"wait_ready"`       // Poll the debug endpoint after the delay
	ReadyTimeout    Duration `yaml:"ready_timeout"`    // Readiness poll bound (default: 15s)
	NavigateTimeout Duration `yaml:"navigate_timeout"` // Attach + navigation bound (default: 60s)

	TabPoolSize int `yaml:"tab_pool_size"` // Tabs opened by `tabs` (default: 5)

	Proxy       ProxyConfig       `yaml:"proxy"`
	Fingerprint FingerprintConfig `yaml:"fingerprint"`
	Log         LogConfig         `yaml:"log"`
}

// ProxyConfig is the upstream proxy passed to the browser
type ProxyConfig struct {
	Server          string `yaml:"server"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	PasswordKeyring bool   `yaml:"password_keyring"` // Read the password from the OS keychain
}

// FingerprintConfig controls locale/timezone/window matching
type FingerprintConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Country   string `yaml:"country"`    // Fixed country; empty = resolve from proxy
	GeoIPDB   string `yaml:"geoip_db"`   // GeoLite2 database path
	LookupURL string `yaml:"lookup_url"` // ip-api style URL with one %s
}

// LogConfig controls the process logger
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Duration is a time.Duration written as "3s" in YAML.
type Duration time.Duration

// UnmarshalYAML accepts Go duration strings and plain seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		var secs float64
		if _, serr := fmt.Sscanf(s, "%g", &secs); serr != nil {
			return fmt.Errorf("invalid duration %q", s)
		}
		parsed = time.Duration(secs * float64(time.Second))
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DataDir:         DefaultDataDir(),
		ProfileDir:      defaults.DefaultProfileDir(),
		DebugPort:       9222,
		Driver:          "playwright",
		LaunchDelay:     Duration(3 * time.Second),
		ReadyTimeout:    Duration(15 * time.Second),
		NavigateTimeout: Duration(60 * time.Second),
		TabPoolSize:     5,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultDataDir returns the platform-appropriate data directory.
func DefaultDataDir() string {
	dir, err := defaults.DataDir()
	if err != nil {
		return ".chromectl"
	}
	return dir
}

// Load loads config from the data directory's config.yaml
func Load() (*Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(cfg.DataDir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config doesn't exist, use defaults
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}
	if err := cfg.parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFrom loads config from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := cfg.parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromBytes loads configuration from YAML bytes with environment variable expansion
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.parse(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parse(data []byte) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return err
	}
	c.applyEnv()
	c.ProfileDir = expandHome(c.ProfileDir)
	c.Fingerprint.GeoIPDB = expandHome(c.Fingerprint.GeoIPDB)
	return c.Validate()
}

// applyEnv lets environment variables override file values.
func (c *Config) applyEnv() {
	if dir := os.Getenv("CHROMECTL_PROFILE_DIR"); dir != "" {
		c.ProfileDir = dir
	}
	if path := os.Getenv("CHROMECTL_BROWSER"); path != "" {
		c.BrowserPath = path
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.DebugPort < 0 || c.DebugPort > 65535 {
		return fmt.Errorf("debug_port out of range: %d", c.DebugPort)
	}
	switch c.Driver {
	case "", "playwright", "cdp":
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.TabPoolSize < 0 {
		return fmt.Errorf("tab_pool_size must not be negative")
	}
	return nil
}

// Save writes the config to the data directory's config.yaml
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.DataDir, FileName), data, 0600)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
