package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/proyectoj/assistant/internal/endpoint"
)

// Config captures everything the resolver, dispatcher and CLI need.
type Config struct {
	PublicBaseURL endpoint.Endpoint

	ServicePort    int
	EmulatorHost   string
	FallbackHost   string
	WellKnownHosts []int
	SubnetPrefix   string

	DiscoveryTimeout time.Duration
	ConfirmTimeout   time.Duration
	RequestTimeout   time.Duration
	SweepDeadline    time.Duration
	SweepWorkers     int

	CachePath   string
	LogLevel    string
	LogFormat   string
	VersionCode int
}

const (
	defaultConfigPath       = "~/.config/assistant/config.toml"
	defaultCachePath        = "~/.config/assistant/endpoint.toml"
	defaultServicePort      = 8000
	defaultEmulatorHost     = "10.0.2.2"
	defaultFallbackHost     = "192.168.1.2"
	defaultDiscoveryTimeout = 700 * time.Millisecond
	defaultConfirmTimeout   = 15 * time.Second
	defaultRequestTimeout   = 30 * time.Second
	defaultSweepDeadline    = 8 * time.Second
	defaultSweepWorkers     = 24
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
)

var defaultWellKnownHosts = []int{2, 10, 11, 20, 50, 100, 101, 110, 120, 150, 200}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServicePort:      defaultServicePort,
		EmulatorHost:     defaultEmulatorHost,
		FallbackHost:     defaultFallbackHost,
		WellKnownHosts:   append([]int(nil), defaultWellKnownHosts...),
		DiscoveryTimeout: defaultDiscoveryTimeout,
		ConfirmTimeout:   defaultConfirmTimeout,
		RequestTimeout:   defaultRequestTimeout,
		SweepDeadline:    defaultSweepDeadline,
		SweepWorkers:     defaultSweepWorkers,
		CachePath:        mustExpand(defaultCachePath),
		LogLevel:         defaultLogLevel,
		LogFormat:        defaultLogFormat,
	}
}

type fileConfig struct {
	PublicBaseURL    string `toml:"public_base_url"`
	ServicePort      int    `toml:"service_port"`
	EmulatorHost     string `toml:"emulator_host"`
	FallbackHost     string `toml:"fallback_host"`
	WellKnownHosts   []int  `toml:"well_known_hosts"`
	SubnetPrefix     string `toml:"subnet_prefix"`
	DiscoveryTimeout string `toml:"discovery_timeout"`
	ConfirmTimeout   string `toml:"confirm_timeout"`
	RequestTimeout   string `toml:"request_timeout"`
	SweepDeadline    string `toml:"sweep_deadline"`
	SweepWorkers     int    `toml:"sweep_workers"`
	CachePath        string `toml:"cache_path"`
	LogLevel         string `toml:"log_level"`
	LogFormat        string `toml:"log_format"`
	VersionCode      int    `toml:"version_code"`
}

type envConfig struct {
	PublicBaseURL       string        `env:"ASSISTANT_PUBLIC_BASE_URL"`
	LegacyPublicBaseURL string        `env:"CLOUDFLARE_PUBLIC_BASE_URL"`
	ServicePort         int           `env:"ASSISTANT_SERVICE_PORT"`
	SubnetPrefix        string        `env:"ASSISTANT_SUBNET_PREFIX"`
	DiscoveryTimeout    time.Duration `env:"ASSISTANT_DISCOVERY_TIMEOUT"`
	SweepDeadline       time.Duration `env:"ASSISTANT_SWEEP_DEADLINE"`
	CachePath           string        `env:"ASSISTANT_CACHE_PATH"`
	LogLevel            string        `env:"ASSISTANT_LOG_LEVEL"`
	LogFormat           string        `env:"ASSISTANT_LOG_FORMAT"`
}

// Load reads the TOML config at path (or the default location), falls back to
// defaults when the file is missing, then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer func() { _ = file.Close() }()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		var raw fileConfig
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if err := cfg.applyFile(raw); err != nil {
			return Config{}, err
		}
	}

	var overrides envConfig
	if err := env.Parse(&overrides); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.applyEnv(overrides)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(raw fileConfig) error {
	c.PublicBaseURL = endpoint.NormalizePublic(raw.PublicBaseURL)
	if raw.ServicePort > 0 {
		c.ServicePort = raw.ServicePort
	}
	if host := strings.TrimSpace(raw.EmulatorHost); host != "" {
		c.EmulatorHost = host
	}
	if host := strings.TrimSpace(raw.FallbackHost); host != "" {
		c.FallbackHost = host
	}
	if len(raw.WellKnownHosts) > 0 {
		c.WellKnownHosts = append([]int(nil), raw.WellKnownHosts...)
	}
	c.SubnetPrefix = strings.TrimSpace(raw.SubnetPrefix)

	durations := []struct {
		name string
		raw  string
		dest *time.Duration
	}{
		{"discovery_timeout", raw.DiscoveryTimeout, &c.DiscoveryTimeout},
		{"confirm_timeout", raw.ConfirmTimeout, &c.ConfirmTimeout},
		{"request_timeout", raw.RequestTimeout, &c.RequestTimeout},
		{"sweep_deadline", raw.SweepDeadline, &c.SweepDeadline},
	}
	for _, d := range durations {
		value := strings.TrimSpace(d.raw)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dest = parsed
	}

	if raw.SweepWorkers > 0 {
		c.SweepWorkers = raw.SweepWorkers
	}
	if p := strings.TrimSpace(raw.CachePath); p != "" {
		c.CachePath = mustExpand(p)
	}
	if level := strings.TrimSpace(raw.LogLevel); level != "" {
		c.LogLevel = strings.ToLower(level)
	}
	if format := strings.TrimSpace(raw.LogFormat); format != "" {
		c.LogFormat = strings.ToLower(format)
	}
	c.VersionCode = raw.VersionCode
	return nil
}

func (c *Config) applyEnv(o envConfig) {
	if public := endpoint.NormalizePublic(o.PublicBaseURL); public != "" {
		c.PublicBaseURL = public
	} else if legacy := endpoint.NormalizePublic(o.LegacyPublicBaseURL); legacy != "" && c.PublicBaseURL == "" {
		c.PublicBaseURL = legacy
	}
	if o.ServicePort > 0 {
		c.ServicePort = o.ServicePort
	}
	if prefix := strings.TrimSpace(o.SubnetPrefix); prefix != "" {
		c.SubnetPrefix = prefix
	}
	if o.DiscoveryTimeout > 0 {
		c.DiscoveryTimeout = o.DiscoveryTimeout
	}
	if o.SweepDeadline > 0 {
		c.SweepDeadline = o.SweepDeadline
	}
	if p := strings.TrimSpace(o.CachePath); p != "" {
		c.CachePath = mustExpand(p)
	}
	if level := strings.TrimSpace(o.LogLevel); level != "" {
		c.LogLevel = strings.ToLower(level)
	}
	if format := strings.TrimSpace(o.LogFormat); format != "" {
		c.LogFormat = strings.ToLower(format)
	}
}

// Validate rejects values the resolver cannot work with.
func (c Config) Validate() error {
	if c.ServicePort <= 0 || c.ServicePort > 65535 {
		return fmt.Errorf("service_port %d out of range", c.ServicePort)
	}
	for _, host := range c.WellKnownHosts {
		if host < 1 || host > 254 {
			return fmt.Errorf("well_known_hosts entry %d out of range", host)
		}
	}
	if c.SubnetPrefix != "" && !validPrefix(c.SubnetPrefix) {
		return fmt.Errorf("subnet_prefix %q is not a /24 prefix like 192.168.1", c.SubnetPrefix)
	}
	if c.DiscoveryTimeout <= 0 || c.ConfirmTimeout <= 0 || c.RequestTimeout <= 0 || c.SweepDeadline <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.SweepWorkers <= 0 {
		return fmt.Errorf("sweep_workers must be positive")
	}
	return nil
}

func validPrefix(prefix string) bool {
	if strings.Count(prefix, ".") != 2 {
		return false
	}
	ip := net.ParseIP(prefix + ".1")
	return ip != nil && ip.To4() != nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
