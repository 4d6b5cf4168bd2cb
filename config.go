// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cloudvision

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ConfigFromEnv
const (
	EnvHostname = "CLOUDVISION_HOSTNAME"
	EnvPort     = "CLOUDVISION_PORT"
	EnvToken    = "CLOUDVISION_TOKEN"
)

// Config stores the information needed to connect to CloudVision.
//
// A Config is resolved once at startup and passed to NewClient. Port 0 means
// no explicit port; the HTTPS default applies.
type Config struct {
	Hostname           string `toml:"hostname" yaml:"hostname"`
	Port               uint16 `toml:"port" yaml:"port"`
	Token              string `toml:"token" yaml:"token"`
	AcceptInvalidCerts bool   `toml:"accept_invalid_certs" yaml:"accept_invalid_certs"`
}

// NewConfig builds a configuration with certificate validation enabled
func NewConfig(hostname string, port uint16, token string) Config {
	return Config{
		Hostname: hostname,
		Port:     port,
		Token:    token,
	}
}

// String returns a printable form of the configuration with the token redacted
func (c Config) String() string {
	token := ""
	if c.Token != "" {
		token = "[REDACTED]"
	}
	return fmt.Sprintf("Config{Hostname:%s Port:%d Token:%s AcceptInvalidCerts:%t}",
		c.Hostname, c.Port, token, c.AcceptInvalidCerts)
}

// GoString keeps the token out of %#v output
func (c Config) GoString() string {
	return c.String()
}

// ConfigFromEnv builds a configuration from CLOUDVISION_HOSTNAME,
// CLOUDVISION_PORT and CLOUDVISION_TOKEN. All three variables are required
// and the port must be an unsigned 16 bit integer.
func ConfigFromEnv() (Config, error) {
	hostname, ok := os.LookupEnv(EnvHostname)
	if !ok {
		return Config{}, fmt.Errorf("config: %s is not set", EnvHostname)
	}
	portStr, ok := os.LookupEnv(EnvPort)
	if !ok {
		return Config{}, fmt.Errorf("config: %s is not set", EnvPort)
	}
	port, err := strconv.ParseUint(strings.TrimSpace(portStr), 10, 16)
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid %s %q: %w", EnvPort, portStr, err)
	}
	token, ok := os.LookupEnv(EnvToken)
	if !ok {
		return Config{}, fmt.Errorf("config: %s is not set", EnvToken)
	}
	return NewConfig(hostname, uint16(port), token), nil
}

// ConfigFromDotEnv loads the given .env files (".env" when none are given)
// into the process environment and then resolves the configuration with
// ConfigFromEnv. Variables already present in the environment win.
func ConfigFromDotEnv(paths ...string) (Config, error) {
	if err := godotenv.Load(paths...); err != nil {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}
	return ConfigFromEnv()
}

// ConfigFromFile reads a configuration file. Files ending in .yaml or .yml
// are parsed as YAML, everything else as TOML:
//
//	hostname = "www.cv-staging.corp.arista.io"
//	port = 443
//	token = "..."
//	accept_invalid_certs = false
//
// The hostname and token keys are required.
func ConfigFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", filepath.Base(path), err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", filepath.Base(path), err)
		}
	default:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", filepath.Base(path), err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("config: parse %s: unknown key %q", filepath.Base(path), undecoded[0].String())
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// MustConfigFromEnv is like ConfigFromEnv but panics on error. It is meant
// for program startup, before any client exists.
func MustConfigFromEnv() Config {
	cfg, err := ConfigFromEnv()
	if err != nil {
		panic(err)
	}
	return cfg
}

// MustConfigFromFile is like ConfigFromFile but panics on error
func MustConfigFromFile(path string) Config {
	cfg, err := ConfigFromFile(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Hostname) == "" {
		return errors.New("missing hostname")
	}
	if c.Token == "" {
		return errors.New("missing token")
	}
	return nil
}
