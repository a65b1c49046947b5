// Package config loads runtime configuration for the coaching CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: GOPHCOACH_SERVER_URL, GOPHCOACH_TIMEOUT.
//  3. Optional JSON file selected via -c or -config.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string    base URL of the server API
//	-t duration  request timeout (e.g. "90s")
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "request_timeout": "90s"
//	}
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gophcoach/internal/flagx"
	"github.com/dmitrijs2005/gophcoach/internal/timex"
)

// Config holds runtime settings for the CLI. RequestTimeout covers a full
// chat round trip, so it should exceed the server's LLM timeout.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 90 * time.Second
}

type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

func parseEnv(cfg *Config) error {
	if v := os.Getenv("GOPHCOACH_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("GOPHCOACH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GOPHCOACH_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	jc := JsonConfig{ServerURL: cfg.ServerURL, RequestTimeout: timex.Duration{Duration: cfg.RequestTimeout}}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.ServerURL = jc.ServerURL
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	return nil
}

func parseFlags(cfg *Config, args []string) error {
	filtered := flagx.FilterArgs(args, []string{"-a", "-t"})

	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the server API")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")

	return fs.Parse(filtered)
}
