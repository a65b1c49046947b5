package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophcoach/internal/flagx"
	"github.com/dmitrijs2005/gophcoach/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk form of Config. Durations accept "90s" style
// strings or integer nanoseconds. Keys missing from the file keep the value
// Config already had.
type FileConfig struct {
	HTTPAddr    string         `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN string         `json:"database_dsn" yaml:"database_dsn"`
	JWTSecret   string         `json:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL    timex.Duration `json:"token_ttl" yaml:"token_ttl"`

	LLMAPIKey      string         `json:"llm_api_key" yaml:"llm_api_key"`
	LLMAPIURL      string         `json:"llm_api_url" yaml:"llm_api_url"`
	LLMModel       string         `json:"llm_model" yaml:"llm_model"`
	LLMTimeout     timex.Duration `json:"llm_timeout" yaml:"llm_timeout"`
	LLMTemperature float64        `json:"llm_temperature" yaml:"llm_temperature"`
	LLMMaxTokens   int            `json:"llm_max_tokens" yaml:"llm_max_tokens"`

	SystemPrompt        string `json:"system_prompt" yaml:"system_prompt"`
	ContextMaxTurns     int    `json:"context_max_turns" yaml:"context_max_turns"`
	ContextMaxChars     int    `json:"context_max_chars" yaml:"context_max_chars"`
	ContextMaxTokens    int    `json:"context_max_tokens" yaml:"context_max_tokens"`
	ContextHistoryFetch int    `json:"context_history_fetch" yaml:"context_history_fetch"`
	TokenEncoding       string `json:"token_encoding" yaml:"token_encoding"`

	HistoryLimit    int `json:"history_limit" yaml:"history_limit"`
	MaxMessageChars int `json:"max_message_chars" yaml:"max_message_chars"`

	AuthRPS   float64 `json:"auth_rps" yaml:"auth_rps"`
	AuthBurst int     `json:"auth_burst" yaml:"auth_burst"`

	LogLevel string `json:"log_level" yaml:"log_level"`
}

func newFileConfig(c *Config) FileConfig {
	return FileConfig{
		HTTPAddr:            c.HTTPAddr,
		DatabaseDSN:         c.DatabaseDSN,
		JWTSecret:           c.JWTSecret,
		TokenTTL:            timex.Duration{Duration: c.TokenTTL},
		LLMAPIKey:           c.LLMAPIKey,
		LLMAPIURL:           c.LLMAPIURL,
		LLMModel:            c.LLMModel,
		LLMTimeout:          timex.Duration{Duration: c.LLMTimeout},
		LLMTemperature:      c.LLMTemperature,
		LLMMaxTokens:        c.LLMMaxTokens,
		SystemPrompt:        c.SystemPrompt,
		ContextMaxTurns:     c.ContextMaxTurns,
		ContextMaxChars:     c.ContextMaxChars,
		ContextMaxTokens:    c.ContextMaxTokens,
		ContextHistoryFetch: c.ContextHistoryFetch,
		TokenEncoding:       c.TokenEncoding,
		HistoryLimit:        c.HistoryLimit,
		MaxMessageChars:     c.MaxMessageChars,
		AuthRPS:             c.AuthRPS,
		AuthBurst:           c.AuthBurst,
		LogLevel:            c.LogLevel,
	}
}

func (f FileConfig) apply(c *Config) {
	c.HTTPAddr = f.HTTPAddr
	c.DatabaseDSN = f.DatabaseDSN
	c.JWTSecret = f.JWTSecret
	c.TokenTTL = f.TokenTTL.Duration
	c.LLMAPIKey = f.LLMAPIKey
	c.LLMAPIURL = f.LLMAPIURL
	c.LLMModel = f.LLMModel
	c.LLMTimeout = f.LLMTimeout.Duration
	c.LLMTemperature = f.LLMTemperature
	c.LLMMaxTokens = f.LLMMaxTokens
	c.SystemPrompt = f.SystemPrompt
	c.ContextMaxTurns = f.ContextMaxTurns
	c.ContextMaxChars = f.ContextMaxChars
	c.ContextMaxTokens = f.ContextMaxTokens
	c.ContextHistoryFetch = f.ContextHistoryFetch
	c.TokenEncoding = f.TokenEncoding
	c.HistoryLimit = f.HistoryLimit
	c.MaxMessageChars = f.MaxMessageChars
	c.AuthRPS = f.AuthRPS
	c.AuthBurst = f.AuthBurst
	c.LogLevel = f.LogLevel
}

// parseFile overlays the file named by -c/-config in args. The format is
// chosen by extension: .yaml and .yml are YAML, anything else is JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := newFileConfig(config)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}
