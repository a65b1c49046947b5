package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv loads envFile (if present) into the process environment without
// overriding variables that are already set, then copies every recognised
// variable into config.
func parseEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	e := envReader{}

	e.str("HTTP_ADDR", &config.HTTPAddr)
	e.str("DATABASE_DSN", &config.DatabaseDSN)
	e.str("JWT_SECRET", &config.JWTSecret)
	e.duration("TOKEN_TTL", &config.TokenTTL)

	e.str("LLM_API_KEY", &config.LLMAPIKey)
	e.str("LLM_API_URL", &config.LLMAPIURL)
	e.str("LLM_MODEL", &config.LLMModel)
	e.duration("LLM_TIMEOUT", &config.LLMTimeout)
	e.float("LLM_TEMPERATURE", &config.LLMTemperature)
	e.int("LLM_MAX_TOKENS", &config.LLMMaxTokens)

	e.str("SYSTEM_PROMPT", &config.SystemPrompt)
	e.int("CONTEXT_MAX_TURNS", &config.ContextMaxTurns)
	e.int("CONTEXT_MAX_CHARS", &config.ContextMaxChars)
	e.int("CONTEXT_MAX_TOKENS", &config.ContextMaxTokens)
	e.int("CONTEXT_HISTORY_FETCH", &config.ContextHistoryFetch)
	e.str("TOKEN_ENCODING", &config.TokenEncoding)

	e.int("HISTORY_LIMIT", &config.HistoryLimit)
	e.int("MAX_MESSAGE_CHARS", &config.MaxMessageChars)

	e.float("AUTH_RPS", &config.AuthRPS)
	e.int("AUTH_BURST", &config.AuthBurst)

	e.str("LOG_LEVEL", &config.LogLevel)

	return errors.Join(e.errs...)
}

// envReader collects parse errors so one bad variable does not hide the
// others.
type envReader struct {
	errs []error
}

func (e *envReader) lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	return v, ok && v != ""
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.lookup(name); ok {
		*dst = v
	}
}

func (e *envReader) int(name string, dst *int) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", name, err))
		return
	}
	*dst = n
}

func (e *envReader) float(name string, dst *float64) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", name, err))
		return
	}
	*dst = f
}

func (e *envReader) duration(name string, dst *time.Duration) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", name, err))
		return
	}
	*dst = d
}
