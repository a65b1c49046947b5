package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophcoach/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   database DSN
//	-s string   JWT HMAC secret
//	-t duration session token lifetime (e.g. "24h")
//	-k string   LLM API key
//	-u string   LLM chat-completions URL
//	-m string   LLM model
//	-l string   log level (debug, info, warn, error)
//
// Only these flags are taken from args (see flagx.FilterArgs), so the
// -c/-config flag and anything else on the command line is left alone.
func parseFlags(config *Config, args []string) error {
	filtered := flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-k", "-u", "-m", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "JWT secret key")
	fs.DurationVar(&config.TokenTTL, "t", config.TokenTTL, "session token lifetime")
	fs.StringVar(&config.LLMAPIKey, "k", config.LLMAPIKey, "LLM API key")
	fs.StringVar(&config.LLMAPIURL, "u", config.LLMAPIURL, "LLM chat-completions URL")
	fs.StringVar(&config.LLMModel, "m", config.LLMModel, "LLM model")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(filtered)
}
