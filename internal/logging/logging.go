package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/visitor-session/internal/config"
)

// Configure sets the global zerolog level from cfg and, outside production, switches
// the global logger to a human-readable console writer on out.
func Configure(cfg config.EnvConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if out == nil {
		out = os.Stderr
	}
	if cfg.GetEnv() != "PROD" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("app", cfg.GetAppName()).Logger()
	return log.Logger
}
