package helper

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"document-qa/internal/config"
)

// SetupLogger configures the global zerolog logger. Console output with
// caller info is used when stderr is a terminal or cfg.Console forces it,
// JSON lines otherwise.
func SetupLogger(cfg config.LogConfig) {
	SetupLoggerTo(os.Stderr, cfg, IsTerminal(os.Stderr))
}

func SetupLoggerTo(w io.Writer, cfg config.LogConfig, tty bool) {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	console := tty
	if cfg.Console != nil {
		console = *cfg.Console
	}
	if console {
		zerolog.TimeFieldFormat = time.RFC3339
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			With().Timestamp().Caller().Logger()
		return
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
