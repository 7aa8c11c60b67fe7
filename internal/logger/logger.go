// internal/logger/logger.go
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New construit le logger de l'application.
// En mode pretty (dev), la sortie est colorée et lisible;
// sinon on émet du JSON pur pour la prod.
func New(level string, pretty bool) zerolog.Logger {
	var out = os.Stdout
	zerolog.TimeFieldFormat = time.RFC3339

	lvl := parseLevel(level)

	if pretty {
		cw := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
		return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// parseLevel convertit un niveau texte en zerolog.Level (info par défaut)
func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
