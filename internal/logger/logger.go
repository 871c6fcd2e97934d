// Package logger sets up zerolog for the faction AI service and carries the
// request and sector a log line belongs to through context.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	sectorIDKey
)

const (
	milliTimeFormat = "2006-01-02T15:04:05.000Z07:00"
	callerWidth     = 30
	requestIDLen    = 12

	// MaxBodyLog is how much of a request or response body LogBody keeps.
	MaxBodyLog = 1000
)

// Init configures the global logger. Empty or unknown levels mean info; dev
// mode colors the console. LOG_FILE, when set, receives a copy of every line.
func Init(logLevel string, dev bool) {
	zerolog.TimeFieldFormat = milliTimeFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	zerolog.CallerMarshalFunc = padCaller

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = log.Output(output(dev)).With().Caller().Logger()
	log.Info().Str("level", level.String()).Bool("dev", dev).Msg("Logger initialized")
}

// padCaller renders file:line at a fixed width so messages line up.
func padCaller(_ uintptr, file string, line int) string {
	path := fmt.Sprintf("%s:%d", filepath.Base(file), line)
	if len(path) >= callerWidth {
		return path[len(path)-callerWidth:]
	}
	return path + strings.Repeat(" ", callerWidth-len(path))
}

func output(dev bool) io.Writer {
	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: milliTimeFormat, NoColor: !dev}
	if path := os.Getenv("LOG_FILE"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			w = io.MultiWriter(w, f)
		}
	}
	return w
}

// Get returns the global logger.
func Get() zerolog.Logger {
	return log.Logger
}

// NewRequestID returns a short random id for correlating one request's logs.
func NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:requestIDLen]
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithSector tags ctx with the sector being worked on.
func WithSector(ctx context.Context, sectorID string) context.Context {
	return context.WithValue(ctx, sectorIDKey, sectorID)
}

// FromContext returns the global logger with the request and sector ids
// found on ctx.
func FromContext(ctx context.Context) zerolog.Logger {
	lc := log.Logger.With()
	if id := RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("requestId", id)
	}
	if id, _ := ctx.Value(sectorIDKey).(string); id != "" {
		lc = lc.Str("sectorId", id)
	}
	return lc.Logger()
}

// ForTurn is FromContext plus the game turn.
func ForTurn(ctx context.Context, turn int) zerolog.Logger {
	l := FromContext(ctx)
	return l.With().Int("turn", turn).Logger()
}

// ForFaction adds the faction id to l.
func ForFaction(l zerolog.Logger, factionID string) zerolog.Logger {
	return l.With().Str("factionId", factionID).Logger()
}

// LogBody logs a request or response body at debug level, cut at MaxBodyLog.
func LogBody(l zerolog.Logger, kind string, body []byte) {
	if len(body) == 0 {
		return
	}
	ev := l.Debug()
	if len(body) > MaxBodyLog {
		body = body[:MaxBodyLog]
		ev = ev.Bool("truncated", true)
	}
	ev.Str(kind, string(body)).Msg(strings.ToUpper(kind[:1]) + kind[1:] + " body")
}
