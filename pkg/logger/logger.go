// Package logger provides structured logging for signing sessions. Secret
// scalars, shares and Paillier keys are never accepted as fields; only
// indices, identifiers, timings and public values are logged.
package logger

import (
	"encoding/hex"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field names shared by every component that logs a session.
const (
	FieldParty   = "party"
	FieldFrom    = "from"
	FieldCulprit = "culprit"
	FieldSession = "session"
	FieldRound   = "round"
	FieldSigners = "signers"
)

// Logger wraps zerolog.Logger
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error or disabled
	Level string

	// Output defaults to os.Stderr
	Output io.Writer

	// Pretty switches to zerolog's console writer
	Pretty bool

	TimeFormat    string
	CallerEnabled bool
}

func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Output:     os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

// New builds a logger from cfg. A nil cfg means DefaultConfig.
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat}
	}

	ctx := zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.CallerEnabled {
		ctx = ctx.Caller()
	}
	return &Logger{zlog: ctx.Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

func (l *Logger) With() *Context {
	return &Context{zctx: l.zlog.With()}
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }

func (l *Logger) DebugEvent() *Event { return &Event{zevent: l.zlog.Debug()} }
func (l *Logger) InfoEvent() *Event  { return &Event{zevent: l.zlog.Info()} }
func (l *Logger) WarnEvent() *Event  { return &Event{zevent: l.zlog.Warn()} }
func (l *Logger) ErrorEvent() *Event { return &Event{zevent: l.zlog.Error()} }

// Context accumulates fields for a child logger.
type Context struct {
	zctx zerolog.Context
}

func (c *Context) Str(key, val string) *Context {
	c.zctx = c.zctx.Str(key, val)
	return c
}

func (c *Context) Int(key string, val int) *Context {
	c.zctx = c.zctx.Int(key, val)
	return c
}

// Party tags every entry with the local signer index.
func (c *Context) Party(index int) *Context {
	return c.Int(FieldParty, index)
}

// Session tags every entry with the shortened session identifier.
func (c *Context) Session(id []byte) *Context {
	return c.Str(FieldSession, ShortID(id))
}

func (c *Context) Logger() *Logger {
	return &Logger{zlog: c.zctx.Logger()}
}

// Event is a single entry being built. Events from a disabled level are
// no-ops all the way to Msg.
type Event struct {
	zevent *zerolog.Event
}

func (e *Event) Str(key, val string) *Event {
	e.zevent.Str(key, val)
	return e
}

func (e *Event) Int(key string, val int) *Event {
	e.zevent.Int(key, val)
	return e
}

func (e *Event) Ints(key string, val []int) *Event {
	e.zevent.Ints(key, val)
	return e
}

// Hex logs a public byte value such as r or a commitment.
func (e *Event) Hex(key string, val []byte) *Event {
	e.zevent.Hex(key, val)
	return e
}

func (e *Event) Bool(key string, val bool) *Event {
	e.zevent.Bool(key, val)
	return e
}

// Round records which protocol round produced the entry.
func (e *Event) Round(n int) *Event {
	return e.Int(FieldRound, n)
}

// From records the sender of an inbound message.
func (e *Event) From(index int) *Event {
	return e.Int(FieldFrom, index)
}

// Culprit records the co-signer a failure is attributed to.
func (e *Event) Culprit(index int) *Event {
	return e.Int(FieldCulprit, index)
}

func (e *Event) Signers(set []int) *Event {
	return e.Ints(FieldSigners, set)
}

func (e *Event) Err(err error) *Event {
	e.zevent.AnErr("error", err)
	return e
}

func (e *Event) Dur(key string, val time.Duration) *Event {
	e.zevent.Dur(key, val)
	return e
}

func (e *Event) Msg(msg string) {
	e.zevent.Msg(msg)
}

// ShortID renders the first 8 bytes of an identifier as hex.
func ShortID(id []byte) string {
	if len(id) == 0 {
		return "<none>"
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return hex.EncodeToString(id)
}
