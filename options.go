package pypage

import (
	"os"

	seelog "github.com/cihub/seelog"
)

// Logger wraps a seelog.LoggerInterface, the logging library the
// corpus's own tokenizer/parser package reaches for in place of the
// standard log package (see mohae-rollie's parse/logger.go, which
// builds its logger the same way via LoggerFromWriterWithMinLevel).
type Logger struct {
	seelog.LoggerInterface
}

func newLogger(debug bool) *Logger {
	level := seelog.InfoLvl
	if debug {
		level = seelog.TraceLvl
	}
	l, err := seelog.LoggerFromWriterWithMinLevel(os.Stderr, level)
	if err != nil {
		return &Logger{LoggerInterface: seelog.Disabled}
	}
	return &Logger{LoggerInterface: l}
}

// Printf always logs, at Warn level, regardless of debug mode: used for
// diagnostics a caller needs to see unconditionally, such as the
// while-loop wall-clock guard warning.
func (l *Logger) Printf(format string, args ...any) {
	l.Warnf(format, args...)
}

// config holds the resolved options for one Process call.
type config struct {
	delims  Delims
	inject  func(path string) (string, error)
	include func(path string) (string, error)
	debug   bool
	logger  *Logger
}

func newConfig(opts ...Option) *config {
	c := &config{delims: DefaultDelims()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = newLogger(c.debug)
	return c
}

// Option configures a single Process/Template call.
type Option func(*config)

// WithDelims overrides the default {{ }}, {# #}, {% %} delimiter pairs.
func WithDelims(d Delims) Option {
	return func(c *config) { c.delims = d }
}

// WithInject installs the inject(path) builtin, backed by fn. Without
// this option, templates that call inject() get an undefined-name
// error from the embedded language.
func WithInject(fn func(path string) (string, error)) Option {
	return func(c *config) { c.inject = fn }
}

// WithInclude installs the include(path) builtin, backed by fn.
func WithInclude(fn func(path string) (string, error)) Option {
	return func(c *config) { c.include = fn }
}

// WithDebug turns on diagnostic logging for this call, mirroring the
// teacher's package-level SetDebug but scoped per call rather than
// global.
func WithDebug(b bool) Option {
	return func(c *config) { c.debug = b }
}
