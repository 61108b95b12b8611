// Package xlog is a small leveled, colorized logger in the style geth's
// log15-derived package: a terminal-aware handler that colors the level
// keyword when writing to a tty and falls back to plain text otherwise.
// Records carry no call site of their own; CallSite renders a caller's
// file:line via go-stack for code that wants to attach one explicitly.
package xlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level orders log severity from most to least verbose.
type Level int

const (
	LvlTrace Level = iota
	LvlDebug
	LvlInfo
	LvlWarn
	LvlError
)

var levelNames = [...]string{
	LvlTrace: "TRACE",
	LvlDebug: "DEBUG",
	LvlInfo:  "INFO",
	LvlWarn:  "WARN",
	LvlError: "ERROR",
}

var levelColors = [...]*color.Color{
	LvlTrace: color.New(color.FgHiBlack),
	LvlDebug: color.New(color.FgCyan),
	LvlInfo:  color.New(color.FgGreen),
	LvlWarn:  color.New(color.FgYellow),
	LvlError: color.New(color.FgRed, color.Bold),
}

// Logger writes leveled lines to one destination, carrying a fixed set of
// key/value context pairs that prefix every record (a host tags its output
// with a "host" pair, and its scheduler and link server log through that
// same derived Logger).
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
	minLevel Level
	ctx      []interface{}
}

// New creates a Logger writing to w. If w is a terminal (checked via
// go-isatty, with go-colorable wrapping it on Windows), level keywords are
// colorized; otherwise output is plain so logs stay greppable when
// redirected to a file.
func New(w io.Writer, minLevel Level, ctx ...interface{}) *Logger {
	colorize := false
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = colorable.NewColorable(f)
		colorize = true
	}
	return &Logger{out: w, colorize: colorize, minLevel: minLevel, ctx: ctx}
}

// With returns a derived Logger that prepends additional key/value context
// to every record without mutating the receiver.
func (l *Logger) With(ctx ...interface{}) *Logger {
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &Logger{out: l.out, colorize: l.colorize, minLevel: l.minLevel, ctx: merged}
}

func (l *Logger) log(lvl Level, msg string, kv []interface{}) {
	if lvl < l.minLevel {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().Format("15:04:05.000")
	level := levelNames[lvl]
	if l.colorize {
		level = levelColors[lvl].Sprint(level)
	}
	fmt.Fprintf(l.out, "%s [%s] %s", ts, level, msg)
	writeKV(l.out, l.ctx)
	writeKV(l.out, kv)
	fmt.Fprint(l.out, "\n")
}

func writeKV(w io.Writer, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(w, " %v=%v", kv[i], kv[i+1])
	}
}

func (l *Logger) Trace(msg string, kv ...interface{}) { l.log(LvlTrace, msg, kv) }
func (l *Logger) Debug(msg string, kv ...interface{}) { l.log(LvlDebug, msg, kv) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.log(LvlInfo, msg, kv) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.log(LvlWarn, msg, kv) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.log(LvlError, msg, kv) }

// CallSite renders the immediate caller as file:line, used when a runtime
// error or panic needs to be attributed to more than just an agent name.
func CallSite(skip int) string {
	c := stack.Caller(skip + 1)
	return fmt.Sprintf("%+v", c)
}

// Root is the process-wide default logger, writing to stderr at Info level.
var Root = New(os.Stderr, LvlInfo)
