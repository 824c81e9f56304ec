// Package console intercepts playground log calls, keeps a bounded view of
// recent lines for the page and forwards every call to the wrapped console.
package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/conneroisu/codeplay/internal/clock"
	"github.com/conneroisu/codeplay/internal/logging"
)

// Console is the three-level logging surface shared by the bridge and the
// consoles it wraps.
type Console interface {
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

// TimeFormat is the timestamp prefix of every view line.
const TimeFormat = "15:04:05"

// Bridge records each call in a LogView and then forwards it unchanged.
type Bridge struct {
	wrapped Console
	view    *LogView
	clock   clock.Clock
}

// NewBridge wraps c. A nil c records without forwarding.
func NewBridge(c Console, view *LogView, clk clock.Clock) *Bridge {
	if clk == nil {
		clk = clock.New()
	}
	if view == nil {
		view = NewLogView(DefaultLimit)
	}
	return &Bridge{wrapped: c, view: view, clock: clk}
}

// View returns the bounded view the bridge appends to.
func (b *Bridge) View() *LogView { return b.view }

func (b *Bridge) Info(args ...any) {
	b.record(LevelInfo, args)
	if b.wrapped != nil {
		b.wrapped.Info(args...)
	}
}

func (b *Bridge) Warn(args ...any) {
	b.record(LevelWarn, args)
	if b.wrapped != nil {
		b.wrapped.Warn(args...)
	}
}

func (b *Bridge) Error(args ...any) {
	b.record(LevelError, args)
	if b.wrapped != nil {
		b.wrapped.Error(args...)
	}
}

func (b *Bridge) record(level Level, args []any) {
	b.view.Append(LogEntry{
		Timestamp: b.clock.Now(),
		Level:     level,
		Message:   Join(args...),
	})
}

// Join renders args the way a browser console does: each value formatted
// on its own and separated by a single space.
func Join(args ...any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, " ")
}

var strict = bluemonday.StrictPolicy()

// Sanitize strips markup from a line before it is sent to the page.
func Sanitize(s string) string {
	return strict.Sanitize(s)
}

// LoggerConsole forwards console calls to a structured logger.
type LoggerConsole struct {
	logger logging.Logger
}

// NewLoggerConsole adapts logger to Console.
func NewLoggerConsole(logger logging.Logger) *LoggerConsole {
	return &LoggerConsole{logger: logger.WithComponent("console")}
}

func (c *LoggerConsole) Info(args ...any) {
	c.logger.Info(context.Background(), Join(args...))
}

func (c *LoggerConsole) Warn(args ...any) {
	c.logger.Warn(context.Background(), firstError(args), Join(args...))
}

func (c *LoggerConsole) Error(args ...any) {
	c.logger.Error(context.Background(), firstError(args), Join(args...))
}

func firstError(args []any) error {
	for _, a := range args {
		if err, ok := a.(error); ok {
			return err
		}
	}
	return nil
}
