// Package logging adapts go-logger to the Logger contract used by commands
// and the service runtime.
package logging

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-workspaces/pkg/types"
)

// Options configures the root logger built by New.
type Options struct {
	Name    string
	Pretty  bool
	Verbose bool
}

// New builds a go-logger root logger with rich error attributes enabled.
// Verbose lowers the level to trace.
func New(opts Options) *glog.BaseLogger {
	name := opts.Name
	if name == "" {
		name = "workspaces"
	}
	if opts.Pretty && opts.Verbose {
		return glog.NewLogger(
			glog.WithLoggerTypePretty(),
			glog.WithLevel(glog.Trace),
			glog.WithName(name),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(errors.ToSlogAttributes),
		)
	}
	if opts.Pretty {
		return glog.NewLogger(
			glog.WithLoggerTypePretty(),
			glog.WithName(name),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(errors.ToSlogAttributes),
		)
	}
	if opts.Verbose {
		return glog.NewLogger(
			glog.WithLevel(glog.Trace),
			glog.WithName(name),
			glog.WithAddSource(true),
			glog.WithRichErrorHandler(errors.ToSlogAttributes),
		)
	}
	return glog.NewLogger(
		glog.WithName(name),
		glog.WithAddSource(true),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
}

// Adapter adapts glog.Logger to types.Logger.
type Adapter struct {
	l glog.Logger
}

var _ types.Logger = (*Adapter)(nil)

// Wrap returns an adapter around l. A nil logger yields types.NopLogger.
func Wrap(l glog.Logger) types.Logger {
	if l == nil {
		return types.NopLogger{}
	}
	return &Adapter{l: l}
}

// Named returns a child logger of root wrapped as types.Logger.
func Named(root *glog.BaseLogger, name string) types.Logger {
	if root == nil {
		return types.NopLogger{}
	}
	return Wrap(root.GetLogger(name))
}

func (a *Adapter) Debug(msg string, args ...any) {
	a.l.Debug(msg, args...)
}

func (a *Adapter) Info(msg string, args ...any) {
	a.l.Info(msg, args...)
}

func (a *Adapter) Warn(msg string, args ...any) {
	a.l.Warn(msg, args...)
}

func (a *Adapter) Error(msg string, err error, args ...any) {
	if err != nil {
		args = append([]any{"error", err}, args...)
	}
	a.l.Error(msg, args...)
}
