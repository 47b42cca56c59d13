package hooking

import (
	"github.com/sirupsen/logrus"
)

// LogHook writes every hook invocation to a logger.
type LogHook struct {
	logger logrus.FieldLogger
	level  logrus.Level
}

// NewLogHook creates a LogHook that logs at debug level.
func NewLogHook(logger logrus.FieldLogger) *LogHook {
	return &LogHook{
		logger: logger,
		level:  logrus.DebugLevel,
	}
}

// WithLevel sets the level that the hook logs at.
func (h *LogHook) WithLevel(level logrus.Level) *LogHook {
	h.level = level
	return h
}

// Func logs the hook position and the detail of the invocation.
func (h *LogHook) Func(ctx HookCtx) {
	pos := "unknown"
	if ctx.Pos != nil {
		pos = ctx.Pos.Name
	}

	entry := h.logger.WithField("pos", pos)

	if f, ok := ctx.Detail.(logrus.Fields); ok {
		entry = entry.WithFields(f)
	} else if ctx.Detail != nil {
		entry = entry.WithField("detail", ctx.Detail)
	}

	switch h.level {
	case logrus.TraceLevel:
		entry.Trace("hook")
	case logrus.DebugLevel:
		entry.Debug("hook")
	case logrus.WarnLevel:
		entry.Warn("hook")
	default:
		entry.Info("hook")
	}
}
