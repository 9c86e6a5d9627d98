package notify

import (
	"context"
	"log/slog"
)

// Log writes notifications to a structured logger.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a notifier backed by logger.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Log{logger: logger}
}

// Notify implements Notifier.
func (l *Log) Notify(ctx context.Context, n Notification) {
	attrs := []slog.Attr{slog.String("kind", n.Level.String())}
	if n.Err != nil {
		attrs = append(attrs, slog.Any("error", n.Err))
	}

	l.logger.LogAttrs(ctx, slogLevel(n.Level), n.Message, attrs...)
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelWarning:
		return slog.LevelWarn
	case LevelDanger:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
