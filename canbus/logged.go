// canbus/logged.go
package canbus

import (
	"context"
	"log/slog"
)

// loggedTransport is a Transport decorator that logs Recv/Send traffic
// through a slog.Logger.

// LogOption is a bitmask selecting which operations to log.
type LogOption uint8

const (
	LogNone LogOption = 0
	LogRead LogOption = 1 << iota
	LogWrite
	LogAll = LogRead | LogWrite
)

// NewLoggedTransport wraps inner and logs selected operations at the given
// level.
func NewLoggedTransport(inner Transport, logger *slog.Logger, level slog.Level, opts LogOption) Transport {
	return &loggedTransport{
		inner:  inner,
		logger: logger,
		level:  level,
		opts:   opts,
	}
}

type loggedTransport struct {
	inner  Transport
	logger *slog.Logger
	level  slog.Level
	opts   LogOption
}

func (l *loggedTransport) Recv() (*Message, error) {
	msg, err := l.inner.Recv()
	if l.opts&LogRead != 0 {
		if err != nil {
			l.logger.Log(context.Background(), slog.LevelError, "canbus recv error",
				"error", err,
			)
		} else {
			l.logger.Log(context.Background(), l.level, "canbus recv",
				"id", msg.ArbitrationID,
				"dlc", int(msg.EffectiveDLC()),
				"error_frame", msg.IsErrorFrame,
				"string", msg.String(),
			)
		}
	}
	return msg, err
}

func (l *loggedTransport) Send(msg *Message) error {
	if l.opts&LogWrite != 0 {
		l.logger.Log(context.Background(), l.level, "canbus send",
			"id", msg.ArbitrationID,
			"dlc", int(msg.EffectiveDLC()),
			"data", msg.Data,
		)
	}
	err := l.inner.Send(msg)
	if l.opts&LogWrite != 0 && err != nil {
		l.logger.Log(context.Background(), slog.LevelError, "canbus send error",
			"id", msg.ArbitrationID,
			"error", err,
		)
	}
	return err
}

// Close forwards to the inner Transport without logging.
func (l *loggedTransport) Close() error {
	return l.inner.Close()
}
