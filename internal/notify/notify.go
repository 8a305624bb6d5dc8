package notify

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Transport delivers plain text to a chat user or group.
type Transport interface {
	SendDirect(ctx context.Context, userID int64, text string) error
	SendGroup(ctx context.Context, groupID int64, text string) error
}

// Multi fans a message out to every transport; it fails if any of them does.
type Multi []Transport

func (m Multi) SendDirect(ctx context.Context, userID int64, text string) error {
	var err error
	for _, t := range m {
		if t == nil {
			continue
		}
		err = multierr.Append(err, t.SendDirect(ctx, userID, text))
	}
	return err
}

func (m Multi) SendGroup(ctx context.Context, groupID int64, text string) error {
	var err error
	for _, t := range m {
		if t == nil {
			continue
		}
		err = multierr.Append(err, t.SendGroup(ctx, groupID, text))
	}
	return err
}

// Log writes notices to the logger instead of a chat. Used when no bot
// endpoint is configured, and as a debug mirror next to one.
type Log struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{Logger: logger, Level: zap.NewAtomicLevelAt(zap.InfoLevel)}
}

func (l *Log) SendDirect(_ context.Context, userID int64, text string) error {
	if ce := l.Logger.Check(l.Level.Level(), "notice_direct"); ce != nil {
		ce.Write(zap.Int64("user_id", userID), zap.String("text", text))
	}
	return nil
}

func (l *Log) SendGroup(_ context.Context, groupID int64, text string) error {
	if ce := l.Logger.Check(l.Level.Level(), "notice_group"); ce != nil {
		ce.Write(zap.Int64("group_id", groupID), zap.String("text", text))
	}
	return nil
}
