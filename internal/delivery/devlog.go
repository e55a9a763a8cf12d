package delivery

import (
	"context"
	"log/slog"
)

// LogChannel is a development stand-in that "delivers" by logging the target.
// The message body (which contains the code) is never logged.
type LogChannel struct {
	kind   Kind
	logger *slog.Logger
}

func NewLogChannel(kind Kind, logger *slog.Logger) *LogChannel {
	return &LogChannel{kind: kind, logger: logger}
}

func (c *LogChannel) Kind() Kind { return c.kind }

func (c *LogChannel) Send(ctx context.Context, target string, msg Message) error {
	c.logger.InfoContext(ctx, "dev delivery",
		"channel", c.kind.String(),
		"target", target,
		"subject", msg.Subject,
	)
	return nil
}
