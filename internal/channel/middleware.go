package channel

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/kazuma11121125/rt-bot/internal/logger"
)

// RecoverMiddleware turns a panic in processing into an error so the worker survives.
func RecoverMiddleware() Middleware {
	return func(next InboundHandler) InboundHandler {
		return func(ctx context.Context, cfg Config, msg InboundMessage) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.FromContext(ctx).Error("inbound handler panic", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
					err = fmt.Errorf("inbound handler panic: %v", r)
				}
			}()
			return next(ctx, cfg, msg)
		}
	}
}

// TimingMiddleware logs the processing latency of every event at debug level.
func TimingMiddleware() Middleware {
	return func(next InboundHandler) InboundHandler {
		return func(ctx context.Context, cfg Config, msg InboundMessage) error {
			start := time.Now()
			err := next(ctx, cfg, msg)
			logger.FromContext(ctx).Debug("inbound handled",
				slog.Duration("elapsed", time.Since(start)),
				slog.Duration("queued", start.Sub(msg.ReceivedAt)),
			)
			return err
		}
	}
}
