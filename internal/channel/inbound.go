package channel

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kazuma11121125/rt-bot/internal/logger"
)

var (
	ErrQueueFull         = errors.New("inbound queue full")
	ErrDispatcherStopped = errors.New("inbound dispatcher stopped")
)

type inboundTask struct {
	ctx context.Context
	cfg Config
	msg InboundMessage
}

// HandleInbound enqueues an inbound message for asynchronous processing by the worker pool.
// The task context is detached from ctx cancellation: dispatched work runs to completion.
func (m *Manager) HandleInbound(ctx context.Context, cfg Config, msg InboundMessage) error {
	if m.processor == nil {
		return errors.New("inbound processor not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	m.startInboundWorkers(ctx)
	if m.inboundCtx != nil && m.inboundCtx.Err() != nil {
		return ErrDispatcherStopped
	}
	if msg.EventID == "" {
		msg.EventID = uuid.NewString()
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}
	if msg.Channel == "" {
		msg.Channel = cfg.Type
	}
	task := inboundTask{
		ctx: context.WithoutCancel(ctx),
		cfg: cfg,
		msg: msg,
	}
	select {
	case m.inboundQueue <- task:
		return nil
	default:
		m.logger.Warn("inbound queue full", slog.String("event_id", msg.EventID))
		return ErrQueueFull
	}
}

func (m *Manager) handleInbound(ctx context.Context, cfg Config, msg InboundMessage) error {
	if m.processor == nil {
		return errors.New("inbound processor not configured")
	}
	ctx = logger.WithEvent(ctx, m.logger, msg.EventID, msg.Message.GuildID, msg.Message.ChannelID)
	handler := InboundHandler(m.processor.HandleInbound)
	for i := len(m.middlewares) - 1; i >= 0; i-- {
		handler = m.middlewares[i](handler)
	}
	return handler(ctx, cfg, msg)
}

func (m *Manager) startInboundWorkers(ctx context.Context) {
	m.inboundOnce.Do(func() {
		workerCtx := ctx
		if workerCtx == nil {
			workerCtx = context.Background()
		}
		m.inboundCtx, m.inboundCancel = context.WithCancel(context.WithoutCancel(workerCtx))
		for i := 0; i < m.inboundWorkers; i++ {
			m.inboundWG.Add(1)
			go m.runInboundWorker(m.inboundCtx)
		}
	})
}

func (m *Manager) runInboundWorker(ctx context.Context) {
	defer m.inboundWG.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-m.inboundQueue:
			if err := m.handleInbound(task.ctx, task.cfg, task.msg); err != nil {
				m.logger.Error("inbound processing failed",
					slog.String("channel", task.msg.Channel.String()),
					slog.String("event_id", task.msg.EventID),
					slog.Any("error", err))
			}
		}
	}
}
