package channel

import "context"

// InboundProcessor handles one dequeued inbound message.
type InboundProcessor interface {
	HandleInbound(ctx context.Context, cfg Config, msg InboundMessage) error
}

// InboundProcessorFunc adapts a function to InboundProcessor.
type InboundProcessorFunc func(ctx context.Context, cfg Config, msg InboundMessage) error

func (f InboundProcessorFunc) HandleInbound(ctx context.Context, cfg Config, msg InboundMessage) error {
	return f(ctx, cfg, msg)
}
