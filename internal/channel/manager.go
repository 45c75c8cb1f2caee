package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

const (
	DefaultInboundWorkers   = 4
	DefaultInboundQueueSize = 256
)

// Middleware wraps inbound processing.
type Middleware func(next InboundHandler) InboundHandler

// Options sizes the inbound worker pool.
type Options struct {
	InboundWorkers   int
	InboundQueueSize int
}

type Manager struct {
	processor   InboundProcessor
	logger      *slog.Logger
	middlewares []Middleware

	inboundQueue   chan inboundTask
	inboundWorkers int
	inboundOnce    sync.Once
	inboundCtx     context.Context
	inboundCancel  context.CancelFunc
	inboundWG      sync.WaitGroup

	adapterMu   sync.RWMutex
	adapters    map[string]registeredAdapter
	mu          sync.Mutex
	connections map[string]*connectionEntry
}

type registeredAdapter struct {
	config  Config
	adapter Adapter
}

type connectionEntry struct {
	config     Config
	connection Connection
}

func NewManager(log *slog.Logger, processor InboundProcessor, opts Options) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if opts.InboundWorkers <= 0 {
		opts.InboundWorkers = DefaultInboundWorkers
	}
	if opts.InboundQueueSize <= 0 {
		opts.InboundQueueSize = DefaultInboundQueueSize
	}
	return &Manager{
		processor:      processor,
		logger:         log.With(slog.String("component", "channel")),
		middlewares:    []Middleware{},
		inboundQueue:   make(chan inboundTask, opts.InboundQueueSize),
		inboundWorkers: opts.InboundWorkers,
		adapters:       map[string]registeredAdapter{},
		connections:    map[string]*connectionEntry{},
	}
}

// Use registers middlewares around inbound processing. Call before Start.
func (m *Manager) Use(mw ...Middleware) {
	m.middlewares = append(m.middlewares, mw...)
}

// RegisterAdapter registers an adapter under cfg. Receivers are connected on Start.
func (m *Manager) RegisterAdapter(cfg Config, adapter Adapter) {
	if adapter == nil {
		return
	}
	if strings.TrimSpace(cfg.ID) == "" {
		cfg.ID = adapter.Type().String()
	}
	if cfg.Type == "" {
		cfg.Type = adapter.Type()
	}
	cfg.Type = normalizeChannelType(cfg.Type.String())
	m.adapterMu.Lock()
	m.adapters[cfg.ID] = registeredAdapter{config: cfg, adapter: adapter}
	m.adapterMu.Unlock()
	m.logger.Info("adapter registered", slog.String("channel", cfg.Type.String()), slog.String("config_id", cfg.ID))
}

// Start launches the worker pool and connects every registered receiver.
func (m *Manager) Start(ctx context.Context) error {
	m.logger.Info("manager start")
	m.startInboundWorkers(ctx)

	m.adapterMu.RLock()
	items := make([]registeredAdapter, 0, len(m.adapters))
	for _, item := range m.adapters {
		items = append(items, item)
	}
	m.adapterMu.RUnlock()

	var errs []error
	for _, item := range items {
		if err := m.ensureConnection(ctx, item); err != nil {
			m.logger.Error("adapter start failed", slog.String("channel", item.config.Type.String()), slog.String("config_id", item.config.ID), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("connect %s: %w", item.config.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) ensureConnection(ctx context.Context, item registeredAdapter) error {
	receiver, ok := item.adapter.(Receiver)
	if !ok {
		return nil
	}
	m.mu.Lock()
	if existing, ok := m.connections[item.config.ID]; ok && existing != nil {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	m.logger.Info("adapter start", slog.String("channel", item.config.Type.String()), slog.String("config_id", item.config.ID))
	conn, err := receiver.Connect(ctx, item.config, m.HandleInbound)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.connections[item.config.ID] = &connectionEntry{config: item.config, connection: conn}
	m.mu.Unlock()
	return nil
}

// Connections returns the number of running connections.
func (m *Manager) Connections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, entry := range m.connections {
		if entry != nil && entry.connection != nil && entry.connection.Running() {
			n++
		}
	}
	return n
}

func (m *Manager) stopAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, entry := range m.connections {
		if entry != nil && entry.connection != nil {
			m.logger.Info("adapter stop", slog.String("channel", entry.config.Type.String()), slog.String("config_id", id))
			if err := entry.connection.Stop(ctx); err != nil && !errors.Is(err, ErrStopNotSupported) {
				m.logger.Warn("adapter stop failed", slog.String("config_id", id), slog.Any("error", err))
			}
		}
		delete(m.connections, id)
	}
}

// Shutdown stops receivers first, then the workers. Queued tasks still being
// processed are waited for until ctx is done.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.stopAll(ctx)
	if m.inboundCancel != nil {
		m.inboundCancel()
	}
	done := make(chan struct{})
	go func() {
		m.inboundWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Info("manager stop")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
