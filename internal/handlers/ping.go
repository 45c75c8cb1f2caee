package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kazuma11121125/rt-bot/internal/version"
)

// ConnectionCounter reports how many gateway connections are running.
type ConnectionCounter interface {
	Connections() int
}

// PingHandler serves /ping, HEAD /health and /version.
type PingHandler struct {
	logger      *slog.Logger
	connections ConnectionCounter
}

// NewPingHandler creates a ping handler; connections may be nil.
func NewPingHandler(log *slog.Logger, connections ConnectionCounter) *PingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PingHandler{
		logger:      log.With(slog.String("handler", "ping")),
		connections: connections,
	}
}

// Register mounts GET /ping, HEAD /health and GET /version on the Echo instance.
func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.HEAD("/health", h.PingHead)
	e.GET("/version", h.Version)
}

// Ping returns 200 JSON {"status":"ok","connections":n}.
func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": h.connectionCount(),
	})
}

// PingHead returns 200 while a gateway connection runs, 503 otherwise.
func (h *PingHandler) PingHead(c echo.Context) error {
	if h.connections != nil && h.connections.Connections() == 0 {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}

// Version returns the build info.
func (h *PingHandler) Version(c echo.Context) error {
	info := version.Get()
	return c.JSON(http.StatusOK, VersionResponse{
		Version:   info.Version,
		Commit:    info.Commit,
		BuildTime: info.BuildTime,
		Info:      info.String(),
	})
}

func (h *PingHandler) connectionCount() int {
	if h.connections == nil {
		return 0
	}
	return h.connections.Connections()
}
