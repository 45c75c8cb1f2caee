package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type routeHandler struct{}

func (routeHandler) Register(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/panic", func(echo.Context) error { panic("boom") })
}

func TestNewServerRegistersHandlers(t *testing.T) {
	srv := NewServer(nil, "", routeHandler{}, nil)
	assert.Equal(t, defaultAddr, srv.addr)

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServerRecoversPanics(t *testing.T) {
	srv := NewServer(nil, ":0", routeHandler{})
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStopWithoutStart(t *testing.T) {
	srv := NewServer(nil, ":0")
	assert.NoError(t, srv.Stop(context.Background()))
}
