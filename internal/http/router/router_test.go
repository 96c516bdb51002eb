package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "property_service_backend/internal/http"
	"property_service_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type pingModule struct{}

func (pingModule) Name() string { return "ping" }

func (pingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func serve(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthReflectsDatabase(t *testing.T) {
	ok := New(&apphttp.App{Logger: logger.Nop(), Health: pinger{}})
	require.Equal(t, http.StatusOK, serve(ok, "/api/health").Code)

	down := New(&apphttp.App{Logger: logger.Nop(), Health: pinger{err: errors.New("connection refused")}})
	rec := serve(down, "/api/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, `{"error":"database unavailable"}`, rec.Body.String())
}

func TestModulesAreMountedUnderV1(t *testing.T) {
	engine := New(&apphttp.App{Logger: logger.Nop(), Modules: []apphttp.Module{pingModule{}}})

	rec := serve(engine, "/api/v1/ping")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "pong", rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	engine := New(&apphttp.App{Logger: logger.Nop()})
	require.Equal(t, http.StatusOK, serve(engine, "/metrics").Code)
}
