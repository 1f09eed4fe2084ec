package handler

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPool implements a minimal interface for testing health checks
type mockPool struct {
	pingErr error
}

func (m *mockPool) Ping(ctx context.Context) error {
	return m.pingErr
}

func checkHealth(t *testing.T, deps ...Dependency) (int, string) {
	t.Helper()
	app := fiber.New()
	handler := NewHealthHandler(deps...)
	app.Get("/health", handler.Check)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealthHandler_Check_Healthy(t *testing.T) {
	status, body := checkHealth(t,
		Dependency{Name: "database", Pinger: &mockPool{}},
		Dependency{Name: "catalog", Pinger: PingerFunc(func(ctx context.Context) error { return nil })},
	)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"status":"healthy"`)
}

func TestHealthHandler_Check_Unhealthy(t *testing.T) {
	status, body := checkHealth(t, Dependency{Name: "database", Pinger: &mockPool{pingErr: errors.New("connection refused")}})

	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Contains(t, body, `"status":"unhealthy"`)
	assert.Contains(t, body, `"error":"database connection failed"`)
}

func TestHealthHandler_Check_NamesFirstFailure(t *testing.T) {
	calledCache := false
	status, body := checkHealth(t,
		Dependency{Name: "database", Pinger: &mockPool{}},
		Dependency{Name: "catalog", Pinger: PingerFunc(func(ctx context.Context) error { return errors.New("no primary") })},
		Dependency{Name: "cache", Pinger: PingerFunc(func(ctx context.Context) error {
			calledCache = true
			return nil
		})},
	)

	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Contains(t, body, `"error":"catalog connection failed"`)
	assert.False(t, calledCache, "checks stop at the first failure")
}

func TestHealthHandler_Check_NoDependencies(t *testing.T) {
	status, _ := checkHealth(t)
	assert.Equal(t, fiber.StatusOK, status)
}
