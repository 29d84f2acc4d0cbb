package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/api/middleware"
	"github.com/phrazzld/hifz/internal/config"
	"github.com/phrazzld/hifz/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 0, LogLevel: "debug"},
		Store:  config.StoreConfig{Driver: config.DriverMemory},
		Engine: config.EngineConfig{Timezone: "UTC"},
		Reminders: config.ReminderConfig{
			Enabled:     true,
			Interval:    time.Hour,
			Concurrency: 2,
		},
	}
}

func newTestApplication(t *testing.T, cfg *config.Config) *application {
	t.Helper()
	log, _ := logger.GetTestLogger(t)
	app, err := newApplication(context.Background(), cfg, log)
	require.NoError(t, err)
	return app
}

func TestNewApplication(t *testing.T) {
	app := newTestApplication(t, testConfig())
	t.Cleanup(app.cleanup)

	assert.NotNil(t, app.store)
	assert.NotNil(t, app.memorizationService)
	assert.NotNil(t, app.reminders)
}

func TestNewApplicationRejectsBadEngineConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.Timezone = "Mars/Olympus"
	log, _ := logger.GetTestLogger(t)

	_, err := newApplication(context.Background(), cfg, log)
	assert.ErrorContains(t, err, "invalid engine configuration")
}

func TestRouter(t *testing.T) {
	cfg := testConfig()
	cfg.Reminders.Enabled = false
	app := newTestApplication(t, cfg)
	t.Cleanup(app.cleanup)

	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
	assert.Len(t, resp.Header.Get(middleware.TraceHeader), 32)

	userID := uuid.New()
	resp, err = http.Post(
		fmt.Sprintf("%s/api/users/%s/subjects/1/practice", srv.URL, userID),
		"application/json",
		bytes.NewBufferString(`{"accuracy": 95}`),
	)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	metrics, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(metrics), `hifz_practice_sessions_total{band="excellent",status="learning"} 1`)
	assert.Contains(t, string(metrics), "go_goroutines")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := testConfig()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	cfg.Server.Port = l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	app := newTestApplication(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}
