package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/avolkovs/focuskeeper/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ServerEndpointURL = serverURL
	cfg.DatabasePath = filepath.Join(t.TempDir(), "app.db")
	cfg.OnlineCheckInterval = 10 * time.Millisecond
	cfg.ProbeTimeout = 100 * time.Millisecond
	return cfg
}

func TestNewApp_WiresServices(t *testing.T) {
	a, err := NewApp(context.Background(), testConfig(t, "http://127.0.0.1:1"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.db.Close() })

	assert.NotNil(t, a.Profiles)
	assert.NotNil(t, a.Friends)
	assert.NotNil(t, a.Timer)
	assert.NotNil(t, a.Version)
	assert.False(t, a.Online(), "a fresh client starts offline")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	a, err := NewApp(context.Background(), testConfig(t, srv.URL), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	// The startup probe against a healthy server flips the client online.
	require.Eventually(t, a.Online, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
