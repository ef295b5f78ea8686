package remonline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remflow/stockhistory-api/pkg/config"
	"github.com/remflow/stockhistory-api/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// loginService fakes the external cookie broker.
func loginService(t *testing.T, logins *int64, respond func() loginResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/get-cookies", r.URL.Path)

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "worker@remflow.test", creds["username"])

		atomic.AddInt64(logins, 1)
		_ = json.NewEncoder(w).Encode(respond())
	}))
}

func newTestStore(url string) *SessionStore {
	return NewSessionStore(config.SourceConfig{
		LoginServiceURL: url,
		Username:        "worker@remflow.test",
		Password:        "secret",
		SessionTTLMin:   25,
	}, testLogger())
}

func TestSessionStore_CachesWithinTTL(t *testing.T) {
	var logins int64
	srv := loginService(t, &logins, func() loginResponse {
		return loginResponse{Success: true, Cookies: "sid=abc"}
	})
	defer srv.Close()

	store := newTestStore(srv.URL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c, err := store.Cookies(ctx)
		require.NoError(t, err)
		assert.Equal(t, "sid=abc", c)
	}
	assert.EqualValues(t, 1, logins, "repeat calls within the TTL reuse the cached session")
}

func TestSessionStore_RefreshForcesNewLogin(t *testing.T) {
	var logins int64
	srv := loginService(t, &logins, func() loginResponse {
		return loginResponse{Success: true, Cookies: "sid=abc"}
	})
	defer srv.Close()

	store := newTestStore(srv.URL)
	ctx := context.Background()

	_, err := store.Cookies(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Refresh(ctx))

	assert.EqualValues(t, 2, logins, "an explicit refresh discards the cached session")
}

func TestSessionStore_LoginServiceErrorSurfaces(t *testing.T) {
	var logins int64
	srv := loginService(t, &logins, func() loginResponse {
		return loginResponse{Success: false, Error: "bad credentials"}
	})
	defer srv.Close()

	store := newTestStore(srv.URL)

	_, err := store.Cookies(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad credentials")
}

// Concurrent first-time callers share one login instead of stampeding the
// service.
func TestSessionStore_ConcurrentCallersShareOneLogin(t *testing.T) {
	var logins int64
	srv := loginService(t, &logins, func() loginResponse {
		time.Sleep(50 * time.Millisecond) // let the callers pile up on the in-flight login
		return loginResponse{Success: true, Cookies: "sid=abc"}
	})
	defer srv.Close()

	store := newTestStore(srv.URL)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := store.Cookies(ctx)
			assert.NoError(t, err)
			assert.Equal(t, "sid=abc", c)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, logins, int64(2), "singleflight collapses the stampede")
}
