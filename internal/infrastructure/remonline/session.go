package remonline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/remflow/stockhistory-api/pkg/config"
	"github.com/remflow/stockhistory-api/pkg/logger"
)

// SessionStore holds the cookie string the source API authenticates with.
// The cookie comes from an external login service that trades credentials for
// a session. This is the only process-wide shared state: refreshes run under
// singleflight so concurrent 401 handlers share one login instead of
// hammering the service.
type SessionStore struct {
	loginURL string
	username string
	password string
	ttl      time.Duration

	httpClient *http.Client
	log        *logger.Logger

	group singleflight.Group

	mu        sync.Mutex
	cookies   string
	fetchedAt time.Time
}

// loginResponse is the login service wire shape.
type loginResponse struct {
	Success bool   `json:"success"`
	Cookies string `json:"cookies"`
	Cached  bool   `json:"cached"`
	Error   string `json:"error"`
}

// NewSessionStore constructs the store. Nothing is fetched until first use.
func NewSessionStore(cfg config.SourceConfig, log *logger.Logger) *SessionStore {
	return &SessionStore{
		loginURL: cfg.LoginServiceURL,
		username: cfg.Username,
		password: cfg.Password,
		ttl:      time.Duration(cfg.SessionTTLMin) * time.Minute,
		httpClient: &http.Client{
			// The login service drives a real browser login upstream; allow for it.
			Timeout: 45 * time.Second,
		},
		log: log,
	}
}

// Cookies returns the cached cookie string, refreshing it when stale.
func (s *SessionStore) Cookies(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.cookies != "" && time.Since(s.fetchedAt) < s.ttl {
		c := s.cookies
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	return s.refresh(ctx)
}

// Refresh discards the cached session and obtains a fresh one. Used by the
// pager after the source rejects the current session.
func (s *SessionStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.cookies = ""
	s.mu.Unlock()

	_, err := s.refresh(ctx)
	return err
}

// refresh performs the login under singleflight: concurrent callers wait for
// the in-flight login rather than starting their own.
func (s *SessionStore) refresh(ctx context.Context) (string, error) {
	v, err, shared := s.group.Do("login", func() (interface{}, error) {
		return s.login(ctx)
	})
	if err != nil {
		return "", err
	}
	if shared {
		s.log.Debug().Msg("session refresh shared with a concurrent caller")
	}
	return v.(string), nil
}

func (s *SessionStore) login(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": s.username,
		"password": s.password,
	})
	if err != nil {
		return "", fmt.Errorf("session: serialize login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.loginURL+"/get-cookies", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("session: create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("session: login service call: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return "", fmt.Errorf("session: read login response: %w", err)
	}

	var lr loginResponse
	if err := json.Unmarshal(rawBody, &lr); err != nil {
		return "", fmt.Errorf("session: decode login response (HTTP %d): %w", resp.StatusCode, err)
	}
	if !lr.Success || lr.Cookies == "" {
		if lr.Error == "" {
			lr.Error = "no cookies returned"
		}
		return "", fmt.Errorf("session: login service error: %s", lr.Error)
	}

	s.mu.Lock()
	s.cookies = lr.Cookies
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	s.log.Info().Bool("cached_upstream", lr.Cached).Msg("source session obtained")
	return lr.Cookies, nil
}
