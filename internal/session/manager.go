package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/snaptab/snaptab/internal/metrics"
)

const (
	// expiryBuffer is the pre-emptive refresh window: a token within five
	// minutes of expiry is refreshed rather than used.
	expiryBuffer = 5 * time.Minute

	// defaultExpiresIn applies when the backend omits expires_in.
	defaultExpiresIn = 3600
)

// TokenSet is the outcome of a successful login or refresh.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds
}

// Refresher exchanges a refresh token for a new token set. A nil TokenSet
// or an error both mean the refresh failed.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*TokenSet, error)
}

// RefresherFunc adapts a function to the Refresher interface.
type RefresherFunc func(ctx context.Context, refreshToken string) (*TokenSet, error)

func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	return f(ctx, refreshToken)
}

// Manager guarantees every outbound backend call carries a currently valid
// bearer token, refreshing transparently when one is missing or near
// expiry.
//
// A Manager holds no state of its own beyond its collaborators: persisted
// state is the source of truth, read and rewritten per call. Concurrent
// requests for the same user may each observe near-expiry and refresh
// independently; that race is accepted, the last write wins.
type Manager struct {
	store     Store
	refresher Refresher
	now       func() time.Time
}

// NewManager creates a Manager over the given persisted store and refresh
// capability.
func NewManager(store Store, refresher Refresher) *Manager {
	return &Manager{store: store, refresher: refresher, now: time.Now}
}

// GetAccessToken returns a valid access token or "". It never fails loudly:
// every refresh failure, network error included, degrades to "" so callers
// simply proceed unauthenticated and let the backend reject.
func (m *Manager) GetAccessToken(ctx context.Context) string {
	sess, err := m.store.Session(ctx)
	if err != nil {
		slog.Warn("failed to read session", "error", err)
	}
	if sess == nil {
		// No (or unreadable) session: the fallback refresh token is the
		// only way back in.
		token, err := m.store.RefreshToken(ctx)
		if err != nil || token == "" {
			return ""
		}
		return m.refresh(ctx, token)
	}

	if m.now().Before(sess.ExpiresAt.Add(-expiryBuffer)) {
		return sess.AccessToken
	}

	token := sess.RefreshToken
	if token == "" {
		token, _ = m.store.RefreshToken(ctx)
	}
	if token == "" {
		// Near expiry with no way to refresh.
		m.Clear(ctx)
		return ""
	}
	return m.refresh(ctx, token)
}

// ForceRefresh discards the current access token and refreshes
// unconditionally. The API client calls this after a 401 before its single
// retry.
func (m *Manager) ForceRefresh(ctx context.Context) string {
	token := ""
	if sess, _ := m.store.Session(ctx); sess != nil {
		token = sess.RefreshToken
	}
	if token == "" {
		token, _ = m.store.RefreshToken(ctx)
	}
	if token == "" {
		m.Clear(ctx)
		return ""
	}
	return m.refresh(ctx, token)
}

// CreateSession persists a fresh session after login.
func (m *Manager) CreateSession(ctx context.Context, accessToken, refreshToken string, expiresIn int64) error {
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	return m.store.SetSession(ctx, Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    m.now().Add(time.Duration(expiresIn) * time.Second),
	})
}

// Clear deletes all persisted session state. Idempotent.
func (m *Manager) Clear(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		slog.Warn("failed to clear session", "error", err)
	}
}

// Authenticated reports whether a usable access token exists. The UI never
// sees more than this signal.
func (m *Manager) Authenticated(ctx context.Context) bool {
	return m.GetAccessToken(ctx) != ""
}

// refresh performs exactly one refresh attempt. Success persists the new
// session (keeping the old refresh token when the backend doesn't rotate
// it); any failure clears all session state and returns "".
func (m *Manager) refresh(ctx context.Context, refreshToken string) string {
	set, err := m.refresher.Refresh(ctx, refreshToken)
	if err != nil || set == nil || set.AccessToken == "" {
		metrics.TokenRefreshes.WithLabelValues("failed").Inc()
		slog.Warn("token refresh failed", "error", err)
		m.Clear(ctx)
		return ""
	}
	metrics.TokenRefreshes.WithLabelValues("ok").Inc()

	newRefresh := set.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	expiresIn := set.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	sess := Session{
		AccessToken:  set.AccessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    m.now().Add(time.Duration(expiresIn) * time.Second),
	}
	if err := m.store.SetSession(ctx, sess); err != nil {
		slog.Error("failed to persist refreshed session", "error", err)
	}
	return set.AccessToken
}
