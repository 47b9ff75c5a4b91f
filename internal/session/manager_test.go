package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeStore is an in-memory Store for manager tests.
type fakeStore struct {
	sess         *Session
	refreshToken string
	clears       int
}

func (s *fakeStore) Session(ctx context.Context) (*Session, error) {
	if s.sess == nil {
		return nil, nil
	}
	out := *s.sess
	return &out, nil
}

func (s *fakeStore) SetSession(ctx context.Context, sess Session) error {
	s.sess = &sess
	if sess.RefreshToken != "" {
		s.refreshToken = sess.RefreshToken
	}
	return nil
}

func (s *fakeStore) RefreshToken(ctx context.Context) (string, error) {
	return s.refreshToken, nil
}

func (s *fakeStore) Clear(ctx context.Context) error {
	s.sess = nil
	s.refreshToken = ""
	s.clears++
	return nil
}

// fakeRefresher counts calls and replays a canned result.
type fakeRefresher struct {
	calls  int
	lastRT string
	set    *TokenSet
	err    error
}

func (r *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	r.calls++
	r.lastRT = refreshToken
	return r.set, r.err
}

func TestGetAccessTokenFresh(t *testing.T) {
	store := &fakeStore{sess: &Session{
		AccessToken:  "current",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(time.Hour),
	}}
	refresher := &fakeRefresher{}
	m := NewManager(store, refresher)

	if got := m.GetAccessToken(context.Background()); got != "current" {
		t.Errorf("GetAccessToken() = %q, want %q", got, "current")
	}
	if refresher.calls != 0 {
		t.Errorf("refresh calls = %d, want 0", refresher.calls)
	}
}

func TestGetAccessTokenNearExpiryRefreshesOnce(t *testing.T) {
	store := &fakeStore{sess: &Session{
		AccessToken:  "stale",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(2 * time.Minute), // inside the 5 minute buffer
	}}
	refresher := &fakeRefresher{set: &TokenSet{
		AccessToken:  "fresh",
		RefreshToken: "rt-2",
		ExpiresIn:    3600,
	}}
	m := NewManager(store, refresher)

	if got := m.GetAccessToken(context.Background()); got != "fresh" {
		t.Errorf("GetAccessToken() = %q, want %q", got, "fresh")
	}
	if refresher.calls != 1 {
		t.Fatalf("refresh calls = %d, want 1", refresher.calls)
	}
	if refresher.lastRT != "rt-1" {
		t.Errorf("refreshed with %q, want %q", refresher.lastRT, "rt-1")
	}
	if store.sess == nil || store.sess.AccessToken != "fresh" || store.sess.RefreshToken != "rt-2" {
		t.Errorf("persisted session = %+v, want fresh token set", store.sess)
	}

	// A second immediate call reuses the persisted token.
	if got := m.GetAccessToken(context.Background()); got != "fresh" {
		t.Errorf("second GetAccessToken() = %q, want %q", got, "fresh")
	}
	if refresher.calls != 1 {
		t.Errorf("refresh calls after second read = %d, want 1", refresher.calls)
	}
}

func TestGetAccessTokenPastExpiry(t *testing.T) {
	store := &fakeStore{sess: &Session{
		AccessToken:  "dead",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}}
	refresher := &fakeRefresher{set: &TokenSet{AccessToken: "fresh", ExpiresIn: 3600}}
	m := NewManager(store, refresher)

	if got := m.GetAccessToken(context.Background()); got != "fresh" {
		t.Errorf("GetAccessToken() = %q, want %q", got, "fresh")
	}
	if refresher.calls != 1 {
		t.Errorf("refresh calls = %d, want 1", refresher.calls)
	}
	// Backend did not rotate the refresh token: the old one is kept.
	if store.sess.RefreshToken != "rt-1" {
		t.Errorf("persisted refresh token = %q, want the original %q", store.sess.RefreshToken, "rt-1")
	}
}

func TestGetAccessTokenRefreshRejected(t *testing.T) {
	store := &fakeStore{sess: &Session{
		AccessToken:  "stale",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(time.Minute),
	}}
	refresher := &fakeRefresher{err: errors.New("401 unauthorized")}
	m := NewManager(store, refresher)

	if got := m.GetAccessToken(context.Background()); got != "" {
		t.Errorf("GetAccessToken() = %q, want empty", got)
	}
	if store.sess != nil || store.refreshToken != "" {
		t.Error("session state not cleared after rejected refresh")
	}
}

func TestGetAccessTokenNoSessionFallsBackToRefreshCookie(t *testing.T) {
	store := &fakeStore{refreshToken: "fallback-rt"}
	refresher := &fakeRefresher{set: &TokenSet{AccessToken: "fresh", ExpiresIn: 3600}}
	m := NewManager(store, refresher)

	if got := m.GetAccessToken(context.Background()); got != "fresh" {
		t.Errorf("GetAccessToken() = %q, want %q", got, "fresh")
	}
	if refresher.lastRT != "fallback-rt" {
		t.Errorf("refreshed with %q, want the fallback token", refresher.lastRT)
	}
}

func TestGetAccessTokenNothingPersisted(t *testing.T) {
	store := &fakeStore{}
	refresher := &fakeRefresher{}
	m := NewManager(store, refresher)

	if got := m.GetAccessToken(context.Background()); got != "" {
		t.Errorf("GetAccessToken() = %q, want empty", got)
	}
	if refresher.calls != 0 {
		t.Errorf("refresh calls = %d, want 0", refresher.calls)
	}
}

func TestForceRefreshBypassesBuffer(t *testing.T) {
	store := &fakeStore{sess: &Session{
		AccessToken:  "current",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(time.Hour), // nowhere near expiry
	}}
	refresher := &fakeRefresher{set: &TokenSet{AccessToken: "fresh", ExpiresIn: 3600}}
	m := NewManager(store, refresher)

	if got := m.ForceRefresh(context.Background()); got != "fresh" {
		t.Errorf("ForceRefresh() = %q, want %q", got, "fresh")
	}
	if refresher.calls != 1 {
		t.Errorf("refresh calls = %d, want 1", refresher.calls)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	store := &fakeStore{sess: &Session{AccessToken: "x", ExpiresAt: time.Now().Add(time.Hour)}}
	m := NewManager(store, &fakeRefresher{})

	m.Clear(context.Background())
	m.Clear(context.Background())
	if store.clears != 2 {
		t.Errorf("clears = %d, want 2", store.clears)
	}
	if m.Authenticated(context.Background()) {
		t.Error("Authenticated() = true after Clear")
	}
}

func TestCreateSessionDefaultsExpiry(t *testing.T) {
	store := &fakeStore{}
	m := NewManager(store, &fakeRefresher{})

	if err := m.CreateSession(context.Background(), "access", "refresh", 0); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if store.sess == nil {
		t.Fatal("no session persisted")
	}
	until := time.Until(store.sess.ExpiresAt)
	if until < 55*time.Minute || until > 65*time.Minute {
		t.Errorf("default expiry %v from now, want about an hour", until)
	}
}
