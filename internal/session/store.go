package session

import (
	"context"
	"net/http"
	"time"
)

const (
	sessionCookie = "session"
	refreshCookie = "refresh_token"

	sessionMaxAge = 7 * 24 * time.Hour
	refreshMaxAge = 30 * 24 * time.Hour
)

// Store abstracts where session state lives between requests. Persisted
// state is the source of truth: each request reads it fresh and rewrites it
// on refresh, so no in-process cache sits in front of it.
type Store interface {
	// Session returns the persisted session, or nil if it is missing,
	// corrupt, or no longer verifiable.
	Session(ctx context.Context) (*Session, error)

	// SetSession persists the session and, when the session carries a
	// refresh token, the separate fallback refresh-token record.
	SetSession(ctx context.Context, s Session) error

	// RefreshToken returns the fallback refresh token, or "" if absent.
	RefreshToken(ctx context.Context) (string, error)

	// Clear deletes all persisted session state. Idempotent.
	Clear(ctx context.Context) error
}

// CookieStore keeps all session state in the browser: the signed session
// blob in a short-lived cookie and the sealed refresh token in a
// longer-lived one. It is scoped to a single request/response pair.
type CookieStore struct {
	codec  *Codec
	req    *http.Request
	w      http.ResponseWriter
	secure bool

	// Writes are visible to later reads within the same request, even
	// though the request's cookie header never changes.
	written *Session
	cleared bool
}

var _ Store = (*CookieStore)(nil)

// NewCookieStore builds a request-scoped cookie store. secure controls the
// cookie Secure attribute and should be true in production.
func NewCookieStore(codec *Codec, req *http.Request, w http.ResponseWriter, secure bool) *CookieStore {
	return &CookieStore{codec: codec, req: req, w: w, secure: secure}
}

func (s *CookieStore) Session(ctx context.Context) (*Session, error) {
	if s.cleared {
		return nil, nil
	}
	if s.written != nil {
		sess := *s.written
		return &sess, nil
	}
	cookie, err := s.req.Cookie(sessionCookie)
	if err != nil {
		return nil, nil
	}
	return s.codec.Decode(cookie.Value), nil
}

func (s *CookieStore) SetSession(ctx context.Context, sess Session) error {
	blob, err := s.codec.Encode(sess)
	if err != nil {
		return err
	}
	s.setCookie(sessionCookie, blob, sessionMaxAge)

	if sess.RefreshToken != "" {
		sealed, err := s.codec.SealRefreshToken(sess.RefreshToken)
		if err != nil {
			return err
		}
		s.setCookie(refreshCookie, sealed, refreshMaxAge)
	}

	s.written = &sess
	s.cleared = false
	return nil
}

func (s *CookieStore) RefreshToken(ctx context.Context) (string, error) {
	if s.cleared {
		return "", nil
	}
	if s.written != nil && s.written.RefreshToken != "" {
		return s.written.RefreshToken, nil
	}
	cookie, err := s.req.Cookie(refreshCookie)
	if err != nil {
		return "", nil
	}
	token, ok := s.codec.OpenRefreshToken(cookie.Value)
	if !ok {
		return "", nil
	}
	return token, nil
}

func (s *CookieStore) Clear(ctx context.Context) error {
	s.setCookie(sessionCookie, "", -time.Second)
	s.setCookie(refreshCookie, "", -time.Second)
	s.written = nil
	s.cleared = true
	return nil
}

func (s *CookieStore) setCookie(name, value string, maxAge time.Duration) {
	writeCookie(s.w, name, value, maxAge, s.secure)
}

func writeCookie(w http.ResponseWriter, name, value string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
