package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/snaptab/snaptab/internal/storage"
)

const sidCookie = "sid"

// ServerStore keeps session state in a server-side storage.SessionStore;
// the browser only holds a random session id. Like CookieStore it is scoped
// to a single request/response pair.
type ServerStore struct {
	sessions storage.SessionStore
	req      *http.Request
	w        http.ResponseWriter
	secure   bool

	// A sid minted mid-request is visible to later reads within the same
	// request, even though the request's cookie header never changes.
	writtenSid string
}

var _ Store = (*ServerStore)(nil)

// NewServerStore builds a request-scoped store backed by sessions.
func NewServerStore(sessions storage.SessionStore, req *http.Request, w http.ResponseWriter, secure bool) *ServerStore {
	return &ServerStore{sessions: sessions, req: req, w: w, secure: secure}
}

func (s *ServerStore) Session(ctx context.Context) (*Session, error) {
	rec, err := s.record(ctx)
	if err != nil || rec == nil {
		return nil, err
	}

	expiresAt := time.UnixMilli(rec.ExpiresAt)
	if !time.Now().Before(expiresAt) {
		// Expired records stay on disk so RefreshToken can still recover,
		// mirroring how an expired session cookie decodes as absent.
		return nil, nil
	}

	return &Session{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *ServerStore) SetSession(ctx context.Context, sess Session) error {
	sid := s.sid()
	if sid == "" {
		sid = uuid.NewString()
	}
	// The id cookie lives as long as the refresh path: the record behind it
	// holds the refresh token well past access-token expiry.
	writeCookie(s.w, sidCookie, sid, refreshMaxAge, s.secure)
	s.writtenSid = sid

	return s.sessions.Put(ctx, &storage.SessionRecord{
		ID:           sid,
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    sess.ExpiresAt.UnixMilli(),
	})
}

func (s *ServerStore) RefreshToken(ctx context.Context) (string, error) {
	rec, err := s.record(ctx)
	if err != nil || rec == nil {
		return "", err
	}
	return rec.RefreshToken, nil
}

func (s *ServerStore) Clear(ctx context.Context) error {
	sid := s.sid()
	writeCookie(s.w, sidCookie, "", -time.Second, s.secure)
	s.writtenSid = ""
	if sid == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sid)
}

func (s *ServerStore) sid() string {
	if s.writtenSid != "" {
		return s.writtenSid
	}
	cookie, err := s.req.Cookie(sidCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *ServerStore) record(ctx context.Context) (*storage.SessionRecord, error) {
	sid := s.sid()
	if sid == "" {
		return nil, nil
	}
	return s.sessions.Get(ctx, sid)
}
