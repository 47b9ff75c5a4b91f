package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snaptab/snaptab/internal/session"
	"github.com/snaptab/snaptab/internal/storage"
)

// managerKey is the gin context key holding the request's session manager.
const managerKey = "snaptab.session"

// SessionFactory builds a request-scoped session manager. Session state is
// read fresh from persisted storage on every request; the factory only
// carries the process-wide collaborators.
type SessionFactory struct {
	Codec     *session.Codec
	Refresher session.Refresher
	Secure    bool

	// Sessions selects the server-side store; nil keeps all state in
	// cookies.
	Sessions storage.SessionStore
}

// Manager returns the session manager for this request, creating it on
// first use.
func (f *SessionFactory) Manager(c *gin.Context) *session.Manager {
	if m, ok := c.Get(managerKey); ok {
		return m.(*session.Manager)
	}

	var store session.Store
	if f.Sessions != nil {
		store = session.NewServerStore(f.Sessions, c.Request, c.Writer, f.Secure)
	} else {
		store = session.NewCookieStore(f.Codec, c.Request, c.Writer, f.Secure)
	}

	m := session.NewManager(store, f.Refresher)
	c.Set(managerKey, m)
	return m
}

// RequireSession rejects requests that cannot produce an access token. The
// token itself stays inside the manager; handlers pass the manager to the
// backend client as a token source.
func RequireSession(f *SessionFactory) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := f.Manager(c)
		if m.GetAccessToken(c.Request.Context()) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "authentication required",
			})
			return
		}
		c.Next()
	}
}
