package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/snaptab/snaptab/internal/backend"
	"github.com/snaptab/snaptab/internal/middleware"
	"github.com/snaptab/snaptab/internal/session"
)

const testSecret = "test-secret-key-for-handlers-0001"

func newTestRouter(backendURL string) (*gin.Engine, *session.Codec) {
	gin.SetMode(gin.TestMode)

	client := backend.New(backendURL)
	codec := session.NewCodec(testSecret)
	factory := &middleware.SessionFactory{
		Codec: codec,
		Refresher: session.RefresherFunc(func(ctx context.Context, refreshToken string) (*session.TokenSet, error) {
			tokens, err := client.Refresh(ctx, refreshToken)
			if err != nil {
				return nil, err
			}
			return &session.TokenSet{
				AccessToken:  tokens.AccessToken,
				RefreshToken: tokens.RefreshToken,
				ExpiresIn:    tokens.ExpiresIn,
			}, nil
		}),
	}
	return NewRouter(client, factory), codec
}

func sessionCookie(t *testing.T, codec *session.Codec, accessToken string) *http.Cookie {
	t.Helper()
	blob, err := codec.Encode(session.Session{
		AccessToken: accessToken,
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to encode session: %v", err)
	}
	return &http.Cookie{Name: "session", Value: blob}
}

func TestLoginCreatesSession(t *testing.T) {
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("unexpected backend call: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(backend.TokenResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresIn:    3600,
		})
	}))
	defer backendSrv.Close()

	router, codec := newTestRouter(backendSrv.URL)

	body := strings.NewReader(`{"email":"ada@example.com","password":"hunter22"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var blob string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			blob = c.Value
		}
	}
	if blob == "" {
		t.Fatal("login response set no session cookie")
	}
	sess := codec.Decode(blob)
	if sess == nil || sess.AccessToken != "access-1" {
		t.Errorf("session cookie decodes to %+v, want access token access-1", sess)
	}
	if strings.Contains(rec.Body.String(), "access-1") {
		t.Error("access token leaked into the response body")
	}
}

func TestSessionProbe(t *testing.T) {
	router, codec := newTestRouter("http://backend.invalid")

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(sessionCookie(t, codec, "access-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"authenticated":true`) {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRequireSessionRejectsAnonymous(t *testing.T) {
	router, _ := newTestRouter("http://backend.invalid")

	req := httptest.NewRequest(http.MethodGet, "/receipts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("body = %s, want error envelope", rec.Body.String())
	}
}

func TestExpiredSessionRecoversThroughRefreshCookie(t *testing.T) {
	refreshes := 0
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshes++
			json.NewEncoder(w).Encode(backend.TokenResponse{
				AccessToken: "fresh",
				ExpiresIn:   3600,
			})
		case "/receipts":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode([]any{})
		default:
			t.Errorf("unexpected backend call: %s", r.URL.Path)
		}
	}))
	defer backendSrv.Close()

	router, codec := newTestRouter(backendSrv.URL)

	sealed, err := codec.SealRefreshToken("rt-1")
	if err != nil {
		t.Fatalf("SealRefreshToken() error = %v", err)
	}

	// No session cookie at all, only the long-lived refresh cookie.
	req := httptest.NewRequest(http.MethodGet, "/receipts", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: sealed})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if refreshes != 1 {
		t.Errorf("backend refreshes = %d, want exactly 1", refreshes)
	}

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" && codec.Decode(c.Value) != nil {
			found = true
		}
	}
	if !found {
		t.Error("no refreshed session cookie was persisted")
	}
}

func TestPreviewSplits(t *testing.T) {
	router, codec := newTestRouter("http://backend.invalid")

	payload := `{
		"id": 1,
		"currency": "USD",
		"tax": 2,
		"service_charge": 2,
		"total_amount": 24,
		"friends": [{"id": 1, "name": "Alice"}, {"id": 2, "name": "Bob"}],
		"items": [{
			"item_id": 10,
			"item_name": "Ramen",
			"quantity": 2,
			"unit_price": 10,
			"friends": [{"id": 1, "name": "Alice"}, {"id": 2, "name": "Bob"}]
		}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/splits/preview", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(sessionCookie(t, codec, "access-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var splits struct {
		Totals []struct {
			Total float64 `json:"total"`
		} `json:"totals"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &splits); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(splits.Totals) != 2 || splits.Totals[0].Total != 12 || splits.Totals[1].Total != 12 {
		t.Errorf("totals = %+v, want 12 each", splits.Totals)
	}
}

func TestPreviewSplitsRejectsBadItem(t *testing.T) {
	router, codec := newTestRouter("http://backend.invalid")

	payload := `{
		"id": 1,
		"friends": [{"id": 1, "name": "Alice"}],
		"items": [{"item_id": 7, "item_name": "Broken", "quantity": 1, "unit_price": -5}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/splits/preview", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(sessionCookie(t, codec, "access-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "item 7") {
		t.Errorf("body = %s, want it to name the offending item", rec.Body.String())
	}
}

func TestUpstreamErrorEnvelope(t *testing.T) {
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"detail": "backend maintenance"})
	}))
	defer backendSrv.Close()

	router, codec := newTestRouter(backendSrv.URL)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(sessionCookie(t, codec, "access-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"success":false`) || !strings.Contains(body, "backend maintenance") {
		t.Errorf("body = %s, want error envelope with backend detail", body)
	}
}
