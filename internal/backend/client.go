// Package backend is the typed client for the SnapTab backend API, which
// owns authentication, receipt OCR, and canonical split computation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/snaptab/snaptab/internal/metrics"
	"github.com/snaptab/snaptab/internal/models"
)

// TokenSource supplies bearer tokens for authenticated calls. An empty
// token means "proceed unauthenticated" and let the backend reject.
type TokenSource interface {
	GetAccessToken(ctx context.Context) string

	// ForceRefresh invalidates the current token and obtains a new one.
	// The client calls it once after a 401 before its single retry.
	ForceRefresh(ctx context.Context) string
}

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Detail     string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
}

// TokenResponse mirrors the backend token payload returned by login and
// refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
}

// AddFriendsRequest assigns friends to one item.
type AddFriendsRequest struct {
	ItemID    int64   `json:"item_id"`
	FriendIDs []int64 `json:"friend_ids"`
}

// AddFriendsResult is the per-item outcome of an assignment.
type AddFriendsResult struct {
	Success bool   `json:"success"`
	ItemID  int64  `json:"item_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client talks to the backend API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Login exchanges credentials for a token set. The backend expects
// form-encoded username/password.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
	}

	var out TokenResponse
	err := c.do(ctx, nil, "login", http.MethodPost, "/auth/login",
		"application/x-www-form-urlencoded", []byte(form.Encode()), &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a new backend account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode register request: %w", err)
	}
	return c.do(ctx, nil, "register", http.MethodPost, "/auth/register",
		"application/json", body, nil)
}

// Refresh exchanges a refresh token for a new token set. Any non-2xx
// status is a refresh failure.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	var out TokenResponse
	err = c.do(ctx, nil, "refresh", http.MethodPost, "/auth/refresh",
		"application/json", body, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchReceipts lists the user's receipts.
func (c *Client) FetchReceipts(ctx context.Context, ts TokenSource) ([]models.Receipt, error) {
	var out []models.Receipt
	if err := c.do(ctx, ts, "receipts", http.MethodGet, "/receipts", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchSplits fetches the canonical server-computed split for a receipt.
func (c *Client) FetchSplits(ctx context.Context, ts TokenSource, receiptID int64) (*models.ReceiptSplits, error) {
	var out models.ReceiptSplits
	path := fmt.Sprintf("/receipts/%d/splits", receiptID)
	if err := c.do(ctx, ts, "splits", http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchDashboard loads the friends and receipts for the home screen.
func (c *Client) FetchDashboard(ctx context.Context, ts TokenSource) (*models.DashboardData, error) {
	var out models.DashboardData
	if err := c.do(ctx, ts, "dashboard", http.MethodGet, "/dashboard", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddFriendsToItem assigns friends to a single item.
func (c *Client) AddFriendsToItem(ctx context.Context, ts TokenSource, itemID int64, friendIDs []int64) (*AddFriendsResult, error) {
	body, err := json.Marshal(AddFriendsRequest{ItemID: itemID, FriendIDs: friendIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to encode add-friends request: %w", err)
	}

	var out AddFriendsResult
	err = c.do(ctx, ts, "add_friends", http.MethodPost, "/items/add-friends",
		"application/json", body, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddFriendsToItems assigns friends to several items at once. When the
// backend rejects the batch with a per-item result array, that array is
// returned instead of an error so callers can report item by item.
func (c *Client) AddFriendsToItems(ctx context.Context, ts TokenSource, items []AddFriendsRequest) ([]AddFriendsResult, error) {
	body, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		return nil, fmt.Errorf("failed to encode add-friends request: %w", err)
	}

	var out []AddFriendsResult
	err = c.do(ctx, ts, "add_friends", http.MethodPost, "/items/add-friends-multiple",
		"application/json", body, &out)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && len(apiErr.Body) > 0 {
			var results []AddFriendsResult
			if jsonErr := json.Unmarshal(apiErr.Body, &results); jsonErr == nil && len(results) > 0 {
				return results, nil
			}
		}
		return nil, err
	}
	return out, nil
}

// CreateFriend registers a new friend, optionally with a profile photo.
func (c *Client) CreateFriend(ctx context.Context, ts TokenSource, name string, photo []byte, filename string) (*models.Friend, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("name", name); err != nil {
		return nil, fmt.Errorf("failed to build friend form: %w", err)
	}
	if len(photo) > 0 {
		part, err := form.CreateFormFile("photo", filename)
		if err != nil {
			return nil, fmt.Errorf("failed to build friend form: %w", err)
		}
		if _, err := part.Write(photo); err != nil {
			return nil, fmt.Errorf("failed to build friend form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to build friend form: %w", err)
	}

	var out models.Friend
	err := c.do(ctx, ts, "friends", http.MethodPost, "/friends",
		form.FormDataContentType(), buf.Bytes(), &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FileURL resolves a file id to its presigned URL.
func (c *Client) FileURL(ctx context.Context, ts TokenSource, fileID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	path := "/files/" + url.PathEscape(fileID)
	if err := c.do(ctx, ts, "files", http.MethodGet, path, "", nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// do performs one backend call. When a TokenSource is supplied it attaches
// the bearer token and, on a 401, forces a refresh and retries exactly
// once; a second 401 propagates.
func (c *Client) do(ctx context.Context, ts TokenSource, endpoint, method, path, contentType string, body []byte, out any) error {
	token := ""
	if ts != nil {
		token = ts.GetAccessToken(ctx)
	}

	resp, err := c.send(ctx, method, path, contentType, body, token)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && ts != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		token = ts.ForceRefresh(ctx)
		if token == "" {
			metrics.UpstreamErrors.WithLabelValues(endpoint).Inc()
			return &APIError{StatusCode: http.StatusUnauthorized, Detail: "authentication required"}
		}
		resp, err = c.send(ctx, method, path, contentType, body, token)
		if err != nil {
			metrics.UpstreamErrors.WithLabelValues(endpoint).Inc()
			return fmt.Errorf("backend %s %s: %w", method, path, err)
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("backend %s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.UpstreamErrors.WithLabelValues(endpoint).Inc()
		return newAPIError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("backend %s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.http.Do(req)
}

// newAPIError extracts the backend's {"detail": ...} message when present.
func newAPIError(status int, body []byte) *APIError {
	detail := http.StatusText(status)
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		detail = payload.Detail
	}
	return &APIError{StatusCode: status, Detail: detail, Body: body}
}
