package service

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snaptab/snaptab/internal/backend"
	"github.com/snaptab/snaptab/internal/middleware"
)

// DashboardService serves the home-screen data, friend management, and
// file URL resolution.
type DashboardService struct {
	client   *backend.Client
	sessions *middleware.SessionFactory
}

// NewDashboardService creates a DashboardService over the backend client
// and the session factory.
func NewDashboardService(client *backend.Client, sessions *middleware.SessionFactory) *DashboardService {
	return &DashboardService{client: client, sessions: sessions}
}

// Dashboard returns the user's friends and receipts.
func (s *DashboardService) Dashboard(c *gin.Context) {
	data, err := s.client.FetchDashboard(c.Request.Context(), s.sessions.Manager(c))
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

type createFriendRequest struct {
	Name        string `json:"name" binding:"required"`
	PhotoBase64 string `json:"photo_base64"`
	Filename    string `json:"filename"`
}

// CreateFriend registers a new friend, optionally with a photo supplied as
// base64.
func (s *DashboardService) CreateFriend(c *gin.Context) {
	var req createFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	var photo []byte
	if req.PhotoBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.PhotoBase64)
		if err != nil {
			respondBadRequest(c, "photo must be valid base64")
			return
		}
		photo = decoded
	}

	friend, err := s.client.CreateFriend(c.Request.Context(), s.sessions.Manager(c), req.Name, photo, req.Filename)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusCreated, friend)
}

// FileURL resolves a stored file id to its presigned URL.
func (s *DashboardService) FileURL(c *gin.Context) {
	url, err := s.client.FileURL(c.Request.Context(), s.sessions.Manager(c), c.Param("fileId"))
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
