package service

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snaptab/snaptab/internal/backend"
	"github.com/snaptab/snaptab/internal/middleware"
)

// AuthService handles login, signup and session lifecycle endpoints.
type AuthService struct {
	client   *backend.Client
	sessions *middleware.SessionFactory
}

// NewAuthService creates an AuthService over the backend client and the
// session factory.
func NewAuthService(client *backend.Client, sessions *middleware.SessionFactory) *AuthService {
	return &AuthService{client: client, sessions: sessions}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials with the backend and persists the resulting
// token set as a session. The tokens never reach the response body.
func (s *AuthService) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email and password are required")
		return
	}

	tokens, err := s.client.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	m := s.sessions.Manager(c)
	if err := m.CreateSession(c.Request.Context(), tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresIn); err != nil {
		slog.Error("failed to persist session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type signupRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// Signup registers a new backend account. The user still logs in
// separately afterwards.
func (s *AuthService) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, email and password are required")
		return
	}
	if req.Password != req.ConfirmPassword {
		respondBadRequest(c, "passwords do not match")
		return
	}

	err := s.client.Register(c.Request.Context(), backend.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		IsActive: true,
	})
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// Logout deletes all persisted session state.
func (s *AuthService) Logout(c *gin.Context) {
	s.sessions.Manager(c).Clear(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Session reports whether the caller is authenticated. This is the only
// session detail the UI ever sees.
func (s *AuthService) Session(c *gin.Context) {
	authenticated := s.sessions.Manager(c).Authenticated(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"authenticated": authenticated})
}
