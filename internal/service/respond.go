// Package service implements the HTTP surface of the server: thin handlers
// that gate on the session, call the backend API, and render results or a
// uniform error envelope.
package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snaptab/snaptab/internal/backend"
)

// respondUpstreamError converts a failed backend call into the uniform
// {success:false, message} envelope. Backend statuses pass through;
// transport failures become a 502 so pages render an error state instead of
// crashing.
func respondUpstreamError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	message := "backend request failed"

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
		message = apiErr.Detail
	}

	slog.Error("upstream call failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(status, gin.H{"success": false, "message": message})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}
