package service

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/snaptab/snaptab/internal/backend"
	"github.com/snaptab/snaptab/internal/calculator"
	"github.com/snaptab/snaptab/internal/metrics"
	"github.com/snaptab/snaptab/internal/middleware"
	"github.com/snaptab/snaptab/internal/models"
)

// ReceiptService serves receipts and their splits.
type ReceiptService struct {
	client   *backend.Client
	sessions *middleware.SessionFactory
}

// NewReceiptService creates a ReceiptService over the backend client and
// the session factory.
func NewReceiptService(client *backend.Client, sessions *middleware.SessionFactory) *ReceiptService {
	return &ReceiptService{client: client, sessions: sessions}
}

// List returns the user's receipts.
func (s *ReceiptService) List(c *gin.Context) {
	receipts, err := s.client.FetchReceipts(c.Request.Context(), s.sessions.Manager(c))
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipts)
}

// Splits returns the canonical server-computed split for a receipt.
func (s *ReceiptService) Splits(c *gin.Context) {
	receiptID, err := strconv.ParseInt(c.Param("receiptId"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid receipt id")
		return
	}

	splits, err := s.client.FetchSplits(c.Request.Context(), s.sessions.Manager(c), receiptID)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, splits)
}

// PreviewSplits computes a split locally from a receipt payload, without a
// backend round trip. The result matches what the backend would persist
// for the same receipt.
func (s *ReceiptService) PreviewSplits(c *gin.Context) {
	var receipt models.Receipt
	if err := c.ShouldBindJSON(&receipt); err != nil {
		respondBadRequest(c, "invalid receipt payload")
		return
	}

	splits, err := calculator.Split(&receipt)
	if err != nil {
		metrics.SplitPreviews.WithLabelValues("invalid").Inc()
		respondBadRequest(c, err.Error())
		return
	}
	metrics.SplitPreviews.WithLabelValues("ok").Inc()

	c.JSON(http.StatusOK, splits)
}
