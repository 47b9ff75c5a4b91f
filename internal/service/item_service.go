package service

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snaptab/snaptab/internal/backend"
	"github.com/snaptab/snaptab/internal/middleware"
)

// ItemService assigns friends to receipt items.
type ItemService struct {
	client   *backend.Client
	sessions *middleware.SessionFactory
}

// NewItemService creates an ItemService over the backend client and the
// session factory.
func NewItemService(client *backend.Client, sessions *middleware.SessionFactory) *ItemService {
	return &ItemService{client: client, sessions: sessions}
}

type addFriendsRequest struct {
	ItemID    int64   `json:"item_id" binding:"required"`
	FriendIDs []int64 `json:"friend_ids" binding:"required"`
}

// AddFriends assigns friends to a single item.
func (s *ItemService) AddFriends(c *gin.Context) {
	var req addFriendsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "item_id and friend_ids are required")
		return
	}

	result, err := s.client.AddFriendsToItem(c.Request.Context(), s.sessions.Manager(c), req.ItemID, req.FriendIDs)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type addFriendsMultipleRequest struct {
	Items []backend.AddFriendsRequest `json:"items" binding:"required"`
}

// AddFriendsMultiple assigns friends to several items in one call. The
// response is a per-item result array even when some assignments fail.
func (s *ItemService) AddFriendsMultiple(c *gin.Context) {
	var req addFriendsMultipleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "items are required")
		return
	}

	results, err := s.client.AddFriendsToItems(c.Request.Context(), s.sessions.Manager(c), req.Items)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
