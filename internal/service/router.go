package service

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snaptab/snaptab/internal/backend"
	"github.com/snaptab/snaptab/internal/metrics"
	"github.com/snaptab/snaptab/internal/middleware"
)

// NewRouter wires all handlers onto a gin engine.
func NewRouter(client *backend.Client, sessions *middleware.SessionFactory) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	authSvc := NewAuthService(client, sessions)
	auth := r.Group("/auth")
	auth.POST("/login", authSvc.Login)
	auth.POST("/signup", authSvc.Signup)
	auth.POST("/logout", authSvc.Logout)
	auth.GET("/session", authSvc.Session)

	receiptSvc := NewReceiptService(client, sessions)
	itemSvc := NewItemService(client, sessions)
	dashSvc := NewDashboardService(client, sessions)

	authed := r.Group("/", middleware.RequireSession(sessions))
	authed.GET("/receipts", receiptSvc.List)
	authed.GET("/receipts/:receiptId/splits", receiptSvc.Splits)
	authed.POST("/splits/preview", receiptSvc.PreviewSplits)
	authed.POST("/items/add-friends", itemSvc.AddFriends)
	authed.POST("/items/add-friends-multiple", itemSvc.AddFriendsMultiple)
	authed.GET("/dashboard", dashSvc.Dashboard)
	authed.POST("/friends", dashSvc.CreateFriend)
	authed.GET("/files/:fileId", dashSvc.FileURL)

	return r
}
