package social

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches friend-graph endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authed []gin.HandlerFunc) {
	friends := router.Group("/friends")

	friends.GET("", append(authed, handler.ListFriends)...)
	friends.GET("/requests", append(authed, handler.ListRequests)...)
	friends.POST("/requests/:userId", append(authed, handler.SendRequest)...)
	friends.POST("/requests/:userId/accept", append(authed, handler.Accept)...)
	friends.POST("/requests/:userId/reject", append(authed, handler.Reject)...)
	friends.DELETE("/:userId", append(authed, handler.Remove)...)
	friends.POST("/:userId/block", append(authed, handler.Block)...)
	friends.POST("/:userId/unblock", append(authed, handler.Unblock)...)
}
