package messaging

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches messaging endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authed []gin.HandlerFunc) {
	group := router.Group("/messages")
	group.POST("", append(authed, handler.Send)...)
	group.GET("/unread", append(authed, handler.UnreadCounts)...)
	group.GET("/:userId", append(authed, handler.Conversation)...)
	group.GET("/:userId/last", append(authed, handler.LastMessage)...)
	group.POST("/:userId/read", append(authed, handler.MarkRead)...)
}
