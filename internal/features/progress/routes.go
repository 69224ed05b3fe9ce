package progress

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches progress endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authed, adminOnly []gin.HandlerFunc) {
	group := router.Group("/progress")
	group.POST("", append(authed, handler.Save)...)
	group.GET("/history", append(authed, handler.History)...)
	group.GET("/analytics", append(adminOnly, handler.Analytics)...)
	group.GET("/batch/:batchId", append(authed, handler.BatchProgress)...)
	group.GET("/:contentId", append(authed, handler.Get)...)
}
