package catalog

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches catalog endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authed, adminOnly []gin.HandlerFunc) {
	batches := router.Group("/batches")
	batches.GET("/:batchId/chapters", append(authed, handler.ListChapters)...)

	chapters := router.Group("/chapters")
	chapters.POST("", append(adminOnly, handler.CreateChapter)...)
	chapters.DELETE("/:chapterId", append(adminOnly, handler.DeleteChapter)...)

	contents := router.Group("/contents")
	contents.GET("", append(authed, handler.ListContent)...)
	contents.GET("/:contentId", append(authed, handler.GetContent)...)
	contents.POST("", append(adminOnly, handler.CreateContent)...)
	contents.DELETE("/:contentId", append(adminOnly, handler.DeleteContent)...)
}
