package identity

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches identity endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authed, adminOnly []gin.HandlerFunc) {
	auth := router.Group("/auth")

	auth.POST("/signup", handler.Signup)
	auth.POST("/verify", handler.VerifyEmail)
	auth.POST("/login", handler.Login)
	auth.POST("/logout", append(authed, handler.Logout)...)
	auth.GET("/session", append(authed, handler.Session)...)
	auth.PUT("/profile", append(authed, handler.UpdateProfile)...)

	router.GET("/accounts", append(adminOnly, handler.List)...)
}
