package commerce

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches commerce endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authed, adminOnly []gin.HandlerFunc) {
	coupons := router.Group("/coupons")
	coupons.GET("", append(adminOnly, handler.ListCoupons)...)
	coupons.POST("", append(adminOnly, handler.CreateCoupon)...)
	coupons.DELETE("/:code", append(adminOnly, handler.DeleteCoupon)...)
	coupons.GET("/:code/validate", append(authed, handler.ValidateCoupon)...)
	coupons.POST("/apply", append(authed, handler.ApplyCoupon)...)

	enrollments := router.Group("/enrollments")
	enrollments.POST("", append(authed, handler.CreateEnrollment)...)
	enrollments.GET("/mine", append(authed, handler.MyEnrollments)...)
	enrollments.GET("", append(adminOnly, handler.ListEnrollments)...)
	enrollments.POST("/:requestId/approve", append(adminOnly, handler.ApproveEnrollment)...)
	enrollments.POST("/:requestId/reject", append(adminOnly, handler.RejectEnrollment)...)
}
