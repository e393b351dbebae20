package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/balogunquadri/banshee-bn-backend/pkg/utils"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", s.handleLogin)
			auth.POST("/logout", s.handleLogout)
			auth.POST("/verification/setup", s.requireToken(), s.handleVerificationSetup)
			auth.POST("/verification", s.requireToken(), s.handleVerification)
		}

		protected := v1.Group("")
		protected.Use(s.requireToken())
		{
			tripRoutes := protected.Group("/trips")
			{
				tripRoutes.GET("/user", s.getUserTrips)
				tripRoutes.GET("/mostvisited", s.getMostVisited)
				tripRoutes.POST("", s.requireVerified(), s.createTrip)
				tripRoutes.GET("", s.permit(models.ApproverRoles...), s.getTrips)
				tripRoutes.GET("/:tripId", s.getTrip)
				tripRoutes.PUT("/:tripId", s.requireVerified(), s.editTrip)
				tripRoutes.PATCH("/:tripId", s.permit(models.ApproverRoles...), s.modifyTripStatus)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", s.getNotifications)
				notifications.PATCH("/:id/read", s.markNotificationRead)
			}
		}
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Route not found"))
	})
}
