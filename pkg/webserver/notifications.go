package webserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/balogunquadri/banshee-bn-backend/pkg/utils"
	"github.com/balogunquadri/banshee-bn-backend/pkg/validation"
)

// getNotifications returns the caller's in-app notifications, newest first
func (s *Server) getNotifications(c *gin.Context) {
	identity := currentIdentity(c)
	unreadOnly := c.Query("unread") == "true"
	page, limit := pageParams(c)

	totalCount, err := s.repo.CountNotificationsByUserID(c.Request.Context(), identity.UserID, unreadOnly)
	if err != nil {
		s.respondError(c, err)
		return
	}

	pagination := utils.NewPagination(page, limit, totalCount)
	notifications, err := s.repo.GetNotificationsByUserID(c.Request.Context(), identity.UserID, unreadOnly, pagination.Limit, pagination.GetOffset())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	c.JSON(http.StatusOK, utils.NewPaginatedResponse(notifications, pagination, "Notifications retrieved"))
}

// markNotificationRead flags one of the caller's notifications as read
func (s *Server) markNotificationRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		s.respondError(c, validation.Single("id", "Invalid notification id"))
		return
	}

	identity := currentIdentity(c)
	updated, err := s.repo.MarkNotificationRead(c.Request.Context(), uint(id), identity.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if updated == 0 {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Notification does not exist"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(gin.H{"id": id, "isRead": true}, "Notification marked as read"))
}
