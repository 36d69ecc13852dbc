package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leakwatch/leakwatch-api/internal/middleware"
	"github.com/leakwatch/leakwatch-api/internal/repository"
	"github.com/leakwatch/leakwatch-api/internal/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// @Summary List Notifications
// @Description Get the current user's notifications
// @Tags Notifications
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) Index(c *gin.Context) {
	userID := middleware.GetUserID(c)

	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))

	notifications, total, err := h.notificationService.FindByUser(c.Request.Context(), userID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, n := range notifications {
		responses = append(responses, n.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"notifications": responses, "pagination": gin.H{"total": total}})
}

// @Summary Mark Notification Read
// @Description Marks a notification as read
// @Tags Notifications
// @Produce json
// @Param notification_id path int true "Notification ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/{notification_id}/read [post]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("notification_id"), 10, 32)

	if err := h.notificationService.MarkAsRead(c.Request.Context(), uint(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// @Summary Delete Notification
// @Description Deletes a notification belonging to the current user
// @Tags Notifications
// @Produce json
// @Param notification_id path int true "Notification ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/{notification_id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("notification_id"), 10, 32)

	notification, err := h.notificationService.FindByID(c.Request.Context(), uint(id))
	if err != nil || notification.UserID != middleware.GetUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

// @Summary Mark All Notifications Read
// @Description Marks every notification of the current user as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/read_all [post]
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if err := h.notificationService.MarkAllAsRead(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}
