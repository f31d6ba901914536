package handler

import (
	"net/http"

	"procurehub/internal/repository"
	"procurehub/pkg/pagination"
	"procurehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	notifications repository.NotificationRepository
}

func NewNotificationHandler(notifications repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/api/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.PUT("/:id/read", h.MarkRead)
	}
}

// ListNotifications returns a user's notifications, newest first
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        user_id  query  string  true   "User ID"
// @Param        unread   query  bool    false  "Unread only"
// @Param        page     query  int     false  "Page number (default 1)"
// @Param        limit    query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid user_id"))
		return
	}

	params := pagination.Parse(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.notifications.ListByUser(c.Request.Context(), userID, unreadOnly, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(notifications, total, params.Page, params.Limit))
}

// MarkRead marks one notification read
// @Summary      Mark notification read
// @Tags         notifications
// @Produce      json
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Router       /api/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "read": true}))
}
