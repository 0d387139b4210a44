package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dealradar/offers-backend/internal/alerts"
	"github.com/dealradar/offers-backend/internal/domain"
)

// NotificationService is the notification-queue surface the endpoints depend
// on. *alerts.Service satisfies it.
type NotificationService interface {
	Notifications(ctx context.Context, userID string, undeliveredOnly bool) ([]domain.PendingNotification, error)
	Acknowledge(ctx context.Context, userID, notificationID string) error
}

// NotificationsHandler serves the per-user notification queue endpoints.
type NotificationsHandler struct {
	Svc NotificationService
}

// NewNotificationsHandler wires a NotificationsHandler to its service.
func NewNotificationsHandler(svc NotificationService) *NotificationsHandler {
	return &NotificationsHandler{Svc: svc}
}

// ListNotifications handles GET /notifications.
//
// The optional query parameter undelivered=true restricts the result to
// notifications not yet acknowledged.
func (h *NotificationsHandler) ListNotifications(c *gin.Context) {
	uid := userID(c)
	undeliveredOnly := strings.EqualFold(c.Query("undelivered"), "true")

	items, err := h.Svc.Notifications(c.Request.Context(), uid, undeliveredOnly)
	if err != nil {
		fail(c, http.StatusInternalServerError, codeInternalError, "failed to list notifications")
		return
	}
	ok(c, http.StatusOK, gin.H{"items": items})
}

// AckNotification handles POST /notifications/:id/ack, marking a single
// notification as delivered. Acknowledging an already-delivered notification
// is a no-op success.
func (h *NotificationsHandler) AckNotification(c *gin.Context) {
	uid := userID(c)
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, codeBadRequest, "notification id is required")
		return
	}

	if err := h.Svc.Acknowledge(c.Request.Context(), uid, id); err != nil {
		if errors.Is(err, alerts.ErrNotificationNotFound) {
			fail(c, http.StatusNotFound, codeNotFound, "notification not found")
			return
		}
		fail(c, http.StatusInternalServerError, codeInternalError, "failed to acknowledge notification")
		return
	}
	noContent(c)
}
