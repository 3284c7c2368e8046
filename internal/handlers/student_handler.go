package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/services"
	"github.com/SAP-F-2025/tutor-service/internal/utils"
)

type StudentHandler struct {
	BaseHandler
	notifications services.NotificationService
}

func NewStudentHandler(notifications services.NotificationService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler:   NewBaseHandler(logger, nil),
		notifications: notifications,
	}
}

// NotificationsResponse lists the notifications a student can see
type NotificationsResponse struct {
	Items       []*models.Notification `json:"items"`
	UnreadCount int                    `json:"unreadCount"`
}

// ===== STUDENT ENDPOINTS =====

// GetMe returns the current student's profile as last pushed to the session
// @Summary Get own profile
// @Tags students
// @Produce json
// @Success 200 {object} models.StudentProfile
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /students/me [get]
func (h *StudentHandler) GetMe(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	profile := sess.Profile()
	if profile == nil {
		h.handleServiceError(c, services.ErrStudentNotFound)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetAvatars returns the teacher and main admin avatars
// @Summary Get dashboard avatars
// @Description Initials are returned when no picture is set
// @Tags students
// @Produce json
// @Success 200 {object} models.AvatarsResponse
// @Router /students/me/avatars [get]
func (h *StudentHandler) GetAvatars(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, sess.Snapshot().Avatars)
}

// ListNotifications returns broadcast and targeted notifications for the student
// @Summary List own notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} NotificationsResponse
// @Router /notifications [get]
func (h *StudentHandler) ListNotifications(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	items, err := h.notifications.ListForStudent(c.Request.Context(), sess.SubjectID())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, NotificationsResponse{
		Items:       items,
		UnreadCount: models.CountUnread(items, sess.SubjectID()),
	})
}

// MarkNotificationRead marks one notification read for the student
// @Summary Mark notification read
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /notifications/{id}/read [post]
func (h *StudentHandler) MarkNotificationRead(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	id := c.Param("id")
	h.LogRequest(c, "Marking notification read", "notification_id", id)

	if err := h.notifications.MarkRead(c.Request.Context(), id, sess.SubjectID()); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
