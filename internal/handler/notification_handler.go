package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/service"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
	"github.com/elimusoft/cbc-admin-api/pkg/response"
)

// NotificationHandler exposes announcement endpoints.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Announce godoc
// @Summary Broadcast an announcement to parents
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.CreateAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Router /announcements [post]
func (h *NotificationHandler) Announce(c *gin.Context) {
	var req dto.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	announcement, err := h.notifications.Announce(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// List godoc
// @Summary List announcements
// @Tags Notifications
// @Produce json
// @Param grade query string false "Filter by targeted grade"
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var query dto.AnnouncementQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	announcements, pagination, err := h.notifications.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcements, pagination)
}

// Get godoc
// @Summary Get announcement detail
// @Tags Notifications
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [get]
func (h *NotificationHandler) Get(c *gin.Context) {
	announcement, err := h.notifications.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// NotifyAssessment godoc
// @Summary Message a learner's guardians that term results are ready
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.AssessmentNotificationRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Router /notifications/assessment [post]
func (h *NotificationHandler) NotifyAssessment(c *gin.Context) {
	var req dto.AssessmentNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	announcement, err := h.notifications.NotifyAssessment(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// TestWhatsApp godoc
// @Summary Preview the WhatsApp deep link for a raw number
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.WhatsAppTestRequest true "Test payload"
// @Success 200 {object} response.Envelope
// @Router /notifications/whatsapp-test [post]
func (h *NotificationHandler) TestWhatsApp(c *gin.Context) {
	var req dto.WhatsAppTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	link, err := h.notifications.TestWhatsApp(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}
