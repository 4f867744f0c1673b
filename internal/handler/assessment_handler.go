package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	"github.com/elimusoft/cbc-admin-api/internal/service"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
	"github.com/elimusoft/cbc-admin-api/pkg/response"
)

// AssessmentHandler exposes CBC rating endpoints.
type AssessmentHandler struct {
	assessments *service.AssessmentService
	reports     *service.ReportService
}

// NewAssessmentHandler constructs AssessmentHandler. A nil reports service
// disables cache invalidation.
func NewAssessmentHandler(assessments *service.AssessmentService, reports *service.ReportService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments, reports: reports}
}

// GetSheet godoc
// @Summary Rating sheet for a learner, kind, term and year
// @Tags Assessments
// @Produce json
// @Param learnerId path string true "Learner ID"
// @Param kind query string true "COMPETENCY or VALUE"
// @Param term query int true "Term 1-3"
// @Param academic_year query int true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /assessments/{learnerId} [get]
func (h *AssessmentHandler) GetSheet(c *gin.Context) {
	var query dto.AssessmentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	sheet, err := h.assessments.GetSheet(c.Request.Context(), models.AssessmentKey{
		LearnerID:    c.Param("learnerId"),
		Kind:         models.AssessmentKind(strings.ToUpper(query.Kind)),
		Term:         query.Term,
		AcademicYear: query.AcademicYear,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// SaveSheet godoc
// @Summary Save a rating sheet
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.SaveAssessmentRequest true "Assessment payload"
// @Success 200 {object} response.Envelope
// @Router /assessments [post]
func (h *AssessmentHandler) SaveSheet(c *gin.Context) {
	var req dto.SaveAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sheet, err := h.assessments.SaveSheet(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.reports.InvalidateRatings(c.Request.Context())
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Finalize godoc
// @Summary Save a rating sheet and close the assessment session
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.SaveAssessmentRequest true "Assessment payload"
// @Success 200 {object} response.Envelope
// @Router /assessments/finalize [post]
func (h *AssessmentHandler) Finalize(c *gin.Context) {
	var req dto.SaveAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sheet, err := h.assessments.FinalizeSheet(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.reports.InvalidateRatings(c.Request.Context())
	response.JSON(c, http.StatusOK, sheet, nil)
}

// History godoc
// @Summary All persisted ratings for a learner
// @Tags Assessments
// @Produce json
// @Param learnerId path string true "Learner ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{learnerId}/history [get]
func (h *AssessmentHandler) History(c *gin.Context) {
	ratings, err := h.assessments.History(c.Request.Context(), c.Param("learnerId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ratings, nil)
}
