package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/service"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
	"github.com/elimusoft/cbc-admin-api/pkg/response"
)

// LearnerHandler exposes learner endpoints.
type LearnerHandler struct {
	learners *service.LearnerService
}

// NewLearnerHandler constructs LearnerHandler.
func NewLearnerHandler(learners *service.LearnerService) *LearnerHandler {
	return &LearnerHandler{learners: learners}
}

// List godoc
// @Summary List learners
// @Tags Learners
// @Produce json
// @Param search query string false "Search by name or admission number"
// @Param grade query string false "Filter by grade"
// @Param stream query string false "Filter by stream"
// @Param status query string false "Filter by enrolment status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /learners [get]
func (h *LearnerHandler) List(c *gin.Context) {
	var query dto.LearnerQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	learners, pagination, err := h.learners.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, learners, pagination)
}

// Get godoc
// @Summary Get learner detail
// @Tags Learners
// @Produce json
// @Param id path string true "Learner ID"
// @Success 200 {object} response.Envelope
// @Router /learners/{id} [get]
func (h *LearnerHandler) Get(c *gin.Context) {
	learner, err := h.learners.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, learner, nil)
}

// Create godoc
// @Summary Register learner
// @Tags Learners
// @Accept json
// @Produce json
// @Param payload body dto.CreateLearnerRequest true "Learner payload"
// @Success 201 {object} response.Envelope
// @Router /learners [post]
func (h *LearnerHandler) Create(c *gin.Context) {
	var req dto.CreateLearnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	learner, err := h.learners.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, learner)
}

// Update godoc
// @Summary Update learner
// @Tags Learners
// @Accept json
// @Produce json
// @Param id path string true "Learner ID"
// @Param payload body dto.UpdateLearnerRequest true "Learner payload"
// @Success 200 {object} response.Envelope
// @Router /learners/{id} [put]
func (h *LearnerHandler) Update(c *gin.Context) {
	var req dto.UpdateLearnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	learner, err := h.learners.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, learner, nil)
}

// Delete godoc
// @Summary Deactivate learner
// @Tags Learners
// @Produce json
// @Param id path string true "Learner ID"
// @Success 204
// @Router /learners/{id} [delete]
func (h *LearnerHandler) Delete(c *gin.Context) {
	if err := h.learners.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export learners as CSV
// @Tags Learners
// @Produce text/csv
// @Success 200 {file} file
// @Router /learners/export [get]
func (h *LearnerHandler) Export(c *gin.Context) {
	var query dto.LearnerQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	data, err := h.learners.ExportCSV(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="learners.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}
