package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/service"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
	"github.com/elimusoft/cbc-admin-api/pkg/response"
)

// ReportHandler exposes aggregate and export endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// AttendanceSummary godoc
// @Summary Cached attendance aggregate for a class and date range
// @Tags Reports
// @Produce json
// @Param grade query string true "Grade"
// @Param stream query string false "Stream"
// @Param date_from query string false "Start date YYYY-MM-DD"
// @Param date_to query string false "End date YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /reports/attendance [get]
func (h *ReportHandler) AttendanceSummary(c *gin.Context) {
	var query dto.AttendanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	summary, err := h.reports.AttendanceSummary(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// RatingDistribution godoc
// @Summary Assessment band distribution for a grade and period
// @Tags Reports
// @Produce json
// @Param grade query string true "Grade"
// @Param kind query string true "COMPETENCY or VALUE"
// @Param term query int true "Term 1-3"
// @Param academic_year query int true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /reports/ratings [get]
func (h *ReportHandler) RatingDistribution(c *gin.Context) {
	term, _ := strconv.Atoi(c.Query("term"))
	year, _ := strconv.Atoi(c.Query("academic_year"))

	dist, err := h.reports.RatingDistribution(c.Request.Context(), c.Query("grade"), c.Query("kind"), term, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dist, nil)
}

// ExportDayReport godoc
// @Summary Export a class day report as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Param grade query string true "Grade"
// @Param stream query string true "Stream"
// @Param date query string true "Date YYYY-MM-DD"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /reports/attendance/export [get]
func (h *ReportHandler) ExportDayReport(c *gin.Context) {
	data, contentType, err := h.reports.ExportDayReport(c.Request.Context(),
		c.Query("grade"), c.Query("stream"), c.Query("date"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := "attendance-report.csv"
	if contentType == "application/pdf" {
		filename = "attendance-report.pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// ExportReportCard godoc
// @Summary Export a learner's term report card as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Param learnerId path string true "Learner ID"
// @Param term query int true "Term 1-3"
// @Param academic_year query int true "Academic year"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /reports/report-card/{learnerId} [get]
func (h *ReportHandler) ExportReportCard(c *gin.Context) {
	term, _ := strconv.Atoi(c.Query("term"))
	year, _ := strconv.Atoi(c.Query("academic_year"))

	data, contentType, err := h.reports.ExportReportCard(c.Request.Context(),
		c.Param("learnerId"), term, year, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := "report-card.csv"
	if contentType == "application/pdf" {
		filename = "report-card.pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// ExportRatingDistribution godoc
// @Summary Export the band distribution as CSV
// @Tags Reports
// @Produce text/csv
// @Param grade query string true "Grade"
// @Param kind query string true "COMPETENCY or VALUE"
// @Param term query int true "Term 1-3"
// @Param academic_year query int true "Academic year"
// @Success 200 {file} file
// @Router /reports/ratings/export [get]
func (h *ReportHandler) ExportRatingDistribution(c *gin.Context) {
	term, _ := strconv.Atoi(c.Query("term"))
	year, _ := strconv.Atoi(c.Query("academic_year"))

	data, err := h.reports.ExportRatingDistribution(c.Request.Context(), c.Query("grade"), c.Query("kind"), term, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="rating-distribution.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}
