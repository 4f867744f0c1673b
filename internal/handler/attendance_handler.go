package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/service"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
	"github.com/elimusoft/cbc-admin-api/pkg/response"
)

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	reports    *service.ReportService
	metrics    *service.MetricsService
}

// NewAttendanceHandler constructs AttendanceHandler. Nil reports or metrics
// services disable cache invalidation and counting.
func NewAttendanceHandler(attendance *service.AttendanceService, reports *service.ReportService, metrics *service.MetricsService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, reports: reports, metrics: metrics}
}

// Mark godoc
// @Summary Mark one learner's attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.reports.InvalidateAttendance(c.Request.Context())
	h.metrics.CountAttendanceRecords(1)
	response.JSON(c, http.StatusOK, record, nil)
}

// BulkMark godoc
// @Summary Mark a class for a date
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.BulkMarkAttendanceRequest true "Bulk attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/bulk [post]
func (h *AttendanceHandler) BulkMark(c *gin.Context) {
	var req dto.BulkMarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	count, err := h.attendance.BulkMark(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.reports.InvalidateAttendance(c.Request.Context())
	h.metrics.CountAttendanceRecords(count)
	response.JSON(c, http.StatusOK, gin.H{"marked": count}, nil)
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param grade query string false "Filter by grade"
// @Param stream query string false "Filter by stream"
// @Param learner_id query string false "Filter by learner"
// @Param date_from query string false "Start date YYYY-MM-DD"
// @Param date_to query string false "End date YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	var query dto.AttendanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	records, pagination, err := h.attendance.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// DayReport godoc
// @Summary Class roster with statuses for one date
// @Tags Attendance
// @Produce json
// @Param grade query string true "Grade"
// @Param stream query string true "Stream"
// @Param date query string true "Date YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /attendance/day-report [get]
func (h *AttendanceHandler) DayReport(c *gin.Context) {
	report, err := h.attendance.DayReport(c.Request.Context(), c.Query("grade"), c.Query("stream"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Stats godoc
// @Summary Attendance aggregates for a filter
// @Tags Attendance
// @Produce json
// @Param grade query string false "Grade"
// @Param stream query string false "Stream"
// @Param learner_id query string false "Learner"
// @Param date_from query string false "Start date YYYY-MM-DD"
// @Param date_to query string false "End date YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /attendance/stats [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	var query dto.AttendanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	stats, err := h.attendance.Stats(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
