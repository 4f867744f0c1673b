package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
	"github.com/elimusoft/cbc-admin-api/pkg/export"
)

type reportCache interface {
	summaryCache
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AttendanceSummary is the cached class aggregate for a date range.
type AttendanceSummary struct {
	Grade       string                 `json:"grade"`
	Stream      string                 `json:"stream"`
	DateFrom    string                 `json:"date_from,omitempty"`
	DateTo      string                 `json:"date_to,omitempty"`
	Stats       models.AttendanceStats `json:"stats"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// ReportService computes attendance and assessment aggregates, caching them in
// Redis for the configured TTL.
type ReportService struct {
	attendance  *AttendanceService
	assessments *AssessmentService
	cache       reportCache
	logger      *zap.Logger
	cacheTTL    time.Duration
}

// NewReportService constructs a ReportService.
func NewReportService(attendance *AttendanceService, assessments *AssessmentService, cache reportCache, logger *zap.Logger, cacheTTL time.Duration) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ReportService{
		attendance:  attendance,
		assessments: assessments,
		cache:       cache,
		logger:      logger,
		cacheTTL:    cacheTTL,
	}
}

// AttendanceSummary aggregates class attendance for a date range. Results come
// from the cache when fresh.
func (s *ReportService) AttendanceSummary(ctx context.Context, query dto.AttendanceQuery) (*AttendanceSummary, error) {
	if query.Grade == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade is required")
	}

	key := fmt.Sprintf("reports:attendance:%s:%s:%s:%s", query.Grade, query.Stream, query.DateFrom, query.DateTo)
	if s.cache != nil {
		var cached AttendanceSummary
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("attendance summary cache read failed", zap.Error(err))
		}
	}

	stats, err := s.attendance.Stats(ctx, query)
	if err != nil {
		return nil, err
	}
	summary := &AttendanceSummary{
		Grade:       query.Grade,
		Stream:      query.Stream,
		DateFrom:    query.DateFrom,
		DateTo:      query.DateTo,
		Stats:       *stats,
		GeneratedAt: time.Now().UTC(),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
			s.logger.Warn("attendance summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// RatingDistribution aggregates assessment bands for a grade and period,
// cached like attendance summaries.
func (s *ReportService) RatingDistribution(ctx context.Context, grade, kind string, term, academicYear int) ([]models.RatingDistribution, error) {
	key := fmt.Sprintf("reports:ratings:%s:%s:%d:%d", grade, kind, term, academicYear)
	if s.cache != nil {
		var cached []models.RatingDistribution
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("rating distribution cache read failed", zap.Error(err))
		}
	}

	dist, err := s.assessments.Distribution(ctx, grade, kind, term, academicYear)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, dist, s.cacheTTL); err != nil {
			s.logger.Warn("rating distribution cache write failed", zap.Error(err))
		}
	}
	return dist, nil
}

// InvalidateAttendance drops every cached attendance summary. Called after
// attendance writes so summaries never serve stale counts for the full TTL.
func (s *ReportService) InvalidateAttendance(ctx context.Context) {
	s.invalidate(ctx, "reports:attendance:*")
}

// InvalidateRatings drops every cached rating distribution after assessment
// writes.
func (s *ReportService) InvalidateRatings(ctx context.Context) {
	s.invalidate(ctx, "reports:ratings:*")
}

func (s *ReportService) invalidate(ctx context.Context, pattern string) {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

// ExportDayReport renders a class day report as CSV or PDF.
func (s *ReportService) ExportDayReport(ctx context.Context, grade, stream, date, format string) ([]byte, string, error) {
	report, err := s.attendance.DayReport(ctx, grade, stream, date)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{Headers: []string{"Admission Number", "Learner", "Status", "Remark"}}
	for _, row := range report {
		remark := ""
		if row.Remark != nil {
			remark = *row.Remark
		}
		status := ""
		if row.Status != "" {
			status = row.Status.Label()
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Admission Number": row.AdmissionNumber,
			"Learner":          row.LearnerName,
			"Status":           status,
			"Remark":           remark,
		})
	}

	title := fmt.Sprintf("Attendance %s %s %s", grade, stream, date)
	switch format {
	case "pdf":
		data, err := export.NewPDFExporter().Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return data, "application/pdf", nil
	case "", "csv":
		data, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return data, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// ExportReportCard renders one learner's competency and core value ratings
// for a term as CSV or PDF. Unassessed dimensions appear with empty ratings so
// the card is always total over both sheets.
func (s *ReportService) ExportReportCard(ctx context.Context, learnerID string, term, academicYear int, format string) ([]byte, string, error) {
	if learnerID == "" {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "learner id is required")
	}

	dataset := export.Dataset{Headers: []string{"Sheet", "Dimension", "Rating", "Band", "Comment"}}
	for _, kind := range []models.AssessmentKind{models.AssessmentKindCompetency, models.AssessmentKindValue} {
		sheet, err := s.assessments.GetSheet(ctx, models.AssessmentKey{
			LearnerID:    learnerID,
			Kind:         kind,
			Term:         term,
			AcademicYear: academicYear,
		})
		if err != nil {
			return nil, "", err
		}
		for _, row := range sheet.Entries {
			comment := ""
			if row.Comment != nil {
				comment = *row.Comment
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Sheet":     string(kind),
				"Dimension": row.Dimension,
				"Rating":    string(row.Rating),
				"Band":      row.Rating.Band(),
				"Comment":   comment,
			})
		}
	}

	title := fmt.Sprintf("Report Card Term %d %d", term, academicYear)
	switch format {
	case "pdf":
		data, err := export.NewPDFExporter().Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report card pdf")
		}
		return data, "application/pdf", nil
	case "", "csv":
		data, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report card csv")
		}
		return data, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// ExportRatingDistribution renders the band distribution as CSV.
func (s *ReportService) ExportRatingDistribution(ctx context.Context, grade, kind string, term, academicYear int) ([]byte, error) {
	dist, err := s.RatingDistribution(ctx, grade, kind, term, academicYear)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{Headers: []string{"Band", "Count"}}
	for _, row := range dist {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Band":  row.Band,
			"Count": strconv.Itoa(row.Count),
		})
	}
	data, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render distribution export")
	}
	return data, nil
}
