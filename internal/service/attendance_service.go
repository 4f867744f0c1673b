package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
)

type attendanceStore interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error)
	DayReport(ctx context.Context, grade, stream string, date time.Time) ([]models.DayReportRow, error)
	Counts(ctx context.Context, filter models.AttendanceFilter) (*models.AttendanceStats, error)
}

type classRoster interface {
	ListIDsByClass(ctx context.Context, grade, stream string) ([]string, error)
}

// AttendanceService orchestrates daily attendance use cases.
type AttendanceService struct {
	repo      attendanceStore
	roster    classRoster
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceStore, roster classRoster, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{repo: repo, roster: roster, validator: validate, logger: logger}
}

// Mark records one learner's attendance for a date. Re-marking the same day
// overwrites the earlier entry.
func (s *AttendanceService) Mark(ctx context.Context, req dto.MarkAttendanceRequest, markedBy string) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	status := models.AttendanceStatus(strings.ToUpper(req.Status))
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be one of PRESENT, ABSENT, LATE, EXCUSED, SICK")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	record := &models.AttendanceRecord{
		LearnerID: req.LearnerID,
		Date:      date,
		Status:    status,
		Remark:    req.Remark,
		MarkedBy:  markedBy,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return record, nil
}

// BulkMark marks a full class for a date. Explicit entries win; with
// MarkAllPresent set, every remaining active learner in the class is recorded
// as PRESENT.
func (s *AttendanceService) BulkMark(ctx context.Context, req dto.BulkMarkAttendanceRequest, markedBy string) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	records := make([]models.AttendanceRecord, 0, len(req.Entries))
	marked := make(map[string]bool, len(req.Entries))
	for _, entry := range req.Entries {
		status := models.AttendanceStatus(strings.ToUpper(entry.Status))
		if !status.Valid() {
			return 0, appErrors.Clone(appErrors.ErrValidation, "status must be one of PRESENT, ABSENT, LATE, EXCUSED, SICK")
		}
		records = append(records, models.AttendanceRecord{
			LearnerID: entry.LearnerID,
			Date:      date,
			Status:    status,
			Remark:    entry.Remark,
			MarkedBy:  markedBy,
		})
		marked[entry.LearnerID] = true
	}

	if req.MarkAllPresent {
		// Full roster, not a page: every active learner in the class must
		// receive a record.
		learnerIDs, err := s.roster.ListIDsByClass(ctx, req.Grade, req.Stream)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
		}
		for _, learnerID := range learnerIDs {
			if marked[learnerID] {
				continue
			}
			records = append(records, models.AttendanceRecord{
				LearnerID: learnerID,
				Date:      date,
				Status:    models.AttendanceStatusPresent,
				MarkedBy:  markedBy,
			})
		}
	}

	if len(records) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "nothing to mark")
	}
	if err := s.repo.BulkUpsert(ctx, records); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	s.logger.Info("class attendance marked",
		zap.String("grade", req.Grade),
		zap.String("stream", req.Stream),
		zap.String("date", req.Date),
		zap.Int("records", len(records)))
	return len(records), nil
}

// List returns attendance records with learner metadata.
func (s *AttendanceService) List(ctx context.Context, query dto.AttendanceQuery) ([]models.AttendanceRecordDetail, *models.Pagination, error) {
	filter, err := attendanceFilterFrom(query)
	if err != nil {
		return nil, nil, err
	}
	records, total, err := s.repo.List(ctx, *filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if records == nil {
		records = []models.AttendanceRecordDetail{}
	}
	return records, paginationFor(filter.Page, filter.PageSize, total), nil
}

// DayReport returns a class roster for one date, including unmarked learners.
func (s *AttendanceService) DayReport(ctx context.Context, grade, stream, rawDate string) ([]models.DayReportRow, error) {
	if grade == "" || stream == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade and stream are required")
	}
	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	report, err := s.repo.DayReport(ctx, grade, stream, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build day report")
	}
	if report == nil {
		report = []models.DayReportRow{}
	}
	return report, nil
}

// Stats aggregates counts for the filter. Percentage is the rounded share of
// PRESENT records over all records; an empty set yields zero, not an error.
func (s *AttendanceService) Stats(ctx context.Context, query dto.AttendanceQuery) (*models.AttendanceStats, error) {
	filter, err := attendanceFilterFrom(query)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Counts(ctx, *filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute attendance stats")
	}
	stats.Percentage = attendancePercentage(stats.Present, stats.Total)
	return stats, nil
}

func attendancePercentage(present, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(present) / float64(total)))
}

func attendanceFilterFrom(query dto.AttendanceQuery) (*models.AttendanceFilter, error) {
	filter := &models.AttendanceFilter{
		Grade:     query.Grade,
		Stream:    query.Stream,
		LearnerID: query.LearnerID,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if query.Status != "" {
		status := models.AttendanceStatus(strings.ToUpper(query.Status))
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status")
		}
		filter.Status = &status
	}
	if query.DateFrom != "" {
		from, err := time.Parse("2006-01-02", query.DateFrom)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date_from must be YYYY-MM-DD")
		}
		filter.DateFrom = &from
	}
	if query.DateTo != "" {
		to, err := time.Parse("2006-01-02", query.DateTo)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date_to must be YYYY-MM-DD")
		}
		filter.DateTo = &to
	}
	return filter, nil
}
