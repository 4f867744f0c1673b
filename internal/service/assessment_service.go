package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
)

type assessmentStore interface {
	SaveSheet(ctx context.Context, key models.AssessmentKey, ratings []models.AssessmentRating) error
	GetRatings(ctx context.Context, key models.AssessmentKey) ([]models.AssessmentRating, error)
	ListByLearner(ctx context.Context, learnerID string) ([]models.AssessmentRating, error)
	Distribution(ctx context.Context, grade string, kind models.AssessmentKind, term, academicYear int) ([]models.RatingDistribution, error)
}

// AssessmentService orchestrates CBC rating sheets.
type AssessmentService struct {
	repo      assessmentStore
	audit     auditSink
	validator *validator.Validate
	logger    *zap.Logger
}

type auditSink interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// NewAssessmentService constructs an AssessmentService.
func NewAssessmentService(repo assessmentStore, audit auditSink, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssessmentService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// GetSheet returns the rating sheet for a key. A learner with no persisted
// ratings yields a default sheet covering every dimension with empty ratings
// and Found false, never an error.
func (s *AssessmentService) GetSheet(ctx context.Context, key models.AssessmentKey) (*models.AssessmentSheet, error) {
	if !key.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be COMPETENCY or VALUE")
	}
	if key.Term < 1 || key.Term > 3 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term must be 1, 2 or 3")
	}

	ratings, err := s.repo.GetRatings(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment sheet")
	}

	byDimension := make(map[string]models.AssessmentRating, len(ratings))
	for _, r := range ratings {
		byDimension[r.Dimension] = r
	}

	sheet := &models.AssessmentSheet{Key: key, Found: len(ratings) > 0}
	for _, dimension := range key.Kind.Dimensions() {
		row := models.AssessmentSheetRow{Dimension: dimension}
		if r, ok := byDimension[dimension]; ok {
			row.Rating = r.Rating
			row.Comment = r.Comment
		}
		sheet.Entries = append(sheet.Entries, row)
	}
	return sheet, nil
}

// SaveSheet validates and persists a rating sheet. Saving the same sheet twice
// produces the same stored state.
func (s *AssessmentService) SaveSheet(ctx context.Context, req dto.SaveAssessmentRequest, assessedBy string) (*models.AssessmentSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}

	kind := models.AssessmentKind(strings.ToUpper(req.Kind))
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be COMPETENCY or VALUE")
	}

	allowed := make(map[string]bool)
	for _, dimension := range kind.Dimensions() {
		allowed[dimension] = true
	}

	key := models.AssessmentKey{
		LearnerID:    req.LearnerID,
		Kind:         kind,
		Term:         req.Term,
		AcademicYear: req.AcademicYear,
	}

	seen := make(map[string]bool, len(req.Entries))
	ratings := make([]models.AssessmentRating, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if !allowed[entry.Dimension] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown dimension: %s", entry.Dimension))
		}
		if seen[entry.Dimension] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate dimension: %s", entry.Dimension))
		}
		seen[entry.Dimension] = true

		code := models.RatingCode(strings.ToUpper(entry.Rating))
		if !code.Valid() {
			return nil, appErrors.Clone(appErrors.ErrInvalidRating, fmt.Sprintf("invalid rating code: %s", entry.Rating))
		}
		ratings = append(ratings, models.AssessmentRating{
			Dimension:  entry.Dimension,
			Rating:     code,
			Comment:    entry.Comment,
			AssessedBy: assessedBy,
		})
	}

	if err := s.repo.SaveSheet(ctx, key, ratings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save assessment sheet")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &assessedBy,
			Action:     models.AuditActionAssessmentSave,
			Resource:   "assessment",
			ResourceID: &req.LearnerID,
			NewValues:  []byte(fmt.Sprintf(`{"kind":%q,"term":%d,"year":%d,"entries":%d}`, kind, req.Term, req.AcademicYear, len(ratings))),
		}); err != nil {
			s.logger.Warn("failed to record assessment audit log", zap.Error(err))
		}
	}

	return s.GetSheet(ctx, key)
}

// FinalizeSheet saves a sheet and records the assessment session as closed.
// A finalized sheet can still be corrected by a later save.
func (s *AssessmentService) FinalizeSheet(ctx context.Context, req dto.SaveAssessmentRequest, assessedBy string) (*models.AssessmentSheet, error) {
	sheet, err := s.SaveSheet(ctx, req, assessedBy)
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &assessedBy,
			Action:     models.AuditActionAssessmentDone,
			Resource:   "assessment",
			ResourceID: &req.LearnerID,
			NewValues:  []byte(fmt.Sprintf(`{"kind":%q,"term":%d,"year":%d}`, strings.ToUpper(req.Kind), req.Term, req.AcademicYear)),
		}); err != nil {
			s.logger.Warn("failed to record assessment finalize audit log", zap.Error(err))
		}
	}
	return sheet, nil
}

// History returns every persisted rating row for a learner across terms.
func (s *AssessmentService) History(ctx context.Context, learnerID string) ([]models.AssessmentRating, error) {
	if learnerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "learner id is required")
	}
	ratings, err := s.repo.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment history")
	}
	if ratings == nil {
		ratings = []models.AssessmentRating{}
	}
	return ratings, nil
}

// Distribution returns per-band rating counts for a grade and period.
func (s *AssessmentService) Distribution(ctx context.Context, grade, rawKind string, term, academicYear int) ([]models.RatingDistribution, error) {
	if grade == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade is required")
	}
	kind := models.AssessmentKind(strings.ToUpper(rawKind))
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be COMPETENCY or VALUE")
	}
	dist, err := s.repo.Distribution(ctx, grade, kind, term, academicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute rating distribution")
	}
	if dist == nil {
		dist = []models.RatingDistribution{}
	}
	return dist, nil
}
