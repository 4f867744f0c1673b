package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
	"github.com/elimusoft/cbc-admin-api/pkg/export"
)

type learnerStore interface {
	List(ctx context.Context, filter models.LearnerFilter) ([]models.Learner, int, error)
	FindByID(ctx context.Context, id string) (*models.LearnerDetail, error)
	ExistsByAdmissionNumber(ctx context.Context, admissionNumber string, excludeID string) (bool, error)
	Create(ctx context.Context, learner *models.Learner) error
	Update(ctx context.Context, learner *models.Learner) error
	Deactivate(ctx context.Context, id string) error
}

// LearnerService orchestrates learner registry use cases.
type LearnerService struct {
	repo      learnerStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLearnerService constructs a LearnerService.
func NewLearnerService(repo learnerStore, validate *validator.Validate, logger *zap.Logger) *LearnerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LearnerService{repo: repo, validator: validate, logger: logger}
}

// List returns learners matching the query with pagination metadata.
func (s *LearnerService) List(ctx context.Context, query dto.LearnerQuery) ([]models.Learner, *models.Pagination, error) {
	filter := models.LearnerFilter{
		Search:    strings.TrimSpace(query.Search),
		Grade:     query.Grade,
		Stream:    query.Stream,
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if query.Status != "" {
		status := models.LearnerStatus(strings.ToUpper(query.Status))
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "status must be ACTIVE or INACTIVE")
		}
		filter.Status = &status
	}

	learners, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list learners")
	}
	if learners == nil {
		learners = []models.Learner{}
	}
	return learners, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a learner with guardian linkage.
func (s *LearnerService) Get(ctx context.Context, id string) (*models.LearnerDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "learner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learner")
	}
	return detail, nil
}

// Create registers a new learner after uniqueness checks.
func (s *LearnerService) Create(ctx context.Context, req dto.CreateLearnerRequest) (*models.Learner, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid learner payload")
	}

	admission := strings.TrimSpace(req.AdmissionNumber)
	exists, err := s.repo.ExistsByAdmissionNumber(ctx, admission, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check admission number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "admission number already registered")
	}

	birthDate, err := parseOptionalDate(req.BirthDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "birth_date must be YYYY-MM-DD")
	}

	learner := &models.Learner{
		AdmissionNumber: admission,
		FullName:        strings.TrimSpace(req.FullName),
		Gender:          req.Gender,
		BirthDate:       birthDate,
		Grade:           req.Grade,
		Stream:          req.Stream,
		Status:          models.LearnerStatusActive,
	}
	if err := s.repo.Create(ctx, learner); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create learner")
	}
	s.logger.Info("learner registered",
		zap.String("learner_id", learner.ID),
		zap.String("admission_number", learner.AdmissionNumber))
	return learner, nil
}

// Update edits an existing learner.
func (s *LearnerService) Update(ctx context.Context, id string, req dto.UpdateLearnerRequest) (*models.Learner, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid learner payload")
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "learner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learner")
	}

	admission := strings.TrimSpace(req.AdmissionNumber)
	exists, err := s.repo.ExistsByAdmissionNumber(ctx, admission, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check admission number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "admission number already registered")
	}

	birthDate, err := parseOptionalDate(req.BirthDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "birth_date must be YYYY-MM-DD")
	}

	learner := detail.Learner
	learner.AdmissionNumber = admission
	learner.FullName = strings.TrimSpace(req.FullName)
	learner.Gender = req.Gender
	learner.BirthDate = birthDate
	learner.Grade = req.Grade
	learner.Stream = req.Stream
	if req.Status != "" {
		learner.Status = models.LearnerStatus(strings.ToUpper(req.Status))
	}

	if err := s.repo.Update(ctx, &learner); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update learner")
	}
	return &learner, nil
}

// Deactivate marks a learner inactive, keeping attendance and assessment history.
func (s *LearnerService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "learner not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learner")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate learner")
	}
	s.logger.Info("learner deactivated", zap.String("learner_id", id))
	return nil
}

// ExportCSV renders the filtered learner list as a CSV dataset.
func (s *LearnerService) ExportCSV(ctx context.Context, query dto.LearnerQuery) ([]byte, error) {
	query.PageSize = 100
	learners, _, err := s.List(ctx, query)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Admission Number", "Full Name", "Gender", "Grade", "Stream", "Status"},
	}
	for _, l := range learners {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Admission Number": l.AdmissionNumber,
			"Full Name":        l.FullName,
			"Gender":           l.Gender,
			"Grade":            l.Grade,
			"Stream":           l.Stream,
			"Status":           string(l.Status),
		})
	}
	data, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export learners")
	}
	return data, nil
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &t, nil
}
