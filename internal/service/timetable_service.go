package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
)

type timetableStore interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableSlotDetail, error)
	FindByID(ctx context.Context, id string) (*models.TimetableSlot, error)
	HasClassConflict(ctx context.Context, grade, stream string, day, period int, excludeID string) (bool, error)
	HasTeacherConflict(ctx context.Context, teacherID string, day, period int, excludeID string) (bool, error)
	Create(ctx context.Context, slot *models.TimetableSlot) error
	Update(ctx context.Context, slot *models.TimetableSlot) error
	Delete(ctx context.Context, id string) error
}

type teacherLookup interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// TimetableService manages weekly class timetables. A slot is rejected when
// the class or the teacher already has a booking at the same day and period.
type TimetableService struct {
	repo      timetableStore
	teachers  teacherLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(repo timetableStore, teachers teacherLookup, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TimetableService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// List returns slots for a class or teacher, ordered by day and period.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableSlotDetail, error) {
	slots, err := s.repo.List(ctx, models.TimetableFilter{
		Grade:     query.Grade,
		Stream:    query.Stream,
		TeacherID: query.TeacherID,
		Day:       query.Day,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable")
	}
	if slots == nil {
		slots = []models.TimetableSlotDetail{}
	}
	return slots, nil
}

// Create adds a slot after conflict checks.
func (s *TimetableService) Create(ctx context.Context, req dto.SaveTimetableSlotRequest) (*models.TimetableSlot, error) {
	if err := s.validateSlot(ctx, req, ""); err != nil {
		return nil, err
	}
	slot := &models.TimetableSlot{
		Grade:     req.Grade,
		Stream:    req.Stream,
		Day:       req.Day,
		Period:    req.Period,
		Subject:   strings.TrimSpace(req.Subject),
		TeacherID: req.TeacherID,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable slot")
	}
	return slot, nil
}

// Update modifies a slot after conflict checks excluding itself.
func (s *TimetableService) Update(ctx context.Context, id string, req dto.SaveTimetableSlotRequest) (*models.TimetableSlot, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slot")
	}
	if err := s.validateSlot(ctx, req, id); err != nil {
		return nil, err
	}

	slot.Grade = req.Grade
	slot.Stream = req.Stream
	slot.Day = req.Day
	slot.Period = req.Period
	slot.Subject = strings.TrimSpace(req.Subject)
	slot.TeacherID = req.TeacherID

	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable slot")
	}
	return slot, nil
}

// Delete removes a slot.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slot")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable slot")
	}
	return nil
}

func (s *TimetableService) validateSlot(ctx context.Context, req dto.SaveTimetableSlotRequest, excludeID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}

	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !teacher.Active {
		return appErrors.Clone(appErrors.ErrValidation, "teacher is inactive")
	}

	classBusy, err := s.repo.HasClassConflict(ctx, req.Grade, req.Stream, req.Day, req.Period, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class conflicts")
	}
	if classBusy {
		return appErrors.Clone(appErrors.ErrConflict, "class already has a lesson in this period")
	}

	teacherBusy, err := s.repo.HasTeacherConflict(ctx, req.TeacherID, req.Day, req.Period, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher conflicts")
	}
	if teacherBusy {
		return appErrors.Clone(appErrors.ErrConflict, "teacher is already booked in this period")
	}
	return nil
}
