package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
	"github.com/elimusoft/cbc-admin-api/pkg/jobs"
)

type announcementStore interface {
	Create(ctx context.Context, announcement *models.Announcement) error
	UpdateSentCount(ctx context.Context, id string, sent int) error
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
}

type recipientSource interface {
	All(ctx context.Context) ([]models.Parent, error)
	ListByGrade(ctx context.Context, grade string) ([]models.Parent, error)
	ListByLearner(ctx context.Context, learnerID string) ([]models.Parent, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// AnnouncementDelivery is the payload handed to the fan-out queue, one job per
// reachable recipient.
type AnnouncementDelivery struct {
	AnnouncementID string
	ParentID       string
	Phone          string
	Title          string
	Content        string
}

// NotificationService broadcasts announcements to parents. Fan-out runs on the
// background queue; the synchronous response carries the recipient count.
type NotificationService struct {
	repo      announcementStore
	parents   recipientSource
	queue     jobDispatcher
	normalize func(string) string
	validator *validator.Validate
	logger    *zap.Logger

	delivered atomic.Int64
}

// NewNotificationService constructs a NotificationService. The normalize
// function converts raw phone numbers to E.164; pass the parent service's
// normaliser so both paths agree.
func NewNotificationService(repo announcementStore, parents recipientSource, queue jobDispatcher, normalize func(string) string, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if normalize == nil {
		normalize = func(s string) string { return s }
	}
	return &NotificationService{repo: repo, parents: parents, queue: queue, normalize: normalize, validator: validate, logger: logger}
}

// Announce persists an announcement and queues delivery to every reachable
// parent in scope. Parents without a phone number are skipped, not failed.
func (s *NotificationService) Announce(ctx context.Context, req dto.CreateAnnouncementRequest, createdBy string) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}

	announcement := &models.Announcement{
		Title:     strings.TrimSpace(req.Title),
		Content:   strings.TrimSpace(req.Content),
		Grade:     req.Grade,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}

	var recipients []models.Parent
	var err error
	if req.Grade != nil && *req.Grade != "" {
		recipients, err = s.parents.ListByGrade(ctx, *req.Grade)
	} else {
		recipients, err = s.parents.All(ctx)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve announcement recipients")
	}

	sent := 0
	for _, parent := range recipients {
		if parent.Phone == "" {
			continue
		}
		delivery := AnnouncementDelivery{
			AnnouncementID: announcement.ID,
			ParentID:       parent.ID,
			Phone:          parent.Phone,
			Title:          announcement.Title,
			Content:        announcement.Content,
		}
		if err := s.queue.Enqueue(jobs.Job{ID: announcement.ID + ":" + parent.ID, Type: "announcement", Payload: delivery}); err != nil {
			s.logger.Warn("failed to enqueue announcement delivery",
				zap.String("announcement_id", announcement.ID),
				zap.String("parent_id", parent.ID),
				zap.Error(err))
			continue
		}
		sent++
	}

	announcement.Sent = sent
	if err := s.repo.UpdateSentCount(ctx, announcement.ID, sent); err != nil {
		s.logger.Warn("failed to persist sent count", zap.String("announcement_id", announcement.ID), zap.Error(err))
	}
	s.logger.Info("announcement queued",
		zap.String("announcement_id", announcement.ID),
		zap.Int("recipients", sent))
	return announcement, nil
}

// NotifyAssessment queues a results-ready message to one learner's guardians.
// Guardians without a phone number are skipped, not failed.
func (s *NotificationService) NotifyAssessment(ctx context.Context, req dto.AssessmentNotificationRequest, createdBy string) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment notification payload")
	}

	announcement := &models.Announcement{
		Title:     "Assessment results ready",
		Content:   fmt.Sprintf("Term %d %d assessment results are ready for review.", req.Term, req.AcademicYear),
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment notification")
	}

	guardians, err := s.parents.ListByLearner(ctx, req.LearnerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve learner guardians")
	}

	sent := 0
	for _, parent := range guardians {
		if parent.Phone == "" {
			continue
		}
		delivery := AnnouncementDelivery{
			AnnouncementID: announcement.ID,
			ParentID:       parent.ID,
			Phone:          parent.Phone,
			Title:          announcement.Title,
			Content:        announcement.Content,
		}
		if err := s.queue.Enqueue(jobs.Job{ID: announcement.ID + ":" + parent.ID, Type: "assessment", Payload: delivery}); err != nil {
			s.logger.Warn("failed to enqueue assessment notification",
				zap.String("announcement_id", announcement.ID),
				zap.String("parent_id", parent.ID),
				zap.Error(err))
			continue
		}
		sent++
	}

	announcement.Sent = sent
	if err := s.repo.UpdateSentCount(ctx, announcement.ID, sent); err != nil {
		s.logger.Warn("failed to persist sent count", zap.String("announcement_id", announcement.ID), zap.Error(err))
	}
	return announcement, nil
}

// List returns announcements, newest first.
func (s *NotificationService) List(ctx context.Context, query dto.AnnouncementQuery) ([]models.Announcement, *models.Pagination, error) {
	filter := models.AnnouncementFilter{
		Grade:    query.Grade,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	announcements, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	if announcements == nil {
		announcements = []models.Announcement{}
	}
	return announcements, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one announcement.
func (s *NotificationService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	announcement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	return announcement, nil
}

// TestWhatsApp previews the deep link a raw number would receive.
func (s *NotificationService) TestWhatsApp(req dto.WhatsAppTestRequest) (*models.WhatsAppLink, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid whatsapp payload")
	}
	phone := s.normalize(req.Phone)
	if phone == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "phone is required")
	}
	return buildWhatsAppLink(phone, req.Message), nil
}

// DeliveryHandler returns the queue handler that records deliveries. The
// actual WhatsApp hop happens on the parent's device via the deep link, so
// delivery here means the message left the system.
func (s *NotificationService) DeliveryHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		delivery, ok := job.Payload.(AnnouncementDelivery)
		if !ok {
			s.logger.Warn("announcement job carried unexpected payload", zap.String("job_id", job.ID))
			return nil
		}
		s.delivered.Add(1)
		s.logger.Debug("announcement delivered",
			zap.String("announcement_id", delivery.AnnouncementID),
			zap.String("parent_id", delivery.ParentID))
		return nil
	}
}

// Delivered reports how many deliveries the queue has processed.
func (s *NotificationService) Delivered() int64 {
	return s.delivered.Load()
}
