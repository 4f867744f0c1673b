package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
)

type transferStore interface {
	Create(ctx context.Context, transfer *models.TransferRecord) error
	FindByID(ctx context.Context, id string) (*models.TransferDetail, error)
	List(ctx context.Context, filter models.TransferFilter) ([]models.TransferDetail, int, error)
	Review(ctx context.Context, id string, status models.TransferStatus, reviewedBy string, note *string, reviewedAt time.Time) (bool, error)
	CountByStatus(ctx context.Context) (map[models.TransferStatus]int, error)
}

type learnerDeactivator interface {
	FindByID(ctx context.Context, id string) (*models.LearnerDetail, error)
	Deactivate(ctx context.Context, id string) error
}

// TransferService manages learner transfer workflow. Transitions are
// monotonic: a reviewed request never changes again.
type TransferService struct {
	repo      transferStore
	learners  learnerDeactivator
	audit     auditSink
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTransferService constructs a TransferService.
func NewTransferService(repo transferStore, learners learnerDeactivator, audit auditSink, validate *validator.Validate, logger *zap.Logger) *TransferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TransferService{repo: repo, learners: learners, audit: audit, validator: validate, logger: logger}
}

// Create files a transfer request. Outbound requests must carry one of the
// fixed reasons; inbound reasons are free-form.
func (s *TransferService) Create(ctx context.Context, req dto.CreateTransferRequest, requestedBy string) (*models.TransferRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}

	direction := models.TransferDirection(strings.ToUpper(req.Direction))
	if direction == models.TransferDirectionOut && !models.ValidOutboundReason(req.Reason) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason must be one of the outbound transfer reasons")
	}

	if _, err := s.learners.FindByID(ctx, req.LearnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "learner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learner")
	}

	transfer := &models.TransferRecord{
		LearnerID:   req.LearnerID,
		Direction:   direction,
		School:      strings.TrimSpace(req.School),
		Reason:      req.Reason,
		RequestedBy: requestedBy,
	}
	if err := s.repo.Create(ctx, transfer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transfer request")
	}
	return transfer, nil
}

// Get returns one transfer with learner metadata.
func (s *TransferService) Get(ctx context.Context, id string) (*models.TransferDetail, error) {
	transfer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transfer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transfer")
	}
	return transfer, nil
}

// List returns transfers matching the query.
func (s *TransferService) List(ctx context.Context, query dto.TransferQuery) ([]models.TransferDetail, *models.Pagination, error) {
	filter := models.TransferFilter{
		LearnerID: query.LearnerID,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if query.Status != "" {
		status := models.TransferStatus(strings.ToUpper(query.Status))
		if status != models.TransferStatusPending && !status.Terminal() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown transfer status")
		}
		filter.Status = &status
	}
	if query.Direction != "" {
		direction := models.TransferDirection(strings.ToUpper(query.Direction))
		if !direction.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "direction must be IN or OUT")
		}
		filter.Direction = &direction
	}

	transfers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transfers")
	}
	if transfers == nil {
		transfers = []models.TransferDetail{}
	}
	return transfers, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Stats counts transfers per workflow status. Statuses with no rows appear
// with a zero count.
func (s *TransferService) Stats(ctx context.Context) (*models.TransferStats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count transfers")
	}
	return &models.TransferStats{
		Pending:  counts[models.TransferStatusPending],
		Approved: counts[models.TransferStatusApproved],
		Rejected: counts[models.TransferStatusRejected],
	}, nil
}

// Review approves or rejects a pending transfer. An approved outbound transfer
// deactivates the learner; a second review attempt is rejected.
func (s *TransferService) Review(ctx context.Context, id string, req dto.ReviewTransferRequest, reviewedBy string) (*models.TransferDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	transfer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if transfer.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrAlreadyReviewed, "")
	}

	status := models.TransferStatus(strings.ToUpper(req.Status))
	now := time.Now().UTC()
	applied, err := s.repo.Review(ctx, id, status, reviewedBy, optionalString(req.Note), now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review transfer")
	}
	if !applied {
		return nil, appErrors.Clone(appErrors.ErrAlreadyReviewed, "")
	}

	if status == models.TransferStatusApproved && transfer.Direction == models.TransferDirectionOut {
		if err := s.learners.Deactivate(ctx, transfer.LearnerID); err != nil {
			s.logger.Error("approved outbound transfer but learner deactivation failed",
				zap.String("transfer_id", id),
				zap.String("learner_id", transfer.LearnerID),
				zap.Error(err))
		}
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &reviewedBy,
			Action:     models.AuditActionTransferReview,
			Resource:   "transfer",
			ResourceID: &id,
			NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, status)),
		}); err != nil {
			s.logger.Warn("failed to record transfer audit log", zap.Error(err))
		}
	}

	return s.Get(ctx, id)
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}
