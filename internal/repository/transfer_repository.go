package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elimusoft/cbc-admin-api/internal/models"
)

// TransferRepository persists learner transfer requests.
type TransferRepository struct {
	db *sqlx.DB
}

// NewTransferRepository constructs a TransferRepository.
func NewTransferRepository(db *sqlx.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create inserts a new pending transfer.
func (r *TransferRepository) Create(ctx context.Context, transfer *models.TransferRecord) error {
	if transfer.ID == "" {
		transfer.ID = uuid.NewString()
	}
	if transfer.RequestedAt.IsZero() {
		transfer.RequestedAt = time.Now().UTC()
	}
	transfer.Status = models.TransferStatusPending
	const query = `INSERT INTO transfers (id, learner_id, direction, school, reason, status, requested_by, requested_at, note)
        VALUES (:id, :learner_id, :direction, :school, :reason, :status, :requested_by, :requested_at, :note)`
	if _, err := r.db.NamedExecContext(ctx, query, transfer); err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}
	return nil
}

// FindByID fetches a transfer with learner metadata.
func (r *TransferRepository) FindByID(ctx context.Context, id string) (*models.TransferDetail, error) {
	const query = `SELECT t.id, t.learner_id, t.direction, t.school, t.reason, t.status, t.requested_by, t.reviewed_by,
        t.requested_at, t.reviewed_at, t.note, l.full_name AS learner_name, l.admission_number, l.grade
        FROM transfers t JOIN learners l ON l.id = t.learner_id WHERE t.id = $1`
	var detail models.TransferDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns transfers matching the filter, newest request first.
func (r *TransferRepository) List(ctx context.Context, filter models.TransferFilter) ([]models.TransferDetail, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Direction != nil {
		conditions = append(conditions, fmt.Sprintf("t.direction = $%d", len(args)+1))
		args = append(args, *filter.Direction)
	}
	if filter.LearnerID != "" {
		conditions = append(conditions, fmt.Sprintf("t.learner_id = $%d", len(args)+1))
		args = append(args, filter.LearnerID)
	}
	whereClause := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT t.id, t.learner_id, t.direction, t.school, t.reason, t.status, t.requested_by, t.reviewed_by,
        t.requested_at, t.reviewed_at, t.note, l.full_name AS learner_name, l.admission_number, l.grade
        FROM transfers t JOIN learners l ON l.id = t.learner_id
        WHERE %s ORDER BY t.requested_at DESC, t.id ASC LIMIT %d OFFSET %d`, whereClause, size, offset)

	var transfers []models.TransferDetail
	if err := r.db.SelectContext(ctx, &transfers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transfers t WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count transfers: %w", err)
	}
	return transfers, total, nil
}

// Review moves a pending transfer to a terminal status. The WHERE guard keeps
// the transition monotonic; a second review matches zero rows.
func (r *TransferRepository) Review(ctx context.Context, id string, status models.TransferStatus, reviewedBy string, note *string, reviewedAt time.Time) (bool, error) {
	const query = `UPDATE transfers SET status = $2, reviewed_by = $3, note = COALESCE($4, note), reviewed_at = $5
        WHERE id = $1 AND status = 'PENDING'`
	result, err := r.db.ExecContext(ctx, query, id, status, reviewedBy, note, reviewedAt)
	if err != nil {
		return false, fmt.Errorf("review transfer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("review transfer rows: %w", err)
	}
	return affected == 1, nil
}

// CountByStatus returns pending/approved/rejected totals for the stats
// endpoint.
func (r *TransferRepository) CountByStatus(ctx context.Context) (map[models.TransferStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM transfers GROUP BY status`
	rows := []struct {
		Status models.TransferStatus `db:"status"`
		Count  int                   `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count transfers by status: %w", err)
	}
	counts := make(map[models.TransferStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
