package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elimusoft/cbc-admin-api/internal/models"
)

// LearnerRepository manages persistence for learner records.
type LearnerRepository struct {
	db *sqlx.DB
}

// NewLearnerRepository constructs a LearnerRepository.
func NewLearnerRepository(db *sqlx.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

// List returns learners matching the provided filters. Filters are conjunctive
// and source order is stable for a given sort column.
func (r *LearnerRepository) List(ctx context.Context, filter models.LearnerFilter) ([]models.Learner, int, error) {
	base := "FROM learners l"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("l.grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Stream != "" {
		conditions = append(conditions, fmt.Sprintf("l.stream = $%d", len(args)+1))
		args = append(args, filter.Stream)
	}
	if filter.Status != nil && filter.Status.Valid() {
		conditions = append(conditions, fmt.Sprintf("l.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(l.full_name) LIKE $%d OR LOWER(l.admission_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":        "l.full_name",
		"admission_number": "l.admission_number",
		"created_at":       "l.created_at",
	}
	if sortBy == "" {
		sortBy = "full_name"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "l.full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT l.id, l.admission_number, l.full_name, l.gender, l.birth_date, l.grade, l.stream, l.status, l.created_at, l.updated_at
        %s ORDER BY %s %s, l.id ASC LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var learners []models.Learner
	if err := r.db.SelectContext(ctx, &learners, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list learners: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count learners: %w", err)
	}
	return learners, total, nil
}

// FindByID fetches a learner with guardian linkage.
func (r *LearnerRepository) FindByID(ctx context.Context, id string) (*models.LearnerDetail, error) {
	const query = `SELECT id, admission_number, full_name, gender, birth_date, grade, stream, status, created_at, updated_at
        FROM learners WHERE id = $1`
	var detail models.LearnerDetail
	if err := r.db.GetContext(ctx, &detail.Learner, query, id); err != nil {
		return nil, err
	}
	const guardianQuery = `SELECT parent_id FROM parent_learners WHERE learner_id = $1`
	if err := r.db.SelectContext(ctx, &detail.GuardianIDs, guardianQuery, id); err != nil {
		return nil, fmt.Errorf("load guardian linkage: %w", err)
	}
	return &detail, nil
}

// ExistsByAdmissionNumber checks uniqueness, optionally excluding an ID.
func (r *LearnerRepository) ExistsByAdmissionNumber(ctx context.Context, admissionNumber string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM learners WHERE admission_number = $1"
	args := []interface{}{admissionNumber}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check admission number: %w", err)
	}
	return true, nil
}

// Create inserts a new learner record.
func (r *LearnerRepository) Create(ctx context.Context, learner *models.Learner) error {
	if learner.ID == "" {
		learner.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if learner.CreatedAt.IsZero() {
		learner.CreatedAt = now
	}
	learner.UpdatedAt = now
	const query = `INSERT INTO learners (id, admission_number, full_name, gender, birth_date, grade, stream, status, created_at, updated_at)
        VALUES (:id, :admission_number, :full_name, :gender, :birth_date, :grade, :stream, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, learner); err != nil {
		return fmt.Errorf("create learner: %w", err)
	}
	return nil
}

// Update modifies an existing learner.
func (r *LearnerRepository) Update(ctx context.Context, learner *models.Learner) error {
	learner.UpdatedAt = time.Now().UTC()
	const query = `UPDATE learners SET admission_number = :admission_number, full_name = :full_name, gender = :gender,
        birth_date = :birth_date, grade = :grade, stream = :stream, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, learner); err != nil {
		return fmt.Errorf("update learner: %w", err)
	}
	return nil
}

// Deactivate marks a learner inactive without removing history.
func (r *LearnerRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE learners SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.LearnerStatusInactive, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate learner: %w", err)
	}
	return nil
}

// ListIDsByClass returns every active learner ID in a class. Unpaginated:
// bulk attendance marking needs the whole roster.
func (r *LearnerRepository) ListIDsByClass(ctx context.Context, grade, stream string) ([]string, error) {
	const query = `SELECT id FROM learners WHERE grade = $1 AND stream = $2 AND status = $3 ORDER BY full_name ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, grade, stream, models.LearnerStatusActive); err != nil {
		return nil, fmt.Errorf("list learner ids by class: %w", err)
	}
	return ids, nil
}
