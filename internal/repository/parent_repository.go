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

// ParentRepository manages persistence for guardians and learner linkage.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs a ParentRepository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

const parentSelect = `SELECT p.id, p.full_name, p.relationship, p.email, p.phone,
        COALESCE(array_agg(pl.learner_id) FILTER (WHERE pl.learner_id IS NOT NULL), '{}') AS learner_ids,
        p.created_at, p.updated_at
        FROM parents p LEFT JOIN parent_learners pl ON pl.parent_id = p.id`

// List returns parents matching the filter. An unmatched search yields an
// empty slice, not an error.
func (r *ParentRepository) List(ctx context.Context, filter models.ParentFilter) ([]models.Parent, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(p.full_name) LIKE $%d OR LOWER(p.email) LIKE $%d OR p.phone LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.LearnerID != "" {
		conditions = append(conditions, fmt.Sprintf("p.id IN (SELECT parent_id FROM parent_learners WHERE learner_id = $%d)", len(args)+1))
		args = append(args, filter.LearnerID)
	}
	whereClause := strings.Join(conditions, " AND ")

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "p.full_name",
		"created_at": "p.created_at",
	}
	if sortBy == "" {
		sortBy = "full_name"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "p.full_name"
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

	query := fmt.Sprintf(`%s WHERE %s GROUP BY p.id ORDER BY %s %s LIMIT %d OFFSET %d`,
		parentSelect, whereClause, column, order, size, offset)

	var parents []models.Parent
	if err := r.db.SelectContext(ctx, &parents, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list parents: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT p.id) FROM parents p WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count parents: %w", err)
	}
	return parents, total, nil
}

// FindByID fetches a parent with learner linkage.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	query := parentSelect + " WHERE p.id = $1 GROUP BY p.id"
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, id); err != nil {
		return nil, err
	}
	return &parent, nil
}

// Create inserts a parent and its learner links in one transaction.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if parent.CreatedAt.IsZero() {
		parent.CreatedAt = now
	}
	parent.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create parent: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const insert = `INSERT INTO parents (id, full_name, relationship, email, phone, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, insert, parent.ID, parent.FullName, parent.Relationship, parent.Email, parent.Phone, parent.CreatedAt, parent.UpdatedAt); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	if err := replaceLearnerLinks(ctx, tx, parent.ID, parent.LearnerIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create parent: %w", err)
	}
	committed = true
	return nil
}

// Update modifies a parent and replaces its learner links.
func (r *ParentRepository) Update(ctx context.Context, parent *models.Parent) error {
	parent.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update parent: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const update = `UPDATE parents SET full_name = $2, relationship = $3, email = $4, phone = $5, updated_at = $6 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, parent.ID, parent.FullName, parent.Relationship, parent.Email, parent.Phone, parent.UpdatedAt); err != nil {
		return fmt.Errorf("update parent: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM parent_learners WHERE parent_id = $1`, parent.ID); err != nil {
		return fmt.Errorf("clear learner links: %w", err)
	}
	if err := replaceLearnerLinks(ctx, tx, parent.ID, parent.LearnerIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update parent: %w", err)
	}
	committed = true
	return nil
}

// Delete removes a parent and its linkage.
func (r *ParentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM parents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete parent: %w", err)
	}
	return nil
}

// ContactSummary aggregates reachability counts over all parents.
func (r *ParentRepository) ContactSummary(ctx context.Context) (*models.ParentContactSummary, error) {
	const query = `SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE phone <> '') AS with_phone,
        COUNT(*) FILTER (WHERE email <> '') AS with_email,
        COUNT(*) FILTER (WHERE phone = '' AND email = '') AS with_both_missing
        FROM parents`
	row := struct {
		Total           int `db:"total"`
		WithPhone       int `db:"with_phone"`
		WithEmail       int `db:"with_email"`
		WithBothMissing int `db:"with_both_missing"`
	}{}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, fmt.Errorf("parent contact summary: %w", err)
	}
	return &models.ParentContactSummary{
		Total:           row.Total,
		WithPhone:       row.WithPhone,
		WithEmail:       row.WithEmail,
		WithBothMissing: row.WithBothMissing,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// ListByGrade returns parents linked to active learners in a grade.
func (r *ParentRepository) ListByGrade(ctx context.Context, grade string) ([]models.Parent, error) {
	query := parentSelect + ` WHERE p.id IN (
        SELECT pl2.parent_id FROM parent_learners pl2
        JOIN learners l ON l.id = pl2.learner_id
        WHERE l.grade = $1 AND l.status = $2)
        GROUP BY p.id ORDER BY p.full_name ASC`
	var parents []models.Parent
	if err := r.db.SelectContext(ctx, &parents, query, grade, models.LearnerStatusActive); err != nil {
		return nil, fmt.Errorf("list parents by grade: %w", err)
	}
	return parents, nil
}

// ListByLearner returns the guardians linked to one learner.
func (r *ParentRepository) ListByLearner(ctx context.Context, learnerID string) ([]models.Parent, error) {
	query := parentSelect + ` WHERE p.id IN (
        SELECT pl2.parent_id FROM parent_learners pl2 WHERE pl2.learner_id = $1)
        GROUP BY p.id ORDER BY p.full_name ASC`
	var parents []models.Parent
	if err := r.db.SelectContext(ctx, &parents, query, learnerID); err != nil {
		return nil, fmt.Errorf("list parents by learner: %w", err)
	}
	return parents, nil
}

// All returns every parent, used for school-wide announcements.
func (r *ParentRepository) All(ctx context.Context) ([]models.Parent, error) {
	query := parentSelect + " GROUP BY p.id ORDER BY p.full_name ASC"
	var parents []models.Parent
	if err := r.db.SelectContext(ctx, &parents, query); err != nil {
		return nil, fmt.Errorf("list all parents: %w", err)
	}
	return parents, nil
}

func replaceLearnerLinks(ctx context.Context, tx *sqlx.Tx, parentID string, learnerIDs []string) error {
	const link = `INSERT INTO parent_learners (parent_id, learner_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	for _, learnerID := range learnerIDs {
		if learnerID == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, link, parentID, learnerID); err != nil {
			return fmt.Errorf("link learner %s: %w", learnerID, err)
		}
	}
	return nil
}
