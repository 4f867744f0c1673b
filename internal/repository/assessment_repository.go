package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elimusoft/cbc-admin-api/internal/models"
)

// AssessmentRepository persists CBC rating rows.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs an AssessmentRepository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// SaveSheet upserts every rating row for a sheet in one transaction. Rows are
// keyed by (learner, kind, term, year, dimension) so repeated saves converge.
func (r *AssessmentRepository) SaveSheet(ctx context.Context, key models.AssessmentKey, ratings []models.AssessmentRating) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save assessment: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const query = `INSERT INTO assessment_ratings (id, learner_id, kind, term, academic_year, dimension, rating, comment, assessed_by, created_at, updated_at)
        VALUES (:id, :learner_id, :kind, :term, :academic_year, :dimension, :rating, :comment, :assessed_by, :created_at, :updated_at)
        ON CONFLICT (learner_id, kind, term, academic_year, dimension) DO UPDATE SET
            rating = EXCLUDED.rating,
            comment = EXCLUDED.comment,
            assessed_by = EXCLUDED.assessed_by,
            updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range ratings {
		ratings[i].LearnerID = key.LearnerID
		ratings[i].Kind = key.Kind
		ratings[i].Term = key.Term
		ratings[i].AcademicYear = key.AcademicYear
		if ratings[i].ID == "" {
			ratings[i].ID = uuid.NewString()
		}
		if ratings[i].CreatedAt.IsZero() {
			ratings[i].CreatedAt = now
		}
		ratings[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, &ratings[i]); err != nil {
			return fmt.Errorf("save assessment rating: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save assessment: %w", err)
	}
	committed = true
	return nil
}

// GetRatings loads the persisted rows for a key. Missing sheets return an
// empty slice, not an error.
func (r *AssessmentRepository) GetRatings(ctx context.Context, key models.AssessmentKey) ([]models.AssessmentRating, error) {
	const query = `SELECT id, learner_id, kind, term, academic_year, dimension, rating, comment, assessed_by, created_at, updated_at
        FROM assessment_ratings
        WHERE learner_id = $1 AND kind = $2 AND term = $3 AND academic_year = $4
        ORDER BY dimension ASC`
	var ratings []models.AssessmentRating
	if err := r.db.SelectContext(ctx, &ratings, query, key.LearnerID, key.Kind, key.Term, key.AcademicYear); err != nil {
		return nil, fmt.Errorf("get assessment ratings: %w", err)
	}
	return ratings, nil
}

// ListByLearner returns all persisted rows for a learner across terms.
func (r *AssessmentRepository) ListByLearner(ctx context.Context, learnerID string) ([]models.AssessmentRating, error) {
	const query = `SELECT id, learner_id, kind, term, academic_year, dimension, rating, comment, assessed_by, created_at, updated_at
        FROM assessment_ratings WHERE learner_id = $1
        ORDER BY academic_year DESC, term DESC, kind ASC, dimension ASC`
	var ratings []models.AssessmentRating
	if err := r.db.SelectContext(ctx, &ratings, query, learnerID); err != nil {
		return nil, fmt.Errorf("list learner assessments: %w", err)
	}
	return ratings, nil
}

// Distribution counts ratings per band for a grade, term and year.
func (r *AssessmentRepository) Distribution(ctx context.Context, grade string, kind models.AssessmentKind, term, academicYear int) ([]models.RatingDistribution, error) {
	const query = `SELECT SUBSTRING(ar.rating FROM 1 FOR 2) AS band, COUNT(*) AS count
        FROM assessment_ratings ar JOIN learners l ON l.id = ar.learner_id
        WHERE l.grade = $1 AND ar.kind = $2 AND ar.term = $3 AND ar.academic_year = $4
        GROUP BY band ORDER BY band ASC`
	var rows []models.RatingDistribution
	if err := r.db.SelectContext(ctx, &rows, query, grade, kind, term, academicYear); err != nil {
		return nil, fmt.Errorf("rating distribution: %w", err)
	}
	return rows, nil
}
