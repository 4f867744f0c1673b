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

// TimetableRepository persists weekly timetable slots.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// List returns slots scoped by class or teacher, ordered day then period.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableSlotDetail, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("s.grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Stream != "" {
		conditions = append(conditions, fmt.Sprintf("s.stream = $%d", len(args)+1))
		args = append(args, filter.Stream)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("s.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Day != nil {
		conditions = append(conditions, fmt.Sprintf("s.day = $%d", len(args)+1))
		args = append(args, *filter.Day)
	}

	query := fmt.Sprintf(`SELECT s.id, s.grade, s.stream, s.day, s.period, s.subject, s.teacher_id, s.created_at, s.updated_at,
        t.full_name AS teacher_name
        FROM timetable_slots s JOIN teachers t ON t.id = s.teacher_id
        WHERE %s ORDER BY s.day ASC, s.period ASC, s.grade ASC, s.stream ASC`, strings.Join(conditions, " AND "))

	var slots []models.TimetableSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	return slots, nil
}

// FindByID fetches a single slot.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	const query = `SELECT id, grade, stream, day, period, subject, teacher_id, created_at, updated_at
        FROM timetable_slots WHERE id = $1`
	var slot models.TimetableSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// HasClassConflict reports whether the class already has a slot at (day, period).
func (r *TimetableRepository) HasClassConflict(ctx context.Context, grade, stream string, day, period int, excludeID string) (bool, error) {
	query := `SELECT 1 FROM timetable_slots WHERE grade = $1 AND stream = $2 AND day = $3 AND period = $4`
	args := []interface{}{grade, stream, day, period}
	if excludeID != "" {
		query += " AND id <> $5"
		args = append(args, excludeID)
	}
	return r.exists(ctx, query+" LIMIT 1", args...)
}

// HasTeacherConflict reports whether the teacher is already booked at (day, period).
func (r *TimetableRepository) HasTeacherConflict(ctx context.Context, teacherID string, day, period int, excludeID string) (bool, error) {
	query := `SELECT 1 FROM timetable_slots WHERE teacher_id = $1 AND day = $2 AND period = $3`
	args := []interface{}{teacherID, day, period}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	return r.exists(ctx, query+" LIMIT 1", args...)
}

func (r *TimetableRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var one int
	if err := r.db.GetContext(ctx, &one, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("timetable conflict check: %w", err)
	}
	return true, nil
}

// Create inserts a slot.
func (r *TimetableRepository) Create(ctx context.Context, slot *models.TimetableSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now
	const query = `INSERT INTO timetable_slots (id, grade, stream, day, period, subject, teacher_id, created_at, updated_at)
        VALUES (:id, :grade, :stream, :day, :period, :subject, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create timetable slot: %w", err)
	}
	return nil
}

// Update modifies a slot.
func (r *TimetableRepository) Update(ctx context.Context, slot *models.TimetableSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_slots SET grade = :grade, stream = :stream, day = :day, period = :period,
        subject = :subject, teacher_id = :teacher_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update timetable slot: %w", err)
	}
	return nil
}

// Delete removes a slot.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable slot: %w", err)
	}
	return nil
}
