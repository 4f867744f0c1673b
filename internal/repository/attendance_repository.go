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

// AttendanceRepository manages daily attendance rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert writes a record for (learner, date). Marking the same learner and
// date again overwrites status, remark and marker instead of duplicating.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.MarkedAt.IsZero() {
		record.MarkedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO attendance (id, learner_id, date, status, remark, marked_by, marked_at, updated_at)
        VALUES (:id, :learner_id, :date, :status, :remark, :marked_by, :marked_at, :updated_at)
        ON CONFLICT (learner_id, date) DO UPDATE SET
            status = EXCLUDED.status,
            remark = EXCLUDED.remark,
            marked_by = EXCLUDED.marked_by,
            marked_at = EXCLUDED.marked_at,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// BulkUpsert writes many records in one transaction.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk attendance: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const query = `INSERT INTO attendance (id, learner_id, date, status, remark, marked_by, marked_at, updated_at)
        VALUES (:id, :learner_id, :date, :status, :remark, :marked_by, :marked_at, :updated_at)
        ON CONFLICT (learner_id, date) DO UPDATE SET
            status = EXCLUDED.status,
            remark = EXCLUDED.remark,
            marked_by = EXCLUDED.marked_by,
            marked_at = EXCLUDED.marked_at,
            updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if records[i].MarkedAt.IsZero() {
			records[i].MarkedAt = now
		}
		records[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, &records[i]); err != nil {
			return fmt.Errorf("bulk upsert attendance: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk attendance: %w", err)
	}
	committed = true
	return nil
}

func attendanceConditions(filter models.AttendanceFilter) (string, []interface{}) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("l.grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Stream != "" {
		conditions = append(conditions, fmt.Sprintf("l.stream = $%d", len(args)+1))
		args = append(args, filter.Stream)
	}
	if filter.LearnerID != "" {
		conditions = append(conditions, fmt.Sprintf("a.learner_id = $%d", len(args)+1))
		args = append(args, filter.LearnerID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	return strings.Join(conditions, " AND "), args
}

// List returns attendance records with learner metadata, newest date first.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error) {
	whereClause, args := attendanceConditions(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.learner_id, a.date, a.status, a.remark, a.marked_by, a.marked_at, a.updated_at,
        l.full_name AS learner_name, l.admission_number, l.grade, l.stream
        FROM attendance a JOIN learners l ON l.id = a.learner_id
        WHERE %s ORDER BY a.date DESC, l.full_name ASC LIMIT %d OFFSET %d`, whereClause, size, offset)

	var records []models.AttendanceRecordDetail
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM attendance a JOIN learners l ON l.id = a.learner_id WHERE %s`, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return records, total, nil
}

// DayReport returns one row per active learner in the class for a date.
// Learners without a record for the date appear with an empty status.
func (r *AttendanceRepository) DayReport(ctx context.Context, grade, stream string, date time.Time) ([]models.DayReportRow, error) {
	const query = `SELECT l.id AS learner_id, l.full_name AS learner_name, l.admission_number,
        COALESCE(a.status, '') AS status, a.remark
        FROM learners l
        LEFT JOIN attendance a ON a.learner_id = l.id AND a.date = $3
        WHERE l.grade = $1 AND l.stream = $2 AND l.status = $4
        ORDER BY l.full_name ASC`
	var rows []models.DayReportRow
	if err := r.db.SelectContext(ctx, &rows, query, grade, stream, date, models.LearnerStatusActive); err != nil {
		return nil, fmt.Errorf("attendance day report: %w", err)
	}
	return rows, nil
}

// Counts aggregates per-status totals and distinct marked days for a filter.
func (r *AttendanceRepository) Counts(ctx context.Context, filter models.AttendanceFilter) (*models.AttendanceStats, error) {
	whereClause, args := attendanceConditions(filter)
	query := fmt.Sprintf(`SELECT
        COUNT(*) FILTER (WHERE a.status = 'PRESENT') AS present,
        COUNT(*) FILTER (WHERE a.status = 'ABSENT') AS absent,
        COUNT(*) FILTER (WHERE a.status = 'LATE') AS late,
        COUNT(*) FILTER (WHERE a.status = 'EXCUSED') AS excused,
        COUNT(*) FILTER (WHERE a.status = 'SICK') AS sick,
        COUNT(*) AS total,
        COUNT(DISTINCT a.date) AS distinct_days
        FROM attendance a JOIN learners l ON l.id = a.learner_id WHERE %s`, whereClause)

	row := struct {
		Present      int `db:"present"`
		Absent       int `db:"absent"`
		Late         int `db:"late"`
		Excused      int `db:"excused"`
		Sick         int `db:"sick"`
		Total        int `db:"total"`
		DistinctDays int `db:"distinct_days"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, fmt.Errorf("attendance counts: %w", err)
	}
	return &models.AttendanceStats{
		Present:      row.Present,
		Absent:       row.Absent,
		Late:         row.Late,
		Excused:      row.Excused,
		Sick:         row.Sick,
		Total:        row.Total,
		DistinctDays: row.DistinctDays,
	}, nil
}
