package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/elimusoft/cbc-admin-api/internal/models"
)

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.AttendanceRecord{
		LearnerID: "learner-1",
		Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:    models.AttendanceStatusPresent,
		MarkedBy:  "teacher-1",
	}
	require.NoError(t, repo.Upsert(context.Background(), record))
	require.NotEmpty(t, record.ID)
	require.False(t, record.MarkedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkUpsertTransaction(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	records := []models.AttendanceRecord{
		{LearnerID: "learner-1", Date: date, Status: models.AttendanceStatusPresent, MarkedBy: "teacher-1"},
		{LearnerID: "learner-2", Date: date, Status: models.AttendanceStatusLate, MarkedBy: "teacher-1"},
	}
	require.NoError(t, repo.BulkUpsert(context.Background(), records))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDayReportIncludesUnmarked(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"learner_id", "learner_name", "admission_number", "status", "remark"}).
		AddRow("learner-1", "Amina Wanjiru", "ADM-001", "PRESENT", nil).
		AddRow("learner-2", "Brian Otieno", "ADM-002", "", nil)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN attendance")).
		WithArgs("Grade 4", "North", date, models.LearnerStatusActive).
		WillReturnRows(rows)

	report, err := repo.DayReport(context.Background(), "Grade 4", "North", date)
	require.NoError(t, err)
	require.Len(t, report, 2)
	require.Equal(t, models.AttendanceStatusPresent, report[0].Status)
	require.Empty(t, string(report[1].Status))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	rows := sqlmock.NewRows([]string{"present", "absent", "late", "excused", "sick", "total", "distinct_days"}).
		AddRow(18, 1, 1, 0, 0, 20, 4)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT a.date)")).
		WithArgs("learner-1").
		WillReturnRows(rows)

	stats, err := repo.Counts(context.Background(), models.AttendanceFilter{LearnerID: "learner-1"})
	require.NoError(t, err)
	require.Equal(t, 18, stats.Present)
	require.Equal(t, 20, stats.Total)
	require.Equal(t, 4, stats.DistinctDays)
	require.NoError(t, mock.ExpectationsWereMet())
}
