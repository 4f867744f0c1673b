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

func newLearnerRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func learnerRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "admission_number", "full_name", "gender", "birth_date", "grade", "stream", "status", "created_at", "updated_at"})
	for i, id := range ids {
		rows.AddRow(id, "ADM-00"+id, "Learner "+id, "F", nil, "Grade 4", "North", "ACTIVE", time.Now().Add(time.Duration(i)*time.Second), time.Now())
	}
	return rows
}

func TestLearnerRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newLearnerRepoMock(t)
	defer cleanup()

	repo := NewLearnerRepository(db)
	status := models.LearnerStatusActive
	mock.ExpectQuery(regexp.QuoteMeta("SELECT l.id, l.admission_number")).
		WithArgs("Grade 4", "North", status, "%ami%").
		WillReturnRows(learnerRows("1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("Grade 4", "North", status, "%ami%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	learners, total, err := repo.List(context.Background(), models.LearnerFilter{
		Grade:  "Grade 4",
		Stream: "North",
		Status: &status,
		Search: "Ami",
	})
	require.NoError(t, err)
	require.Len(t, learners, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLearnerRepositoryListEmptyResult(t *testing.T) {
	db, mock, cleanup := newLearnerRepoMock(t)
	defer cleanup()

	repo := NewLearnerRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT l.id, l.admission_number")).
		WithArgs("%zzz%").
		WillReturnRows(learnerRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("%zzz%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	learners, total, err := repo.List(context.Background(), models.LearnerFilter{Search: "zzz"})
	require.NoError(t, err)
	require.Empty(t, learners)
	require.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLearnerRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newLearnerRepoMock(t)
	defer cleanup()

	repo := NewLearnerRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO learners")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	learner := &models.Learner{
		AdmissionNumber: "ADM-001",
		FullName:        "Amina Wanjiru",
		Gender:          "F",
		Grade:           "Grade 4",
		Stream:          "North",
		Status:          models.LearnerStatusActive,
	}
	require.NoError(t, repo.Create(context.Background(), learner))
	require.NotEmpty(t, learner.ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, admission_number")).
		WithArgs(learner.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "admission_number", "full_name", "gender", "birth_date", "grade", "stream", "status", "created_at", "updated_at"}).
			AddRow(learner.ID, "ADM-001", "Amina Wanjiru", "F", nil, "Grade 4", "North", "ACTIVE", time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT parent_id FROM parent_learners")).
		WithArgs(learner.ID).
		WillReturnRows(sqlmock.NewRows([]string{"parent_id"}).AddRow("parent-1"))

	detail, err := repo.FindByID(context.Background(), learner.ID)
	require.NoError(t, err)
	require.Equal(t, "Amina Wanjiru", detail.FullName)
	require.Equal(t, []string{"parent-1"}, detail.GuardianIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLearnerRepositoryExistsByAdmissionNumber(t *testing.T) {
	db, mock, cleanup := newLearnerRepoMock(t)
	defer cleanup()

	repo := NewLearnerRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM learners")).
		WithArgs("ADM-001").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByAdmissionNumber(context.Background(), "ADM-001", "")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM learners")).
		WithArgs("ADM-999", "learner-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsByAdmissionNumber(context.Background(), "ADM-999", "learner-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLearnerRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newLearnerRepoMock(t)
	defer cleanup()

	repo := NewLearnerRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE learners SET status")).
		WithArgs("learner-1", models.LearnerStatusInactive, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "learner-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
