package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
)

type mockAssessmentRepo struct {
	sheets map[models.AssessmentKey][]models.AssessmentRating
	saves  int
}

func (m *mockAssessmentRepo) SaveSheet(ctx context.Context, key models.AssessmentKey, ratings []models.AssessmentRating) error {
	if m.sheets == nil {
		m.sheets = make(map[models.AssessmentKey][]models.AssessmentRating)
	}
	stored := make([]models.AssessmentRating, len(ratings))
	copy(stored, ratings)
	for i := range stored {
		stored[i].LearnerID = key.LearnerID
		stored[i].Kind = key.Kind
		stored[i].Term = key.Term
		stored[i].AcademicYear = key.AcademicYear
	}
	m.sheets[key] = stored
	m.saves++
	return nil
}

func (m *mockAssessmentRepo) GetRatings(ctx context.Context, key models.AssessmentKey) ([]models.AssessmentRating, error) {
	return m.sheets[key], nil
}

func (m *mockAssessmentRepo) ListByLearner(ctx context.Context, learnerID string) ([]models.AssessmentRating, error) {
	var out []models.AssessmentRating
	for _, ratings := range m.sheets {
		for _, r := range ratings {
			if r.LearnerID == learnerID {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (m *mockAssessmentRepo) Distribution(ctx context.Context, grade string, kind models.AssessmentKind, term, academicYear int) ([]models.RatingDistribution, error) {
	return []models.RatingDistribution{{Band: "EE", Count: 2}}, nil
}

type mockAuditSink struct {
	logs []models.AuditLog
}

func (m *mockAuditSink) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func TestGetSheetDefaultsWhenUnassessed(t *testing.T) {
	service := NewAssessmentService(&mockAssessmentRepo{}, nil, validator.New(), zap.NewNop())

	sheet, err := service.GetSheet(context.Background(), models.AssessmentKey{
		LearnerID:    "l1",
		Kind:         models.AssessmentKindCompetency,
		Term:         1,
		AcademicYear: 2026,
	})
	require.NoError(t, err)
	assert.False(t, sheet.Found)
	require.Len(t, sheet.Entries, len(models.Competencies))
	for _, entry := range sheet.Entries {
		assert.Empty(t, entry.Rating)
	}
}

func TestSaveSheetIdempotent(t *testing.T) {
	repo := &mockAssessmentRepo{}
	audit := &mockAuditSink{}
	service := NewAssessmentService(repo, audit, validator.New(), zap.NewNop())

	req := dto.SaveAssessmentRequest{
		LearnerID:    "l1",
		Kind:         "COMPETENCY",
		Term:         2,
		AcademicYear: 2026,
		Entries: []dto.AssessmentEntry{
			{Dimension: "Citizenship", Rating: "ME1"},
			{Dimension: "Digital Literacy", Rating: "EE2"},
		},
	}

	first, err := service.SaveSheet(context.Background(), req, "teacher-1")
	require.NoError(t, err)
	second, err := service.SaveSheet(context.Background(), req, "teacher-1")
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
	assert.True(t, second.Found)
	assert.Equal(t, 2, repo.saves)
	assert.Len(t, audit.logs, 2)
}

func TestFinalizeSheetRecordsClosure(t *testing.T) {
	repo := &mockAssessmentRepo{}
	audit := &mockAuditSink{}
	service := NewAssessmentService(repo, audit, validator.New(), zap.NewNop())

	sheet, err := service.FinalizeSheet(context.Background(), dto.SaveAssessmentRequest{
		LearnerID:    "l1",
		Kind:         "VALUE",
		Term:         1,
		AcademicYear: 2026,
		Entries:      []dto.AssessmentEntry{{Dimension: "Unity", Rating: "EE1"}},
	}, "teacher-1")
	require.NoError(t, err)
	assert.True(t, sheet.Found)

	require.Len(t, audit.logs, 2)
	assert.Equal(t, models.AuditActionAssessmentSave, audit.logs[0].Action)
	assert.Equal(t, models.AuditActionAssessmentDone, audit.logs[1].Action)
}

func TestSaveSheetRejectsInvalidRating(t *testing.T) {
	service := NewAssessmentService(&mockAssessmentRepo{}, nil, validator.New(), zap.NewNop())

	_, err := service.SaveSheet(context.Background(), dto.SaveAssessmentRequest{
		LearnerID:    "l1",
		Kind:         "VALUE",
		Term:         1,
		AcademicYear: 2026,
		Entries:      []dto.AssessmentEntry{{Dimension: "Respect", Rating: "XX9"}},
	}, "teacher-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidRating.Code, appErr.Code)
}

func TestSaveSheetRejectsUnknownDimension(t *testing.T) {
	service := NewAssessmentService(&mockAssessmentRepo{}, nil, validator.New(), zap.NewNop())

	_, err := service.SaveSheet(context.Background(), dto.SaveAssessmentRequest{
		LearnerID:    "l1",
		Kind:         "COMPETENCY",
		Term:         1,
		AcademicYear: 2026,
		Entries:      []dto.AssessmentEntry{{Dimension: "Telepathy", Rating: "EE1"}},
	}, "teacher-1")
	require.Error(t, err)
}

func TestSaveSheetRejectsDuplicateDimension(t *testing.T) {
	service := NewAssessmentService(&mockAssessmentRepo{}, nil, validator.New(), zap.NewNop())

	_, err := service.SaveSheet(context.Background(), dto.SaveAssessmentRequest{
		LearnerID:    "l1",
		Kind:         "COMPETENCY",
		Term:         1,
		AcademicYear: 2026,
		Entries: []dto.AssessmentEntry{
			{Dimension: "Citizenship", Rating: "EE1"},
			{Dimension: "Citizenship", Rating: "ME2"},
		},
	}, "teacher-1")
	require.Error(t, err)
}

func TestSaveSheetPartialThenReadBack(t *testing.T) {
	service := NewAssessmentService(&mockAssessmentRepo{}, nil, validator.New(), zap.NewNop())

	sheet, err := service.SaveSheet(context.Background(), dto.SaveAssessmentRequest{
		LearnerID:    "l1",
		Kind:         "VALUE",
		Term:         3,
		AcademicYear: 2026,
		Entries:      []dto.AssessmentEntry{{Dimension: "Love", Rating: "AE1"}},
	}, "teacher-1")
	require.NoError(t, err)

	assert.True(t, sheet.Found)
	require.Len(t, sheet.Entries, len(models.CoreValues))
	rated := 0
	for _, entry := range sheet.Entries {
		if entry.Rating != "" {
			rated++
			assert.Equal(t, "Love", entry.Dimension)
		}
	}
	assert.Equal(t, 1, rated)
}

func TestRatingCodeBandAndRank(t *testing.T) {
	assert.Equal(t, "EE", models.RatingEE1.Band())
	assert.True(t, models.RatingEE1.Rank() < models.RatingBE2.Rank())
	assert.False(t, models.RatingCode("ZZ1").Valid())
}
