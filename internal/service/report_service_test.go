package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/models"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
)

func newReportFixture(assessments *mockAssessmentRepo) *ReportService {
	assessmentSvc := NewAssessmentService(assessments, nil, validator.New(), zap.NewNop())
	return NewReportService(nil, assessmentSvc, nil, zap.NewNop(), time.Minute)
}

func parseCSVExport(t *testing.T, data []byte) [][]string {
	t.Helper()
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

type patternCache struct {
	items map[string]interface{}
}

func newPatternCache() *patternCache {
	return &patternCache{items: make(map[string]interface{})}
}

func (c *patternCache) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if out, ok := dest.(*[]models.RatingDistribution); ok {
		*out = value.([]models.RatingDistribution)
	}
	return nil
}

func (c *patternCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.items[key] = value
	return nil
}

func (c *patternCache) Delete(ctx context.Context, key string) error {
	delete(c.items, key)
	return nil
}

func (c *patternCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

func TestInvalidateRatingsDropsCachedDistribution(t *testing.T) {
	repo := &mockAssessmentRepo{}
	cache := newPatternCache()
	assessmentSvc := NewAssessmentService(repo, nil, validator.New(), zap.NewNop())
	service := NewReportService(nil, assessmentSvc, cache, zap.NewNop(), time.Minute)

	_, err := service.RatingDistribution(context.Background(), "4", "COMPETENCY", 1, 2026)
	require.NoError(t, err)
	require.Len(t, cache.items, 1)

	service.InvalidateRatings(context.Background())
	assert.Empty(t, cache.items)

	// A later read repopulates from the repository.
	dist, err := service.RatingDistribution(context.Background(), "4", "COMPETENCY", 1, 2026)
	require.NoError(t, err)
	require.Len(t, cache.items, 1)
	require.NotEmpty(t, dist)
}

func TestExportReportCardCoversBothSheets(t *testing.T) {
	repo := &mockAssessmentRepo{sheets: map[models.AssessmentKey][]models.AssessmentRating{
		{LearnerID: "l1", Kind: models.AssessmentKindCompetency, Term: 2, AcademicYear: 2026}: {
			{LearnerID: "l1", Dimension: "Citizenship", Rating: models.RatingME1},
		},
	}}
	service := newReportFixture(repo)

	data, contentType, err := service.ExportReportCard(context.Background(), "l1", 2, 2026, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	rows := parseCSVExport(t, data)
	// Header plus every competency and core value dimension.
	require.Len(t, rows, 1+len(models.Competencies)+len(models.CoreValues))

	var rated bool
	for _, row := range rows[1:] {
		if row[1] == "Citizenship" {
			rated = true
			assert.Equal(t, "ME1", row[2])
			assert.Equal(t, "ME", row[3])
		}
	}
	assert.True(t, rated)
}

func TestExportReportCardRejectsUnknownFormat(t *testing.T) {
	service := newReportFixture(&mockAssessmentRepo{})

	_, _, err := service.ExportReportCard(context.Background(), "l1", 1, 2026, "xlsx")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportRatingDistributionRendersCSV(t *testing.T) {
	service := newReportFixture(&mockAssessmentRepo{})

	data, err := service.ExportRatingDistribution(context.Background(), "4", "COMPETENCY", 1, 2026)
	require.NoError(t, err)

	rows := parseCSVExport(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Band", "Count"}, rows[0])
	assert.Equal(t, []string{"EE", "2"}, rows[1])
}
