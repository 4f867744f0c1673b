package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
)

type mockAttendanceRepo struct {
	records map[string]models.AttendanceRecord
	stats   models.AttendanceStats
}

func attendanceKey(learnerID string, date time.Time) string {
	return learnerID + "|" + date.Format("2006-01-02")
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	if m.records == nil {
		m.records = make(map[string]models.AttendanceRecord)
	}
	if record.ID == "" {
		record.ID = "generated"
	}
	m.records[attendanceKey(record.LearnerID, record.Date)] = *record
	return nil
}

func (m *mockAttendanceRepo) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	for i := range records {
		if err := m.Upsert(ctx, &records[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error) {
	var out []models.AttendanceRecordDetail
	for _, record := range m.records {
		if filter.LearnerID != "" && record.LearnerID != filter.LearnerID {
			continue
		}
		out = append(out, models.AttendanceRecordDetail{AttendanceRecord: record})
	}
	return out, len(out), nil
}

func (m *mockAttendanceRepo) DayReport(ctx context.Context, grade, stream string, date time.Time) ([]models.DayReportRow, error) {
	var rows []models.DayReportRow
	for _, record := range m.records {
		if !record.Date.Equal(date) {
			continue
		}
		rows = append(rows, models.DayReportRow{
			LearnerID: record.LearnerID,
			Status:    record.Status,
			Remark:    record.Remark,
		})
	}
	return rows, nil
}

func (m *mockAttendanceRepo) Counts(ctx context.Context, filter models.AttendanceFilter) (*models.AttendanceStats, error) {
	cp := m.stats
	return &cp, nil
}

type mockRoster struct {
	ids []string
}

func (m *mockRoster) ListIDsByClass(ctx context.Context, grade, stream string) ([]string, error) {
	return m.ids, nil
}

func TestAttendanceMarkThenDayReport(t *testing.T) {
	repo := &mockAttendanceRepo{}
	service := NewAttendanceService(repo, &mockRoster{}, validator.New(), zap.NewNop())

	record, err := service.Mark(context.Background(), dto.MarkAttendanceRequest{
		LearnerID: "l1",
		Date:      "2026-03-02",
		Status:    "absent",
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusAbsent, record.Status)

	rows, err := service.DayReport(context.Background(), "4", "A", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "l1", rows[0].LearnerID)
	assert.Equal(t, models.AttendanceStatusAbsent, rows[0].Status)
}

func TestAttendanceRemarkOverwrites(t *testing.T) {
	repo := &mockAttendanceRepo{}
	service := NewAttendanceService(repo, &mockRoster{}, validator.New(), zap.NewNop())

	_, err := service.Mark(context.Background(), dto.MarkAttendanceRequest{
		LearnerID: "l1", Date: "2026-03-02", Status: "ABSENT",
	}, "user-1")
	require.NoError(t, err)
	_, err = service.Mark(context.Background(), dto.MarkAttendanceRequest{
		LearnerID: "l1", Date: "2026-03-02", Status: "LATE",
	}, "user-1")
	require.NoError(t, err)

	require.Len(t, repo.records, 1)
	for _, record := range repo.records {
		assert.Equal(t, models.AttendanceStatusLate, record.Status)
	}
}

func TestAttendanceMarkRejectsUnknownStatus(t *testing.T) {
	service := NewAttendanceService(&mockAttendanceRepo{}, &mockRoster{}, validator.New(), zap.NewNop())

	_, err := service.Mark(context.Background(), dto.MarkAttendanceRequest{
		LearnerID: "l1", Date: "2026-03-02", Status: "AWOL",
	}, "user-1")
	require.Error(t, err)
}

func TestBulkMarkFillsRemainderPresent(t *testing.T) {
	repo := &mockAttendanceRepo{}
	roster := &mockRoster{ids: []string{"l1", "l2", "l3"}}
	service := NewAttendanceService(repo, roster, validator.New(), zap.NewNop())

	count, err := service.BulkMark(context.Background(), dto.BulkMarkAttendanceRequest{
		Grade:          "4",
		Stream:         "A",
		Date:           "2026-03-02",
		MarkAllPresent: true,
		Entries: []dto.MarkAttendanceRequest{
			{LearnerID: "l2", Date: "2026-03-02", Status: "SICK"},
		},
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	date, _ := time.Parse("2006-01-02", "2026-03-02")
	assert.Equal(t, models.AttendanceStatusSick, repo.records[attendanceKey("l2", date)].Status)
	assert.Equal(t, models.AttendanceStatusPresent, repo.records[attendanceKey("l1", date)].Status)
	assert.Equal(t, models.AttendanceStatusPresent, repo.records[attendanceKey("l3", date)].Status)
}

func TestBulkMarkCoversClassesBeyondOnePage(t *testing.T) {
	repo := &mockAttendanceRepo{}
	ids := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		ids = append(ids, "l"+strconv.Itoa(i))
	}
	roster := &mockRoster{ids: ids}
	service := NewAttendanceService(repo, roster, validator.New(), zap.NewNop())

	count, err := service.BulkMark(context.Background(), dto.BulkMarkAttendanceRequest{
		Grade:          "4",
		Stream:         "A",
		Date:           "2026-03-02",
		MarkAllPresent: true,
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 120, count)
	assert.Len(t, repo.records, 120)
}

func TestAttendanceStatsPercentage(t *testing.T) {
	cases := []struct {
		present int
		total   int
		want    int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{5, 5, 100},
		{1, 200, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, attendancePercentage(tc.present, tc.total), "present=%d total=%d", tc.present, tc.total)
	}
}

func TestAttendanceStatsEmptySetIsNotError(t *testing.T) {
	repo := &mockAttendanceRepo{}
	service := NewAttendanceService(repo, &mockRoster{}, validator.New(), zap.NewNop())

	stats, err := service.Stats(context.Background(), dto.AttendanceQuery{Grade: "4"})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Percentage)
	assert.Equal(t, 0, stats.Total)
}
