package service

import (
	"context"
	"database/sql"
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

type mockTimetableRepo struct {
	slots map[string]*models.TimetableSlot
	next  int
}

func (m *mockTimetableRepo) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableSlotDetail, error) {
	var out []models.TimetableSlotDetail
	for _, slot := range m.slots {
		if filter.Grade != "" && slot.Grade != filter.Grade {
			continue
		}
		out = append(out, models.TimetableSlotDetail{TimetableSlot: *slot})
	}
	return out, nil
}

func (m *mockTimetableRepo) FindByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	if slot, ok := m.slots[id]; ok {
		cp := *slot
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTimetableRepo) HasClassConflict(ctx context.Context, grade, stream string, day, period int, excludeID string) (bool, error) {
	for id, slot := range m.slots {
		if id == excludeID {
			continue
		}
		if slot.Grade == grade && slot.Stream == stream && slot.Day == day && slot.Period == period {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTimetableRepo) HasTeacherConflict(ctx context.Context, teacherID string, day, period int, excludeID string) (bool, error) {
	for id, slot := range m.slots {
		if id == excludeID {
			continue
		}
		if slot.TeacherID == teacherID && slot.Day == day && slot.Period == period {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTimetableRepo) Create(ctx context.Context, slot *models.TimetableSlot) error {
	if m.slots == nil {
		m.slots = make(map[string]*models.TimetableSlot)
	}
	m.next++
	slot.ID = "slot-" + string(rune('0'+m.next))
	cp := *slot
	m.slots[slot.ID] = &cp
	return nil
}

func (m *mockTimetableRepo) Update(ctx context.Context, slot *models.TimetableSlot) error {
	cp := *slot
	m.slots[slot.ID] = &cp
	return nil
}

func (m *mockTimetableRepo) Delete(ctx context.Context, id string) error {
	delete(m.slots, id)
	return nil
}

type mockTeacherLookup struct {
	teachers map[string]*models.Teacher
}

func (m *mockTeacherLookup) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := m.teachers[id]; ok {
		cp := *teacher
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func newTimetableFixture() (*TimetableService, *mockTimetableRepo) {
	repo := &mockTimetableRepo{}
	teachers := &mockTeacherLookup{teachers: map[string]*models.Teacher{
		"t1": {ID: "t1", FullName: "Grace Njeri", Active: true},
		"t2": {ID: "t2", FullName: "John Mwangi", Active: true},
		"t3": {ID: "t3", FullName: "Retired Teacher", Active: false},
	}}
	return NewTimetableService(repo, teachers, validator.New(), zap.NewNop()), repo
}

func slotRequest(grade, stream string, day, period int, teacherID string) dto.SaveTimetableSlotRequest {
	return dto.SaveTimetableSlotRequest{
		Grade:     grade,
		Stream:    stream,
		Day:       day,
		Period:    period,
		Subject:   "Mathematics",
		TeacherID: teacherID,
	}
}

func TestTimetableCreate(t *testing.T) {
	service, repo := newTimetableFixture()

	slot, err := service.Create(context.Background(), slotRequest("4", "A", 1, 1, "t1"))
	require.NoError(t, err)
	assert.NotEmpty(t, slot.ID)
	assert.Len(t, repo.slots, 1)
}

func TestTimetableRejectsClassDoubleBooking(t *testing.T) {
	service, _ := newTimetableFixture()

	_, err := service.Create(context.Background(), slotRequest("4", "A", 1, 1, "t1"))
	require.NoError(t, err)

	_, err = service.Create(context.Background(), slotRequest("4", "A", 1, 1, "t2"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestTimetableRejectsTeacherDoubleBooking(t *testing.T) {
	service, _ := newTimetableFixture()

	_, err := service.Create(context.Background(), slotRequest("4", "A", 2, 3, "t1"))
	require.NoError(t, err)

	// Same teacher, same day and period, different class.
	_, err = service.Create(context.Background(), slotRequest("5", "B", 2, 3, "t1"))
	require.Error(t, err)
}

func TestTimetableRejectsInactiveTeacher(t *testing.T) {
	service, _ := newTimetableFixture()

	_, err := service.Create(context.Background(), slotRequest("4", "A", 1, 1, "t3"))
	require.Error(t, err)
}

func TestTimetableUpdateExcludesSelfFromConflictCheck(t *testing.T) {
	service, _ := newTimetableFixture()

	slot, err := service.Create(context.Background(), slotRequest("4", "A", 1, 1, "t1"))
	require.NoError(t, err)

	// Changing only the subject keeps the same day and period; the slot must
	// not conflict with itself.
	req := slotRequest("4", "A", 1, 1, "t1")
	req.Subject = "Kiswahili"
	updated, err := service.Update(context.Background(), slot.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Kiswahili", updated.Subject)
}

func TestTimetableDelete(t *testing.T) {
	service, repo := newTimetableFixture()

	slot, err := service.Create(context.Background(), slotRequest("4", "A", 1, 1, "t1"))
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), slot.ID))
	assert.Empty(t, repo.slots)

	err = service.Delete(context.Background(), slot.ID)
	require.Error(t, err)
}
