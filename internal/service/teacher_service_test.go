package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
)

type mockStaffRepo struct {
	items           map[string]*models.Teacher
	emailIndex      map[string]string
	passwordUpdates map[string]string
	deactivated     []string
}

func (m *mockStaffRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var out []models.Teacher
	for _, teacher := range m.items {
		out = append(out, *teacher)
	}
	return out, len(out), nil
}

func (m *mockStaffRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := m.items[id]; ok {
		cp := *teacher
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStaffRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	if owner, ok := m.emailIndex[email]; ok {
		if excludeID == "" || owner != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStaffRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if m.items == nil {
		m.items = make(map[string]*models.Teacher)
	}
	if m.emailIndex == nil {
		m.emailIndex = make(map[string]string)
	}
	if teacher.ID == "" {
		teacher.ID = "generated"
	}
	cp := *teacher
	m.items[teacher.ID] = &cp
	m.emailIndex[teacher.Email] = teacher.ID
	return nil
}

func (m *mockStaffRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	stored := m.items[teacher.ID]
	cp := *teacher
	// Email is not part of the repository update statement.
	cp.Email = stored.Email
	cp.PasswordHash = stored.PasswordHash
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockStaffRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.passwordUpdates == nil {
		m.passwordUpdates = make(map[string]string)
	}
	m.passwordUpdates[id] = passwordHash
	if teacher, ok := m.items[id]; ok {
		teacher.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockStaffRepo) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	if teacher, ok := m.items[id]; ok {
		teacher.Active = false
	}
	return nil
}

func TestTeacherCreateHashesPassword(t *testing.T) {
	repo := &mockStaffRepo{}
	service := NewTeacherService(repo, validator.New(), zap.NewNop())

	teacher, err := service.Create(context.Background(), dto.CreateTeacherRequest{
		FullName: "Grace Njeri",
		Email:    "Grace.Njeri@Example.com",
		Password: "super-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "grace.njeri@example.com", teacher.Email)
	assert.Equal(t, string(models.RoleTeacher), teacher.Role)
	assert.True(t, teacher.Active)
	require.NotEmpty(t, teacher.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte("super-secret")))
}

func TestTeacherJSONNeverLeaksPasswordHash(t *testing.T) {
	teacher := models.Teacher{ID: "t1", FullName: "Grace Njeri", PasswordHash: "hash"}
	raw, err := json.Marshal(teacher)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hash")
	assert.NotContains(t, string(raw), "password")
}

func TestTeacherCreateDuplicateEmail(t *testing.T) {
	repo := &mockStaffRepo{emailIndex: map[string]string{"grace@example.com": "other"}}
	service := NewTeacherService(repo, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), dto.CreateTeacherRequest{
		FullName: "Grace Njeri",
		Email:    "grace@example.com",
		Password: "super-secret",
	})
	require.Error(t, err)
}

func TestTeacherUpdateKeepsEmailAndHash(t *testing.T) {
	repo := &mockStaffRepo{
		items: map[string]*models.Teacher{
			"t1": {ID: "t1", FullName: "Grace Njeri", Email: "grace@example.com", PasswordHash: "original", Active: true},
		},
	}
	service := NewTeacherService(repo, validator.New(), zap.NewNop())

	updated, err := service.Update(context.Background(), "t1", dto.UpdateTeacherRequest{
		FullName: "Grace N. Njeri",
		Subjects: "Mathematics, Science",
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace N. Njeri", updated.FullName)

	stored := repo.items["t1"]
	assert.Equal(t, "grace@example.com", stored.Email)
	assert.Equal(t, "original", stored.PasswordHash)
	assert.Empty(t, repo.passwordUpdates)
}

func TestTeacherUpdateChangesPasswordWhenProvided(t *testing.T) {
	repo := &mockStaffRepo{
		items: map[string]*models.Teacher{
			"t1": {ID: "t1", FullName: "Grace Njeri", Email: "grace@example.com", PasswordHash: "original", Active: true},
		},
	}
	service := NewTeacherService(repo, validator.New(), zap.NewNop())

	_, err := service.Update(context.Background(), "t1", dto.UpdateTeacherRequest{
		FullName: "Grace Njeri",
		Password: "new-password",
	})
	require.NoError(t, err)
	require.Contains(t, repo.passwordUpdates, "t1")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwordUpdates["t1"]), []byte("new-password")))
}

func TestTeacherDeactivate(t *testing.T) {
	repo := &mockStaffRepo{
		items: map[string]*models.Teacher{
			"t1": {ID: "t1", FullName: "Grace Njeri", Active: true},
		},
	}
	service := NewTeacherService(repo, validator.New(), zap.NewNop())

	require.NoError(t, service.Deactivate(context.Background(), "t1"))
	assert.False(t, repo.items["t1"].Active)

	err := service.Deactivate(context.Background(), "missing")
	require.Error(t, err)
}
