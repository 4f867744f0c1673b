package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/elimusoft/cbc-admin-api/internal/models"
)

type mockAuthRepo struct {
	users         map[string]*models.User
	usersByEmail  map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	revokedAll    []string
	auditLogs     []models.AuditLog
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:         make(map[string]*models.User),
		usersByEmail:  make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
	}
}

func (m *mockAuthRepo) addUser(user *models.User) {
	m.users[user.ID] = user
	m.usersByEmail[user.Email] = user
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if user, ok := m.users[id]; ok {
		user.LastLogin = &ts
	}
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if user, ok := m.users[id]; ok {
		user.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	for _, token := range m.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	cp := *token
	m.refreshTokens[token.Token] = &cp
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := m.refreshTokens[token]; ok {
		cp := *stored
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, *log)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthRepo) {
	t.Helper()
	repo := newMockAuthRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.addUser(&models.User{
		ID:           "u1",
		Email:        "admin@school.ke",
		FullName:     "School Admin",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Active:       true,
	})
	service := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "cbc-admin-api",
	})
	return service, repo
}

func TestLoginSuccess(t *testing.T) {
	service, repo := newAuthFixture(t)

	resp, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.ke",
		Password: "correct-password",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Len(t, repo.refreshTokens, 1)

	claims, err := service.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	service, _ := newAuthFixture(t)

	_, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.ke",
		Password: "wrong",
	})
	require.Error(t, err)
}

func TestLoginInactiveAccount(t *testing.T) {
	service, repo := newAuthFixture(t)
	repo.users["u1"].Active = false
	repo.usersByEmail["admin@school.ke"].Active = false

	_, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.ke",
		Password: "correct-password",
	})
	require.Error(t, err)
}

func TestRefreshTokenRotation(t *testing.T) {
	service, repo := newAuthFixture(t)

	login, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.ke",
		Password: "correct-password",
	})
	require.NoError(t, err)

	refreshed, err := service.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked)

	// The rotated-out token cannot be used again.
	_, err = service.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.Error(t, err)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	service, repo := newAuthFixture(t)

	_, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.ke",
		Password: "correct-password",
	})
	require.NoError(t, err)

	err = service.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "correct-password",
		NewPassword: "brand-new-password",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.revokedAll, "u1")

	_, err = service.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.ke",
		Password: "brand-new-password",
	})
	require.NoError(t, err)
}

func TestChangePasswordWrongOldPassword(t *testing.T) {
	service, _ := newAuthFixture(t)

	err := service.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "brand-new-password",
	})
	require.Error(t, err)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	service, _ := newAuthFixture(t)

	login, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.ke",
		Password: "correct-password",
	})
	require.NoError(t, err)

	_, err = service.ValidateToken(login.AccessToken + "x")
	require.Error(t, err)
	_, err = service.ValidateToken("not-a-token")
	require.Error(t, err)
}
