package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/middleware"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	"github.com/elimusoft/cbc-admin-api/internal/service"
)

type fakeTransferRepo struct {
	items map[string]*models.TransferDetail
}

func (f *fakeTransferRepo) Create(ctx context.Context, transfer *models.TransferRecord) error {
	if f.items == nil {
		f.items = make(map[string]*models.TransferDetail)
	}
	if transfer.ID == "" {
		transfer.ID = "tr-1"
	}
	transfer.Status = models.TransferStatusPending
	f.items[transfer.ID] = &models.TransferDetail{TransferRecord: *transfer}
	return nil
}

func (f *fakeTransferRepo) FindByID(ctx context.Context, id string) (*models.TransferDetail, error) {
	if transfer, ok := f.items[id]; ok {
		cp := *transfer
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTransferRepo) List(ctx context.Context, filter models.TransferFilter) ([]models.TransferDetail, int, error) {
	var out []models.TransferDetail
	for _, transfer := range f.items {
		out = append(out, *transfer)
	}
	return out, len(out), nil
}

func (f *fakeTransferRepo) Review(ctx context.Context, id string, status models.TransferStatus, reviewedBy string, note *string, reviewedAt time.Time) (bool, error) {
	transfer, ok := f.items[id]
	if !ok || transfer.Status != models.TransferStatusPending {
		return false, nil
	}
	transfer.Status = status
	transfer.ReviewedBy = &reviewedBy
	transfer.ReviewedAt = &reviewedAt
	return true, nil
}

func (f *fakeTransferRepo) CountByStatus(ctx context.Context) (map[models.TransferStatus]int, error) {
	counts := make(map[models.TransferStatus]int)
	for _, transfer := range f.items {
		counts[transfer.Status]++
	}
	return counts, nil
}

type fakeLearnerStore struct {
	learners    map[string]*models.LearnerDetail
	deactivated []string
}

func (f *fakeLearnerStore) FindByID(ctx context.Context, id string) (*models.LearnerDetail, error) {
	if learner, ok := f.learners[id]; ok {
		cp := *learner
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLearnerStore) Deactivate(ctx context.Context, id string) error {
	f.deactivated = append(f.deactivated, id)
	return nil
}

func newTransferHandlerFixture() (*TransferHandler, *fakeTransferRepo) {
	repo := &fakeTransferRepo{}
	learners := &fakeLearnerStore{learners: map[string]*models.LearnerDetail{
		"l1": {Learner: models.Learner{ID: "l1", Status: models.LearnerStatusActive}},
	}}
	svc := service.NewTransferService(repo, learners, nil, nil, zap.NewNop())
	return NewTransferHandler(svc), repo
}

func postJSON(t *testing.T, target, body string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	return rec, c
}

func TestTransferHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newTransferHandlerFixture()

	rec, c := postJSON(t, "/transfers", `{"learner_id":"l1","direction":"OUT","school":"Upendo Primary","reason":"Family Relocation"}`)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, repo.items, 1)

	var envelope struct {
		Data models.TransferRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, models.TransferStatusPending, envelope.Data.Status)
}

func TestTransferHandlerCreateInvalidDirection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTransferHandlerFixture()

	rec, c := postJSON(t, "/transfers", `{"learner_id":"l1","direction":"SIDEWAYS","school":"X","reason":"Other"}`)
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransferHandlerReviewConflictOnSecondReview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newTransferHandlerFixture()

	rec, c := postJSON(t, "/transfers", `{"learner_id":"l1","direction":"IN","school":"Upendo Primary","reason":"New admission"}`)
	handler.Create(c)
	require.Equal(t, http.StatusCreated, rec.Code)

	var id string
	for key := range repo.items {
		id = key
	}

	rec, c = postJSON(t, "/transfers/"+id+"/review", `{"status":"APPROVED"}`)
	c.Params = gin.Params{{Key: "id", Value: id}}
	handler.Review(c)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, c = postJSON(t, "/transfers/"+id+"/review", `{"status":"REJECTED"}`)
	c.Params = gin.Params{{Key: "id", Value: id}}
	handler.Review(c)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTransferHandlerStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newTransferHandlerFixture()
	repo.items = map[string]*models.TransferDetail{
		"t1": {TransferRecord: models.TransferRecord{ID: "t1", Status: models.TransferStatusPending}},
		"t2": {TransferRecord: models.TransferRecord{ID: "t2", Status: models.TransferStatusRejected}},
	}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/transfers/stats", nil)

	handler.Stats(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.TransferStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.Pending)
	assert.Equal(t, 1, envelope.Data.Rejected)
	assert.Equal(t, 0, envelope.Data.Approved)
}

func TestTransferHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTransferHandlerFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/transfers/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
