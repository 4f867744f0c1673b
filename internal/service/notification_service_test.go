package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	"github.com/elimusoft/cbc-admin-api/pkg/jobs"
)

type mockAnnouncementRepo struct {
	items      map[string]*models.Announcement
	sentCounts map[string]int
}

func (m *mockAnnouncementRepo) Create(ctx context.Context, announcement *models.Announcement) error {
	if m.items == nil {
		m.items = make(map[string]*models.Announcement)
	}
	if announcement.ID == "" {
		announcement.ID = "ann-1"
	}
	cp := *announcement
	m.items[announcement.ID] = &cp
	return nil
}

func (m *mockAnnouncementRepo) UpdateSentCount(ctx context.Context, id string, sent int) error {
	if m.sentCounts == nil {
		m.sentCounts = make(map[string]int)
	}
	m.sentCounts[id] = sent
	if announcement, ok := m.items[id]; ok {
		announcement.Sent = sent
	}
	return nil
}

func (m *mockAnnouncementRepo) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	if announcement, ok := m.items[id]; ok {
		cp := *announcement
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAnnouncementRepo) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	var out []models.Announcement
	for _, announcement := range m.items {
		out = append(out, *announcement)
	}
	return out, len(out), nil
}

type mockRecipients struct {
	all       []models.Parent
	byGrade   map[string][]models.Parent
	byLearner map[string][]models.Parent
}

func (m *mockRecipients) All(ctx context.Context) ([]models.Parent, error) {
	return m.all, nil
}

func (m *mockRecipients) ListByGrade(ctx context.Context, grade string) ([]models.Parent, error) {
	return m.byGrade[grade], nil
}

func (m *mockRecipients) ListByLearner(ctx context.Context, learnerID string) ([]models.Parent, error) {
	return m.byLearner[learnerID], nil
}

type mockQueue struct {
	jobs []jobs.Job
}

func (m *mockQueue) Enqueue(job jobs.Job) error {
	m.jobs = append(m.jobs, job)
	return nil
}

func identityNormalize(s string) string { return s }

func TestAnnounceSkipsPhonelessParents(t *testing.T) {
	repo := &mockAnnouncementRepo{}
	recipients := &mockRecipients{all: []models.Parent{
		{ID: "p1", Phone: "+254712345678"},
		{ID: "p2"},
		{ID: "p3", Phone: "+254798765432"},
	}}
	queue := &mockQueue{}
	service := NewNotificationService(repo, recipients, queue, identityNormalize, validator.New(), zap.NewNop())

	announcement, err := service.Announce(context.Background(), dto.CreateAnnouncementRequest{
		Title:   "Closing Day",
		Content: "School closes Friday at noon.",
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 2, announcement.Sent)
	assert.Len(t, queue.jobs, 2)
	assert.Equal(t, 2, repo.sentCounts[announcement.ID])
}

func TestAnnounceTargetsGrade(t *testing.T) {
	repo := &mockAnnouncementRepo{}
	recipients := &mockRecipients{
		all: []models.Parent{{ID: "p1", Phone: "+254700000001"}, {ID: "p2", Phone: "+254700000002"}},
		byGrade: map[string][]models.Parent{
			"4": {{ID: "p2", Phone: "+254700000002"}},
		},
	}
	queue := &mockQueue{}
	service := NewNotificationService(repo, recipients, queue, identityNormalize, validator.New(), zap.NewNop())

	grade := "4"
	announcement, err := service.Announce(context.Background(), dto.CreateAnnouncementRequest{
		Title:   "Grade 4 Trip",
		Content: "Permission slips due Monday.",
		Grade:   &grade,
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, announcement.Sent)
	require.Len(t, queue.jobs, 1)

	delivery, ok := queue.jobs[0].Payload.(AnnouncementDelivery)
	require.True(t, ok)
	assert.Equal(t, "p2", delivery.ParentID)
}

func TestNotifyAssessmentTargetsGuardians(t *testing.T) {
	repo := &mockAnnouncementRepo{}
	recipients := &mockRecipients{
		all: []models.Parent{{ID: "p1", Phone: "+254700000001"}, {ID: "p2", Phone: "+254700000002"}},
		byLearner: map[string][]models.Parent{
			"l1": {{ID: "p1", Phone: "+254700000001"}, {ID: "p3"}},
		},
	}
	queue := &mockQueue{}
	service := NewNotificationService(repo, recipients, queue, identityNormalize, validator.New(), zap.NewNop())

	announcement, err := service.NotifyAssessment(context.Background(), dto.AssessmentNotificationRequest{
		LearnerID:    "l1",
		Term:         2,
		AcademicYear: 2026,
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, announcement.Sent)
	require.Len(t, queue.jobs, 1)

	delivery, ok := queue.jobs[0].Payload.(AnnouncementDelivery)
	require.True(t, ok)
	assert.Equal(t, "p1", delivery.ParentID)
	assert.Contains(t, delivery.Content, "Term 2 2026")
}

func TestDeliveryHandlerCountsProcessedJobs(t *testing.T) {
	service := NewNotificationService(&mockAnnouncementRepo{}, &mockRecipients{}, &mockQueue{}, identityNormalize, validator.New(), zap.NewNop())

	handler := service.DeliveryHandler()
	err := handler(context.Background(), jobs.Job{
		ID:      "ann-1:p1",
		Type:    "announcement",
		Payload: AnnouncementDelivery{AnnouncementID: "ann-1", ParentID: "p1"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), service.Delivered())

	// Unexpected payloads are dropped without error so the queue drains.
	require.NoError(t, handler(context.Background(), jobs.Job{ID: "bad", Type: "announcement", Payload: 42}))
	assert.Equal(t, int64(1), service.Delivered())
}

func TestTestWhatsAppUsesNormalizer(t *testing.T) {
	normalize := func(raw string) string { return "+254712345678" }
	service := NewNotificationService(&mockAnnouncementRepo{}, &mockRecipients{}, &mockQueue{}, normalize, validator.New(), zap.NewNop())

	link, err := service.TestWhatsApp(dto.WhatsAppTestRequest{Phone: "0712345678", Message: "Habari"})
	require.NoError(t, err)
	assert.Equal(t, "https://wa.me/254712345678?text=Habari", link.URL)
}
