package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	"github.com/elimusoft/cbc-admin-api/pkg/debounce"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
)

type mockParentRepo struct {
	items        map[string]*models.Parent
	listResult   []models.Parent
	listTotal    int
	summary      models.ParentContactSummary
	summaryCalls int
	deleted      []string
}

func (m *mockParentRepo) List(ctx context.Context, filter models.ParentFilter) ([]models.Parent, int, error) {
	return m.listResult, m.listTotal, nil
}

func (m *mockParentRepo) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	if parent, ok := m.items[id]; ok {
		cp := *parent
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockParentRepo) Create(ctx context.Context, parent *models.Parent) error {
	if m.items == nil {
		m.items = make(map[string]*models.Parent)
	}
	if parent.ID == "" {
		parent.ID = "generated"
	}
	cp := *parent
	m.items[parent.ID] = &cp
	return nil
}

func (m *mockParentRepo) Update(ctx context.Context, parent *models.Parent) error {
	cp := *parent
	m.items[parent.ID] = &cp
	return nil
}

func (m *mockParentRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func (m *mockParentRepo) ContactSummary(ctx context.Context) (*models.ParentContactSummary, error) {
	m.summaryCalls++
	cp := m.summary
	return &cp, nil
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]interface{})}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if summary, ok := value.(*models.ParentContactSummary); ok {
		if target, ok := dest.(*models.ParentContactSummary); ok {
			*target = *summary
			return nil
		}
	}
	return appErrors.ErrCacheMiss
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// manualClock collects scheduled callbacks and fires them on demand.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *manualClock) AfterFunc(d time.Duration, fn func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &manualTimer{fn: fn}
	c.timers = append(c.timers, timer)
	return timer
}

func (c *manualClock) firePending() int {
	c.mu.Lock()
	timers := c.timers
	c.timers = nil
	c.mu.Unlock()

	fired := 0
	for _, timer := range timers {
		if timer.stopped {
			continue
		}
		timer.fn()
		fired++
	}
	return fired
}

func newParentService(repo *mockParentRepo, cache summaryCache, clock debounce.Clock) *ParentService {
	return NewParentService(repo, cache, validator.New(), zap.NewNop(), ParentConfig{
		DefaultCountryCode: "+254",
		RefreshDebounce:    time.Second,
		Clock:              clock,
	})
}

func TestNormalizePhone(t *testing.T) {
	service := newParentService(&mockParentRepo{}, nil, &manualClock{})

	cases := map[string]string{
		"0712345678":     "+254712345678",
		"+254712345678":  "+254712345678",
		"254712345678":   "+254712345678",
		"0712 345-678":   "+254712345678",
		"(0712) 345.678": "+254712345678",
		"712345678":      "+254712345678",
		"":               "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, service.NormalizePhone(raw), "raw %q", raw)
	}
}

func TestParentCreateNormalizesPhone(t *testing.T) {
	repo := &mockParentRepo{}
	service := newParentService(repo, nil, &manualClock{})

	parent, err := service.Create(context.Background(), dto.SaveParentRequest{
		FullName:     "Wanjiku Kamau",
		Relationship: "MOTHER",
		Phone:        "0712 345 678",
	})
	require.NoError(t, err)
	assert.Equal(t, "+254712345678", parent.Phone)
}

func TestParentMutationsDebounceSummaryRefresh(t *testing.T) {
	repo := &mockParentRepo{summary: models.ParentContactSummary{Total: 3, WithPhone: 2}}
	cache := newMemoryCache()
	clock := &manualClock{}
	service := newParentService(repo, cache, clock)

	for i := 0; i < 3; i++ {
		_, err := service.Create(context.Background(), dto.SaveParentRequest{
			FullName:     "Parent",
			Relationship: "GUARDIAN",
			Phone:        "0712345678",
		})
		require.NoError(t, err)
	}

	// Three triggers within the window collapse into a single refresh.
	fired := clock.firePending()
	assert.Equal(t, 1, fired)
	assert.Equal(t, 1, repo.summaryCalls)

	var cached models.ParentContactSummary
	require.NoError(t, cache.Get(context.Background(), "parents:contact-summary", &cached))
	assert.Equal(t, 3, cached.Total)
}

func TestParentMutationDropsStaleSummary(t *testing.T) {
	repo := &mockParentRepo{summary: models.ParentContactSummary{Total: 6}}
	cache := newMemoryCache()
	cache.items["parents:contact-summary"] = &models.ParentContactSummary{Total: 5}
	clock := &manualClock{}
	service := newParentService(repo, cache, clock)

	_, err := service.Create(context.Background(), dto.SaveParentRequest{
		FullName:     "Wanjiku Kamau",
		Relationship: "MOTHER",
		Phone:        "0712345678",
	})
	require.NoError(t, err)

	// Before the debounced refresh fires, the stale entry is already gone and
	// reads fall through to the repository.
	var cached models.ParentContactSummary
	err = cache.Get(context.Background(), "parents:contact-summary", &cached)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)

	summary, err := service.ContactSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 1, repo.summaryCalls)
}

func TestParentContactSummaryPrefersCache(t *testing.T) {
	repo := &mockParentRepo{summary: models.ParentContactSummary{Total: 9}}
	cache := newMemoryCache()
	cache.items["parents:contact-summary"] = &models.ParentContactSummary{Total: 5}
	service := newParentService(repo, cache, &manualClock{})

	summary, err := service.ContactSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 0, repo.summaryCalls)
}

func TestWhatsAppLink(t *testing.T) {
	repo := &mockParentRepo{items: map[string]*models.Parent{
		"p1": {ID: "p1", FullName: "Wanjiku Kamau", Phone: "+254712345678"},
		"p2": {ID: "p2", FullName: "No Phone"},
	}}
	service := newParentService(repo, nil, &manualClock{})

	link, err := service.WhatsAppLink(context.Background(), "p1", "Fee reminder")
	require.NoError(t, err)
	assert.Equal(t, "https://wa.me/254712345678?text=Fee+reminder", link.URL)

	_, err = service.WhatsAppLink(context.Background(), "p2", "")
	require.Error(t, err)
}

func TestParentListEmptyResultIsSlice(t *testing.T) {
	service := newParentService(&mockParentRepo{}, nil, &manualClock{})

	parents, pagination, err := service.List(context.Background(), dto.ParentQuery{Search: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, parents)
	assert.Len(t, parents, 0)
	require.NotNil(t, pagination)
	assert.Equal(t, 0, pagination.TotalCount)
}
