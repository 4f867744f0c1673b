package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	"github.com/elimusoft/cbc-admin-api/pkg/debounce"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
)

const contactSummaryCacheKey = "parents:contact-summary"

type parentStore interface {
	List(ctx context.Context, filter models.ParentFilter) ([]models.Parent, int, error)
	FindByID(ctx context.Context, id string) (*models.Parent, error)
	Create(ctx context.Context, parent *models.Parent) error
	Update(ctx context.Context, parent *models.Parent) error
	Delete(ctx context.Context, id string) error
	ContactSummary(ctx context.Context) (*models.ParentContactSummary, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ParentConfig tunes contact handling and summary caching.
type ParentConfig struct {
	DefaultCountryCode string
	ContactCacheTTL    time.Duration
	RefreshDebounce    time.Duration
	Clock              debounce.Clock
}

// ParentService orchestrates guardian management. Mutations trigger a debounced
// recomputation of the cached contact summary so bursts of edits coalesce into
// one refresh.
type ParentService struct {
	repo      parentStore
	cache     summaryCache
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ParentConfig
	refresher *debounce.Debouncer
}

// NewParentService constructs a ParentService.
func NewParentService(repo parentStore, cache summaryCache, validate *validator.Validate, logger *zap.Logger, cfg ParentConfig) *ParentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.DefaultCountryCode == "" {
		cfg.DefaultCountryCode = "+254"
	}
	if cfg.ContactCacheTTL <= 0 {
		cfg.ContactCacheTTL = 10 * time.Minute
	}
	s := &ParentService{repo: repo, cache: cache, validator: validate, logger: logger, cfg: cfg}
	s.refresher = debounce.New(cfg.RefreshDebounce, s.refreshContactSummary, cfg.Clock)
	return s
}

// List returns parents matching the query.
func (s *ParentService) List(ctx context.Context, query dto.ParentQuery) ([]models.Parent, *models.Pagination, error) {
	filter := models.ParentFilter{
		Search:    strings.TrimSpace(query.Search),
		LearnerID: query.LearnerID,
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	parents, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parents")
	}
	if parents == nil {
		parents = []models.Parent{}
	}
	return parents, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one parent.
func (s *ParentService) Get(ctx context.Context, id string) (*models.Parent, error) {
	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}
	return parent, nil
}

// Create registers a guardian, normalising the phone number.
func (s *ParentService) Create(ctx context.Context, req dto.SaveParentRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}

	parent := &models.Parent{
		FullName:     strings.TrimSpace(req.FullName),
		Relationship: strings.TrimSpace(req.Relationship),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        s.NormalizePhone(req.Phone),
		LearnerIDs:   pq.StringArray(req.LearnerIDs),
	}
	if err := s.repo.Create(ctx, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parent")
	}
	s.invalidateSummary(ctx)
	s.refresher.Trigger()
	return parent, nil
}

// Update edits a guardian and replaces learner linkage.
func (s *ParentService) Update(ctx context.Context, id string, req dto.SaveParentRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}

	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}

	parent.FullName = strings.TrimSpace(req.FullName)
	parent.Relationship = strings.TrimSpace(req.Relationship)
	parent.Email = strings.ToLower(strings.TrimSpace(req.Email))
	parent.Phone = s.NormalizePhone(req.Phone)
	parent.LearnerIDs = pq.StringArray(req.LearnerIDs)

	if err := s.repo.Update(ctx, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update parent")
	}
	s.invalidateSummary(ctx)
	s.refresher.Trigger()
	return parent, nil
}

// Delete removes a guardian.
func (s *ParentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete parent")
	}
	s.invalidateSummary(ctx)
	s.refresher.Trigger()
	return nil
}

// ContactSummary returns reachability counts, preferring the cached copy.
func (s *ParentService) ContactSummary(ctx context.Context) (*models.ParentContactSummary, error) {
	if s.cache != nil {
		var cached models.ParentContactSummary
		if err := s.cache.Get(ctx, contactSummaryCacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("contact summary cache read failed", zap.Error(err))
		}
	}

	summary, err := s.repo.ContactSummary(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute contact summary")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, contactSummaryCacheKey, summary, s.cfg.ContactCacheTTL); err != nil {
			s.logger.Warn("contact summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// WhatsAppLink builds a wa.me deep link for a guardian's normalised number.
func (s *ParentService) WhatsAppLink(ctx context.Context, id string, message string) (*models.WhatsAppLink, error) {
	parent, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if parent.Phone == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "parent has no phone number on record")
	}
	return buildWhatsAppLink(parent.Phone, message), nil
}

// NormalizePhone converts a raw number into E.164 using the configured country
// code. Formatting characters are stripped first; a leading zero is replaced
// by the country code, a bare country prefix gains "+", and anything already
// in "+..." form passes through.
func (s *ParentService) NormalizePhone(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '(', ')', '-', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if cleaned == "" {
		return ""
	}

	cc := s.cfg.DefaultCountryCode
	bareCC := strings.TrimPrefix(cc, "+")
	switch {
	case strings.HasPrefix(cleaned, "+"):
		return cleaned
	case strings.HasPrefix(cleaned, "0"):
		return cc + cleaned[1:]
	case strings.HasPrefix(cleaned, bareCC):
		return "+" + cleaned
	default:
		return cc + cleaned
	}
}

func buildWhatsAppLink(phone, message string) *models.WhatsAppLink {
	digits := strings.TrimPrefix(phone, "+")
	link := "https://wa.me/" + digits
	if message != "" {
		link = fmt.Sprintf("%s?text=%s", link, url.QueryEscape(message))
	}
	return &models.WhatsAppLink{Phone: phone, URL: link}
}

// invalidateSummary drops the cached summary immediately so reads between a
// mutation and the debounced refresh recompute instead of serving stale counts.
func (s *ParentService) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, contactSummaryCacheKey); err != nil {
		s.logger.Warn("contact summary cache invalidation failed", zap.Error(err))
	}
}

func (s *ParentService) refreshContactSummary() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	summary, err := s.repo.ContactSummary(ctx)
	if err != nil {
		s.logger.Warn("debounced contact summary refresh failed", zap.Error(err))
		return
	}
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, contactSummaryCacheKey, summary, s.cfg.ContactCacheTTL); err != nil {
		s.logger.Warn("contact summary cache write failed", zap.Error(err))
	}
}
