package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elimusoft/cbc-admin-api/internal/dto"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	appErrors "github.com/elimusoft/cbc-admin-api/pkg/errors"
	"github.com/elimusoft/cbc-admin-api/pkg/storage"
)

type documentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
	Delete(ctx context.Context, id string) error
}

type documentFiles interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// DocumentConfig bounds accepted uploads.
type DocumentConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// DocumentService manages school document uploads and signed downloads.
type DocumentService struct {
	repo   documentStore
	files  documentFiles
	signer *storage.SignedURLSigner
	audit  auditSink
	logger *zap.Logger
	cfg    DocumentConfig
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(repo documentStore, files documentFiles, signer *storage.SignedURLSigner, audit auditSink, logger *zap.Logger, cfg DocumentConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	return &DocumentService{repo: repo, files: files, signer: signer, audit: audit, logger: logger, cfg: cfg}
}

// Upload validates and stores a file, then records its metadata. The stored
// path is derived from a fresh ID, never from the client-supplied name.
func (s *DocumentService) Upload(ctx context.Context, req dto.UploadDocumentRequest, filename, mimeType string, size int64, r io.Reader, uploadedBy string) (*models.Document, error) {
	if size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrFileTooLarge,
			fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileSizeBytes))
	}
	if !s.mimeAllowed(mimeType) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMIME, fmt.Sprintf("unsupported file type: %s", mimeType))
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = filename
	}
	category := strings.ToUpper(strings.TrimSpace(req.Category))
	if category == "" {
		category = models.DocumentCategoryOther
	}

	id := uuid.NewString()
	storedPath := filepath.Join(time.Now().UTC().Format("2006/01"), id+filepath.Ext(filename))
	if _, err := s.files.SaveStream(storedPath, r); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}

	doc := &models.Document{
		ID:         id,
		Name:       name,
		Size:       size,
		MIMEType:   mimeType,
		Category:   category,
		StoredPath: storedPath,
		UploadedBy: uploadedBy,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if cleanupErr := s.files.Delete(storedPath); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned document file", zap.String("path", storedPath), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist document")
	}
	s.attachURL(doc)
	return doc, nil
}

// List returns documents with fresh signed download URLs.
func (s *DocumentService) List(ctx context.Context, query dto.DocumentQuery) ([]models.Document, *models.Pagination, error) {
	filter := models.DocumentFilter{
		Category: strings.ToUpper(strings.TrimSpace(query.Category)),
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	if docs == nil {
		docs = []models.Document{}
	}
	for i := range docs {
		s.attachURL(&docs[i])
	}
	return docs, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one document with a signed URL.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	s.attachURL(doc)
	return doc, nil
}

// DownloadByToken validates a signed token and opens the underlying file.
func (s *DocumentService) DownloadByToken(ctx context.Context, token string) (*models.Document, *os.File, error) {
	documentID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}

	doc, err := s.repo.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc.StoredPath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "token does not match document")
	}

	file, err := s.files.Open(doc.StoredPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document file")
	}
	return doc, file, nil
}

// Delete removes metadata and the stored file.
func (s *DocumentService) Delete(ctx context.Context, id string, deletedBy string) error {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	if err := s.files.Delete(doc.StoredPath); err != nil {
		s.logger.Warn("document metadata removed but file deletion failed",
			zap.String("document_id", id), zap.Error(err))
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &deletedBy,
			Action:     models.AuditActionDocumentDelete,
			Resource:   "document",
			ResourceID: &id,
			OldValues:  []byte(fmt.Sprintf(`{"name":%q,"category":%q}`, doc.Name, doc.Category)),
		}); err != nil {
			s.logger.Warn("failed to record document audit log", zap.Error(err))
		}
	}
	return nil
}

func (s *DocumentService) attachURL(doc *models.Document) {
	if s.signer == nil {
		return
	}
	token, _, err := s.signer.Generate(doc.ID, doc.StoredPath)
	if err != nil {
		s.logger.Warn("failed to sign document url", zap.String("document_id", doc.ID), zap.Error(err))
		return
	}
	doc.URL = "/api/v1/documents/download?token=" + token
}

func (s *DocumentService) mimeAllowed(mimeType string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, mimeType) {
			return true
		}
	}
	return false
}
