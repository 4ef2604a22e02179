package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"paperdrive/internal/domain"
)

// DocumentStore — контракт хранилища вложений.
type DocumentStore interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
}

// DocumentService принимает небольшие вложения, содержимое которых
// хранится прямо в базе, минуя блоб-хранилище.
type DocumentService struct {
	repo     DocumentStore
	maxBytes int64
	log      *zap.Logger
}

func NewDocumentService(repo DocumentStore, maxBytes int64, log *zap.Logger) *DocumentService {
	return &DocumentService{repo: repo, maxBytes: maxBytes, log: log}
}

// Upload сохраняет вложение.
func (s *DocumentService) Upload(ctx context.Context, filename, contentType string, content []byte) (*domain.Document, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", domain.ErrValidation)
	}
	if int64(len(content)) > s.maxBytes {
		return nil, fmt.Errorf("%w: file size exceeds %d bytes", domain.ErrValidation, s.maxBytes)
	}

	doc := &domain.Document{
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.log.Info("document uploaded",
		zap.Int64("document_id", doc.ID),
		zap.String("filename", filename))
	return doc, nil
}

// Download возвращает вложение вместе с содержимым.
func (s *DocumentService) Download(ctx context.Context, id int64) (*domain.Document, error) {
	return s.repo.GetByID(ctx, id)
}
