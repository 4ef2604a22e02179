package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paperdrive/internal/auth"
	"paperdrive/internal/domain"
	"paperdrive/internal/service/blob"
)

// TemplateStore — контракт хранилища шаблонов.
type TemplateStore interface {
	Create(ctx context.Context, t *domain.Template) error
	GetByTemplateID(ctx context.Context, templateID string) (*domain.Template, error)
	Update(ctx context.Context, t *domain.Template) (string, error)
	Delete(ctx context.Context, templateID string) (string, error)
}

// TemplateService управляет шаблонами документов. Все операции записи
// доступны только администраторам.
type TemplateService struct {
	repo  TemplateStore
	store blob.Storage
	log   *zap.Logger
}

func NewTemplateService(repo TemplateStore, store blob.Storage, log *zap.Logger) *TemplateService {
	return &TemplateService{repo: repo, store: store, log: log}
}

func requireAdmin(caller auth.Identity) error {
	if !caller.HasRole("admin") {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return nil
}

// Upload сохраняет новый шаблон: сначала артефакт, затем запись в базе.
// Осиротевший после ошибки базы блоб удаляется компенсирующим действием.
func (s *TemplateService) Upload(ctx context.Context, caller auth.Identity, templateID, filename, contentType string, content []byte) (*domain.Template, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(templateID) == "" {
		templateID = "tpl_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", domain.ErrValidation)
	}

	key, err := s.store.Put(ctx, blob.CategoryTemplate, filename, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	t := &domain.Template{
		TemplateID:  templateID,
		StorageKey:  key,
		Filename:    filename,
		ContentType: contentType,
		UploaderID:  caller.ID,
		UploadTime:  time.Now(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.log.Warn("failed to delete blob after db error",
				zap.String("storage_key", key),
				zap.Error(derr))
		}
		return nil, err
	}

	s.log.Info("template uploaded", zap.String("template_id", templateID))
	return t, nil
}

// Download открывает артефакт шаблона на чтение вместе с метаданными.
func (s *TemplateService) Download(ctx context.Context, templateID string) (*domain.Template, io.ReadCloser, error) {
	t, err := s.repo.GetByTemplateID(ctx, templateID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, t.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return t, rc, nil
}

// Replace заменяет артефакт существующего шаблона. Прежний артефакт
// удаляется только после успешной фиксации в базе.
func (s *TemplateService) Replace(ctx context.Context, caller auth.Identity, templateID, filename, contentType string, content []byte) (*domain.Template, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", domain.ErrValidation)
	}

	key, err := s.store.Put(ctx, blob.CategoryTemplate, filename, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	t := &domain.Template{
		TemplateID:  templateID,
		StorageKey:  key,
		Filename:    filename,
		ContentType: contentType,
		UploaderID:  caller.ID,
		UploadTime:  time.Now(),
	}
	oldKey, err := s.repo.Update(ctx, t)
	if err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.log.Warn("failed to delete blob after db error",
				zap.String("storage_key", key),
				zap.Error(derr))
		}
		return nil, err
	}

	if oldKey != "" && oldKey != key {
		if derr := s.store.Delete(ctx, oldKey); derr != nil {
			s.log.Warn("failed to delete replaced template blob",
				zap.String("storage_key", oldKey),
				zap.Error(derr))
		}
	}

	s.log.Info("template replaced", zap.String("template_id", templateID))
	return t, nil
}

// Remove удаляет шаблон и его артефакт.
func (s *TemplateService) Remove(ctx context.Context, caller auth.Identity, templateID string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}

	key, err := s.repo.Delete(ctx, templateID)
	if err != nil {
		return err
	}
	if key != "" {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.log.Warn("failed to delete template blob",
				zap.String("storage_key", key),
				zap.Error(derr))
		}
	}

	s.log.Info("template removed", zap.String("template_id", templateID))
	return nil
}
