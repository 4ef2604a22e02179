package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"paperdrive/internal/domain"
)

type TemplateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, t *domain.Template) error {
	query := `
        INSERT INTO templates (template_id, storage_key, filename, content_type, uploader_id, upload_time)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		t.TemplateID,
		t.StorageKey,
		t.Filename,
		t.ContentType,
		t.UploaderID,
		t.UploadTime,
	).Scan(&t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: template %s", domain.ErrConflict, t.TemplateID)
		}
		return fmt.Errorf("%w: failed to insert template: %v", domain.ErrStorage, err)
	}
	return nil
}

func (r *TemplateRepository) GetByTemplateID(ctx context.Context, templateID string) (*domain.Template, error) {
	var t domain.Template
	err := r.db.GetContext(ctx, &t, `SELECT * FROM templates WHERE template_id = $1`, templateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: template %s", domain.ErrNotFound, templateID)
		}
		return nil, fmt.Errorf("%w: failed to get template: %v", domain.ErrStorage, err)
	}
	return &t, nil
}

// Update заменяет метаданные шаблона и возвращает прежний ключ хранилища,
// чтобы сервис мог убрать старый артефакт после фиксации.
func (r *TemplateRepository) Update(ctx context.Context, t *domain.Template) (string, error) {
	var oldKey string
	query := `
        UPDATE templates AS new
        SET storage_key = $2,
            filename = $3,
            content_type = $4,
            uploader_id = $5,
            upload_time = $6
        FROM (SELECT template_id, storage_key FROM templates WHERE template_id = $1) AS old
        WHERE new.template_id = old.template_id
        RETURNING old.storage_key`

	err := r.db.QueryRowContext(ctx, query,
		t.TemplateID,
		t.StorageKey,
		t.Filename,
		t.ContentType,
		t.UploaderID,
		t.UploadTime,
	).Scan(&oldKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: template %s", domain.ErrNotFound, t.TemplateID)
		}
		return "", fmt.Errorf("%w: failed to update template: %v", domain.ErrStorage, err)
	}
	return oldKey, nil
}

// Delete удаляет запись и возвращает ключ хранилища удалённого шаблона.
func (r *TemplateRepository) Delete(ctx context.Context, templateID string) (string, error) {
	var key string
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM templates WHERE template_id = $1 RETURNING storage_key`, templateID,
	).Scan(&key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: template %s", domain.ErrNotFound, templateID)
		}
		return "", fmt.Errorf("%w: failed to delete template: %v", domain.ErrStorage, err)
	}
	return key, nil
}
