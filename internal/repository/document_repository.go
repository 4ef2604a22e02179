package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"paperdrive/internal/domain"
)

type DocumentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create сохраняет документ вместе с содержимым.
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	query := `
        INSERT INTO documents (filename, content, content_type)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		doc.Filename,
		doc.Content,
		doc.ContentType,
	).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to insert document: %v", domain.ErrStorage, err)
	}
	doc.Size = int64(len(doc.Content))
	return nil
}

// GetByID возвращает документ вместе с содержимым.
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	var doc domain.Document
	query := `SELECT * FROM documents WHERE id = $1`
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: document %d", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: failed to get document: %v", domain.ErrStorage, err)
	}
	doc.Size = int64(len(doc.Content))
	return &doc, nil
}
