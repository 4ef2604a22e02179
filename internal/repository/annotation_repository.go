package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"paperdrive/internal/domain"
)

type AnnotationRepository struct {
	db *sqlx.DB
}

func NewAnnotationRepository(db *sqlx.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

func (r *AnnotationRepository) Create(ctx context.Context, a *domain.Annotation) error {
	query := `
        INSERT INTO annotations (paper_id, author_id, paragraph_id, coordinates, content)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`

	// JSONB принимает только текстовое представление параметра
	var coords interface{}
	if len(a.Coordinates) > 0 {
		coords = string(a.Coordinates)
	}

	err := r.db.QueryRowContext(ctx, query,
		a.PaperID,
		a.AuthorID,
		a.ParagraphID,
		coords,
		a.Content,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to insert annotation: %v", domain.ErrStorage, err)
	}
	return nil
}

// ListByPaper возвращает пометки документа, свежие первыми.
func (r *AnnotationRepository) ListByPaper(ctx context.Context, paperID int64) ([]domain.Annotation, error) {
	var annotations []domain.Annotation
	query := `SELECT * FROM annotations WHERE paper_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &annotations, query, paperID); err != nil {
		return nil, fmt.Errorf("%w: failed to list annotations: %v", domain.ErrStorage, err)
	}
	return annotations, nil
}
