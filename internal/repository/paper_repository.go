package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"paperdrive/internal/domain"
)

type PaperRepository struct {
	db *sqlx.DB
}

func NewPaperRepository(db *sqlx.DB) *PaperRepository {
	return &PaperRepository{db: db}
}

// isUniqueViolation распознаёт нарушение уникального ограничения Postgres.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// CreatePaper вставляет документ и его первую версию одной транзакцией.
// Частичное состояние (документ без версии или наоборот) недопустимо.
func (r *PaperRepository) CreatePaper(ctx context.Context, paper *domain.Paper, version *domain.PaperVersion) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", domain.ErrStorage, err)
	}
	defer tx.Rollback()

	// Вставляем документ
	query := `
        INSERT INTO papers (owner_id, latest_version, storage_key)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(
		ctx,
		query,
		paper.OwnerID,
		paper.LatestVersion,
		paper.StorageKey,
	).Scan(&paper.ID, &paper.CreatedAt, &paper.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to insert paper: %v", domain.ErrStorage, err)
	}

	// Вставляем первую версию
	version.PaperID = paper.ID
	if err := insertVersion(ctx, tx, version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", domain.ErrStorage, err)
	}
	return nil
}

func insertVersion(ctx context.Context, tx *sqlx.Tx, v *domain.PaperVersion) error {
	query := `
        INSERT INTO paper_versions (
            paper_id, version, size, status, storage_key,
            submitted_by_id, submitted_by_name, submitted_by_role
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`

	err := tx.QueryRowContext(ctx, query,
		v.PaperID,
		v.Version,
		v.Size,
		v.Status,
		v.StorageKey,
		v.SubmittedByID,
		v.SubmittedByName,
		v.SubmittedByRole,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: version %s", domain.ErrConflict, v.Version)
		}
		return fmt.Errorf("%w: failed to insert paper version: %v", domain.ErrStorage, err)
	}
	return nil
}

// GetOwner возвращает владельца документа.
func (r *PaperRepository) GetOwner(ctx context.Context, paperID int64) (int64, error) {
	var ownerID int64
	err := r.db.GetContext(ctx, &ownerID, `SELECT owner_id FROM papers WHERE id = $1`, paperID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: paper %d", domain.ErrNotFound, paperID)
		}
		return 0, fmt.Errorf("%w: failed to get paper owner: %v", domain.ErrStorage, err)
	}
	return ownerID, nil
}

// GetByID возвращает документ.
func (r *PaperRepository) GetByID(ctx context.Context, paperID int64) (*domain.Paper, error) {
	var paper domain.Paper
	err := r.db.GetContext(ctx, &paper, `SELECT * FROM papers WHERE id = $1`, paperID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: paper %d", domain.ErrNotFound, paperID)
		}
		return nil, fmt.Errorf("%w: failed to get paper: %v", domain.ErrStorage, err)
	}
	return &paper, nil
}

// AddVersion вставляет новую версию и передвигает указатель последней версии
// одной транзакцией. Предыдущая последняя версия со статусом "ok" помечается
// как "superseded". Дубликат тега версии даёт ErrConflict — на этом держится
// корректность конкурентных загрузок одной и той же версии.
func (r *PaperRepository) AddVersion(ctx context.Context, paperID int64, version *domain.PaperVersion) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", domain.ErrStorage, err)
	}
	defer tx.Rollback()

	var prevLatest string
	err = tx.QueryRowContext(ctx,
		`SELECT latest_version FROM papers WHERE id = $1 FOR UPDATE`, paperID,
	).Scan(&prevLatest)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: paper %d", domain.ErrNotFound, paperID)
		}
		return fmt.Errorf("%w: failed to lock paper: %v", domain.ErrStorage, err)
	}

	version.PaperID = paperID
	if err := insertVersion(ctx, tx, version); err != nil {
		return err
	}

	// Предыдущая принятая версия больше не является последней
	_, err = tx.ExecContext(ctx, `
        UPDATE paper_versions
        SET status = $1, updated_at = CURRENT_TIMESTAMP
        WHERE paper_id = $2 AND version = $3 AND status = $4`,
		domain.StatusSuperseded, paperID, prevLatest, domain.StatusOK,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to supersede previous version: %v", domain.ErrStorage, err)
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE papers
        SET latest_version = $1, storage_key = $2, updated_at = CURRENT_TIMESTAMP
        WHERE id = $3`,
		version.Version, version.StorageKey, paperID,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update latest version: %v", domain.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", domain.ErrStorage, err)
	}
	return nil
}

// Delete удаляет документ; версии удаляются каскадно на уровне схемы.
func (r *PaperRepository) Delete(ctx context.Context, paperID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM papers WHERE id = $1`, paperID)
	if err != nil {
		return fmt.Errorf("%w: failed to delete paper: %v", domain.ErrStorage, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get affected rows: %v", domain.ErrStorage, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: paper %d", domain.ErrNotFound, paperID)
	}
	return nil
}

// ListVersions возвращает версии документа, свежие первыми.
func (r *PaperRepository) ListVersions(ctx context.Context, paperID int64) ([]domain.PaperVersion, error) {
	var versions []domain.PaperVersion
	query := `
        SELECT * FROM paper_versions
        WHERE paper_id = $1
        ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &versions, query, paperID); err != nil {
		return nil, fmt.Errorf("%w: failed to list versions: %v", domain.ErrStorage, err)
	}
	return versions, nil
}

// GetVersion возвращает версию по паре (документ, тег).
func (r *PaperRepository) GetVersion(ctx context.Context, paperID int64, version string) (*domain.PaperVersion, error) {
	var v domain.PaperVersion
	query := `SELECT * FROM paper_versions WHERE paper_id = $1 AND version = $2`
	if err := r.db.GetContext(ctx, &v, query, paperID, version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: version %s of paper %d", domain.ErrNotFound, version, paperID)
		}
		return nil, fmt.Errorf("%w: failed to get version: %v", domain.ErrStorage, err)
	}
	return &v, nil
}

// CreateVersionStatus заводит запись версии без артефакта: оператор
// регистрирует статус отдельно от загрузки файла.
func (r *PaperRepository) CreateVersionStatus(ctx context.Context, v *domain.PaperVersion) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", domain.ErrStorage, err)
	}
	defer tx.Rollback()

	if err := insertVersion(ctx, tx, v); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", domain.ErrStorage, err)
	}
	return nil
}

// UpdateVersionStatus атомарно меняет статус и размер версии.
// Пропущенный размер сохраняет прежнее значение.
func (r *PaperRepository) UpdateVersionStatus(ctx context.Context, paperID int64, version string, status domain.VersionStatus, size *int64) (*domain.PaperVersion, error) {
	var v domain.PaperVersion
	query := `
        UPDATE paper_versions
        SET status = $3,
            size = COALESCE($4, size),
            updated_at = CURRENT_TIMESTAMP
        WHERE paper_id = $1 AND version = $2
        RETURNING *`
	err := r.db.GetContext(ctx, &v, query, paperID, version, status, size)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: version %s of paper %d", domain.ErrNotFound, version, paperID)
		}
		return nil, fmt.Errorf("%w: failed to update version status: %v", domain.ErrStorage, err)
	}
	return &v, nil
}
