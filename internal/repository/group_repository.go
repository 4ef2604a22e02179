package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"paperdrive/internal/domain"
)

type GroupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// ImportRoster записывает связи «группа-преподаватель-студент» и архивирует
// исходный файл одной транзакцией. Повторная строка обновляет имя участника.
func (r *GroupRepository) ImportRoster(ctx context.Context, rows []domain.RosterRow, upload *domain.UploadedFile) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", domain.ErrStorage, err)
	}
	defer tx.Rollback()

	memberQuery := `
        INSERT INTO group_members (group_id, group_name, member_id, member_name, member_type, is_active)
        VALUES ($1, $2, $3, $4, $5, TRUE)
        ON CONFLICT (group_id, member_id, member_type)
        DO UPDATE SET group_name = EXCLUDED.group_name,
                      member_name = EXCLUDED.member_name,
                      is_active = TRUE`

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, memberQuery,
			row.GroupID, row.GroupName, row.TeacherID, "", "teacher"); err != nil {
			return fmt.Errorf("%w: failed to upsert teacher membership: %v", domain.ErrStorage, err)
		}
		if _, err := tx.ExecContext(ctx, memberQuery,
			row.GroupID, row.GroupName, row.StudentID, row.StudentName, "student"); err != nil {
			return fmt.Errorf("%w: failed to upsert student membership: %v", domain.ErrStorage, err)
		}
	}

	// Архивируем загруженный файл
	uploadQuery := `
        INSERT INTO uploaded_files (filename, content_type, content, operated_by, operated_time)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`

	err = tx.QueryRowContext(ctx, uploadQuery,
		upload.Filename,
		upload.ContentType,
		upload.Content,
		upload.OperatedBy,
		upload.OperatedTime,
	).Scan(&upload.ID)
	if err != nil {
		return fmt.Errorf("%w: failed to archive uploaded file: %v", domain.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", domain.ErrStorage, err)
	}
	return nil
}

// IsTeacherOfStudent проверяет, состоят ли преподаватель и студент
// в одной активной группе.
func (r *GroupRepository) IsTeacherOfStudent(ctx context.Context, teacherID, studentID string) (bool, error) {
	var exists bool
	query := `
        SELECT EXISTS (
            SELECT 1 FROM group_members gm1
            JOIN group_members gm2 ON gm1.group_id = gm2.group_id
            WHERE gm1.member_id = $1 AND gm1.member_type = 'student' AND gm1.is_active
              AND gm2.member_id = $2 AND gm2.member_type = 'teacher' AND gm2.is_active
        )`
	if err := r.db.GetContext(ctx, &exists, query, studentID, teacherID); err != nil {
		return false, fmt.Errorf("%w: failed to check group membership: %v", domain.ErrStorage, err)
	}
	return exists, nil
}
