package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"paperdrive/internal/domain"
)

type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// ownerCollege — строка выборки «владелец-подразделение» для сводки.
type ownerCollege struct {
	OwnerID int64  `db:"owner_id"`
	College string `db:"college"`
}

// ListOwnerColleges возвращает документы с подразделением владельца:
// для студентов берётся год набора, для преподавателей — кафедра.
// Группировка по подразделению выполняется вызывающей стороной.
func (r *StatsRepository) ListOwnerColleges(ctx context.Context) ([]domain.CollegeStat, error) {
	var rows []ownerCollege
	query := `
        SELECT p.owner_id,
               CASE
                   WHEN t.id IS NOT NULL THEN COALESCE(t.department, 'unknown department')
                   WHEN s.id IS NOT NULL THEN COALESCE(s.grade, 'unknown grade')
                   ELSE 'unknown'
               END AS college
        FROM papers p
        LEFT JOIN students s ON p.owner_id = s.id
        LEFT JOIN teachers t ON p.owner_id = t.id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%w: failed to query owner colleges: %v", domain.ErrStorage, err)
	}

	// Группируем в приложении
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, row := range rows {
		if _, seen := counts[row.College]; !seen {
			order = append(order, row.College)
		}
		counts[row.College]++
	}

	stats := make([]domain.CollegeStat, 0, len(order))
	for _, college := range order {
		stats = append(stats, domain.CollegeStat{College: college, PaperCount: counts[college]})
	}
	return stats, nil
}

// CountPapers возвращает общее число документов.
func (r *StatsRepository) CountPapers(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM papers`); err != nil {
		return 0, fmt.Errorf("%w: failed to count papers: %v", domain.ErrStorage, err)
	}
	return total, nil
}

// CountPapersByStatus считает документы, у которых последняя версия
// находится в указанном статусе.
func (r *StatsRepository) CountPapersByStatus(ctx context.Context, status domain.VersionStatus) (int, error) {
	var total int
	query := `
        SELECT COUNT(*)
        FROM papers p
        JOIN paper_versions v ON v.paper_id = p.id AND v.version = p.latest_version
        WHERE v.status = $1`
	if err := r.db.GetContext(ctx, &total, query, status); err != nil {
		return 0, fmt.Errorf("%w: failed to count papers by status: %v", domain.ErrStorage, err)
	}
	return total, nil
}

// CountStudents возвращает число студентов.
func (r *StatsRepository) CountStudents(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("%w: failed to count students: %v", domain.ErrStorage, err)
	}
	return total, nil
}

// CountTeachers возвращает число преподавателей.
func (r *StatsRepository) CountTeachers(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM teachers`); err != nil {
		return 0, fmt.Errorf("%w: failed to count teachers: %v", domain.ErrStorage, err)
	}
	return total, nil
}

// ListAuditLogs возвращает страницу журнала операций, свежие первыми.
func (r *StatsRepository) ListAuditLogs(ctx context.Context, page, pageSize int) ([]domain.AuditLog, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM operation_logs`); err != nil {
		return nil, 0, fmt.Errorf("%w: failed to count audit logs: %v", domain.ErrStorage, err)
	}

	var logs []domain.AuditLog
	query := `
        SELECT * FROM operation_logs
        ORDER BY operation_time DESC
        LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &logs, query, pageSize, (page-1)*pageSize); err != nil {
		return nil, 0, fmt.Errorf("%w: failed to list audit logs: %v", domain.ErrStorage, err)
	}
	return logs, total, nil
}

// RecordOperation добавляет запись в журнал операций.
func (r *StatsRepository) RecordOperation(ctx context.Context, log *domain.AuditLog) error {
	query := `
        INSERT INTO operation_logs (user_id, username, operation_type, operation_path, operation_params, ip_address, operation_time, status)
        VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, $7)
        RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		log.UserID,
		log.Username,
		log.OperationType,
		log.OperationPath,
		log.OperationParams,
		log.IPAddress,
		log.Status,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("%w: failed to record operation: %v", domain.ErrStorage, err)
	}
	return nil
}
