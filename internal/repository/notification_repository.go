package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"paperdrive/internal/domain"
)

type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// NotificationFilter — условия выборки сообщений.
type NotificationFilter struct {
	TargetUserID string
	SenderID     string // фильтр по отправителю
	OwnSenderID  string // ограничение «только свои отправленные» для преподавателя
	Status       string
	Page         int
	PageSize     int
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
        INSERT INTO user_messages (
            user_id, username, title, content, source, status, received_time, metadata
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`

	// JSONB принимает только текстовое представление параметра
	var meta interface{}
	if len(n.Metadata) > 0 {
		meta = string(n.Metadata)
	}

	err := r.db.QueryRowContext(ctx, query,
		n.UserID,
		n.Username,
		n.Title,
		n.Content,
		n.Source,
		n.Status,
		n.ReceivedTime,
		meta,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to insert notification: %v", domain.ErrStorage, err)
	}
	return nil
}

// Query возвращает страницу сообщений и общее число подходящих строк.
func (r *NotificationRepository) Query(ctx context.Context, f NotificationFilter) ([]domain.Notification, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.OwnSenderID != "" {
		// Сообщения без отправителя в метаданных тоже видимы
		where = append(where, fmt.Sprintf(
			"(metadata->>'sender_id' = %s OR metadata IS NULL)", arg(f.OwnSenderID)))
	}
	if f.TargetUserID != "" {
		where = append(where, "user_id = "+arg(f.TargetUserID))
	}
	if f.SenderID != "" {
		where = append(where, "metadata->>'sender_id' = "+arg(f.SenderID))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}

	cond := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM user_messages WHERE " + cond
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: failed to count notifications: %v", domain.ErrStorage, err)
	}

	offset := (f.Page - 1) * f.PageSize
	selectQuery := fmt.Sprintf(`
        SELECT * FROM user_messages
        WHERE %s
        ORDER BY received_time DESC
        LIMIT %s OFFSET %s`, cond, arg(f.PageSize), arg(offset))

	var items []domain.Notification
	if err := r.db.SelectContext(ctx, &items, selectQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: failed to query notifications: %v", domain.ErrStorage, err)
	}
	return items, total, nil
}

// Update меняет заголовок и/или содержимое; пропущенные поля сохраняются.
func (r *NotificationRepository) Update(ctx context.Context, id int64, title, content *string) error {
	query := `
        UPDATE user_messages
        SET title = COALESCE($2, title),
            content = COALESCE($3, content),
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, title, content)
	if err != nil {
		return fmt.Errorf("%w: failed to update notification: %v", domain.ErrStorage, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get affected rows: %v", domain.ErrStorage, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: notification %d", domain.ErrNotFound, id)
	}
	return nil
}

// Retract помечает сообщение отозванным.
func (r *NotificationRepository) Retract(ctx context.Context, id int64) error {
	query := `
        UPDATE user_messages
        SET status = $2, updated_at = CURRENT_TIMESTAMP
        WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, domain.NotificationRetracted)
	if err != nil {
		return fmt.Errorf("%w: failed to retract notification: %v", domain.ErrStorage, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get affected rows: %v", domain.ErrStorage, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: notification %d", domain.ErrNotFound, id)
	}
	return nil
}
