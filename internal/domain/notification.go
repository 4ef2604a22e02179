package domain

import (
	"encoding/json"
	"time"
)

// Статусы уведомления.
const (
	NotificationUnread    = "unread"
	NotificationRead      = "read"
	NotificationRetracted = "retracted"
)

// Notification — запись в user_messages: доставка механически не выполняется,
// получатель вычитывает свои строки сам.
type Notification struct {
	ID           int64           `json:"id" db:"id"`
	UserID       string          `json:"user_id" db:"user_id"`
	Username     string          `json:"username" db:"username"`
	Title        string          `json:"title" db:"title"`
	Content      string          `json:"content" db:"content"`
	Source       string          `json:"source" db:"source"`
	Status       string          `json:"status" db:"status"`
	ReceivedTime time.Time       `json:"received_time" db:"received_time"`
	Metadata     json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// NotificationMetadata — расширяемая часть записи: снимок отправителя.
type NotificationMetadata struct {
	SenderID   string `json:"sender_id,omitempty"`
	SenderRole string `json:"sender_role,omitempty"`
}
