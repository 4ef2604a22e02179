package domain

import "time"

// Document — загруженный документ, содержимое хранится прямо в базе.
type Document struct {
	ID          int64     `json:"id" db:"id"`
	Filename    string    `json:"filename" db:"filename"`
	ContentType string    `json:"content_type" db:"content_type"`
	Content     []byte    `json:"-" db:"content"`
	Size        int64     `json:"size" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
