package domain

import (
	"encoding/json"
	"time"
)

// Annotation — пометка на документе. Координаты хранятся как JSON-снимок.
type Annotation struct {
	ID          int64           `json:"id" db:"id"`
	PaperID     int64           `json:"paper_id" db:"paper_id"`
	AuthorID    int64           `json:"author_id" db:"author_id"`
	ParagraphID *string         `json:"paragraph_id,omitempty" db:"paragraph_id"`
	Coordinates json.RawMessage `json:"coordinates,omitempty" db:"coordinates"`
	Content     string          `json:"content" db:"content"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
