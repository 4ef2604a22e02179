package domain

import "time"

// Template — шаблон документа, доступный только администраторам.
// Файл лежит в блоб-хранилище, здесь только метаданные.
type Template struct {
	ID          int64     `json:"-" db:"id"`
	TemplateID  string    `json:"template_id" db:"template_id"`
	StorageKey  string    `json:"storage_key" db:"storage_key"`
	Filename    string    `json:"filename" db:"filename"`
	ContentType string    `json:"content_type" db:"content_type"`
	UploaderID  int64     `json:"uploader_id" db:"uploader_id"`
	UploadTime  time.Time `json:"upload_time" db:"upload_time"`
}
