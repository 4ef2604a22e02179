package domain

import "time"

// Paper представляет документ, отслеживаемый через версии.
// LatestVersion и StorageKey всегда указывают на последнюю принятую версию
// и обновляются только вместе, в одной транзакции.
type Paper struct {
	ID            int64     `json:"id" db:"id"`
	OwnerID       int64     `json:"owner_id" db:"owner_id"`
	LatestVersion string    `json:"latest_version" db:"latest_version"`
	StorageKey    string    `json:"storage_key" db:"storage_key"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// PaperVersion — одна неизменяемая ревизия документа.
// Поля SubmittedBy* — снимок личности отправителя на момент создания,
// они не перечитываются при изменении данных пользователя.
type PaperVersion struct {
	ID              int64         `json:"id" db:"id"`
	PaperID         int64         `json:"paper_id" db:"paper_id"`
	Version         string        `json:"version" db:"version"`
	Size            int64         `json:"size" db:"size"`
	Status          VersionStatus `json:"status" db:"status"`
	StorageKey      string        `json:"storage_key" db:"storage_key"`
	SubmittedByID   int64         `json:"submitted_by_id" db:"submitted_by_id"`
	SubmittedByName string        `json:"submitted_by_name" db:"submitted_by_name"`
	SubmittedByRole string        `json:"submitted_by_role" db:"submitted_by_role"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}
