package domain

import "fmt"

// VersionStatus описывает жизненный цикл версии документа.
type VersionStatus string

const (
	StatusPending    VersionStatus = "pending"
	StatusOK         VersionStatus = "ok"
	StatusFailed     VersionStatus = "failed"
	StatusSuperseded VersionStatus = "superseded"
)

// ParseVersionStatus валидирует статус на записи. Исторические строки вне
// словаря остаются в базе как есть и отдаются на чтении без изменений,
// но новые записи принимают только закрытый набор значений.
func ParseVersionStatus(s string) (VersionStatus, error) {
	switch VersionStatus(s) {
	case StatusPending, StatusOK, StatusFailed, StatusSuperseded:
		return VersionStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown version status %q", ErrValidation, s)
}

// Known сообщает, входит ли значение в контролируемый словарь.
func (s VersionStatus) Known() bool {
	switch s {
	case StatusPending, StatusOK, StatusFailed, StatusSuperseded:
		return true
	}
	return false
}
