package domain

import "errors"

// Базовые ошибки доменного уровня. Хендлеры сопоставляют их с HTTP-статусами
// через errors.Is, сервисы оборачивают через fmt.Errorf("%w: ...").
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("access denied")
	ErrConflict   = errors.New("already exists")
	ErrStorage    = errors.New("storage operation failed")
)
