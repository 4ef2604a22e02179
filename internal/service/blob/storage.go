package blob

import (
	"context"
	"io"
)

// Category — раздел хранилища по типу содержимого.
type Category string

const (
	CategoryTemplate   Category = "template"
	CategoryPaper      Category = "essay"
	CategoryAttachment Category = "attachment"
)

// Storage определяет интерфейс блоб-хранилища артефактов.
// Delete идемпотентен: отсутствие ключа не считается ошибкой.
type Storage interface {
	Put(ctx context.Context, category Category, filename string, content []byte) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
