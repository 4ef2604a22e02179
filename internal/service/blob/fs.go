package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FSStore хранит артефакты на локальной файловой системе:
// имя файла получает временной префикс, раздел — отдельный каталог.
// Ключом служит путь к сохранённому файлу.
type FSStore struct {
	root string
}

// NewFSStore создаёт хранилище и каталоги разделов.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	for _, c := range []Category{CategoryTemplate, CategoryPaper, CategoryAttachment} {
		if err := os.MkdirAll(filepath.Join(root, string(c)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage dir %s: %w", c, err)
		}
	}
	return &FSStore{root: root}, nil
}

// Put записывает содержимое под свежим ключом и возвращает его.
func (s *FSStore) Put(_ context.Context, category Category, filename string, content []byte) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required")
	}
	// Берём только базовое имя, чтобы ключ не выходил за пределы каталога
	safeName := filepath.Base(filepath.Clean(filename))
	ts := strings.Replace(time.Now().Format("20060102150405.000000000"), ".", "", 1)
	key := filepath.Join(s.root, string(category), fmt.Sprintf("%s_%s", ts, safeName))

	if err := os.WriteFile(key, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return key, nil
}

// Open открывает сохранённый артефакт на чтение.
func (s *FSStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(key)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", key, err)
	}
	return f, nil
}

// Delete удаляет артефакт; отсутствующий ключ не считается ошибкой.
func (s *FSStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if err := os.Remove(key); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// Exists проверяет наличие артефакта.
func (s *FSStore) Exists(_ context.Context, key string) (bool, error) {
	if _, err := os.Stat(key); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob %s: %w", key, err)
	}
	return true, nil
}
