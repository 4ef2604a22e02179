package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"paperdrive/internal/auth"
	"paperdrive/internal/domain"
)

// requiredRosterColumns — обязательные колонки импортируемого списка групп.
var requiredRosterColumns = []string{"group_id", "group_name", "teacher_id", "student_id", "student_name"}

// GroupStore — контракт хранилища групп.
type GroupStore interface {
	ImportRoster(ctx context.Context, rows []domain.RosterRow, upload *domain.UploadedFile) error
	IsTeacherOfStudent(ctx context.Context, teacherID, studentID string) (bool, error)
}

// ImportResult — итог импорта списка групп.
type ImportResult struct {
	Imported   int    `json:"imported"`
	Skipped    int    `json:"skipped"`
	Format     string `json:"format"`
	OperatedBy string `json:"operated_by"`
}

// GroupService импортирует списки «группа-преподаватель-студент» из
// табличных файлов и отвечает на вопросы о связях участников.
type GroupService struct {
	repo GroupStore
	log  *zap.Logger
}

func NewGroupService(repo GroupStore, log *zap.Logger) *GroupService {
	return &GroupService{repo: repo, log: log}
}

// ImportRoster разбирает .tsv или .csv файл и сохраняет связи групп одной
// транзакцией вместе с архивной копией самого файла. Строки с неполным
// набором колонок пропускаются, не прерывая импорт.
func (s *GroupService) ImportRoster(ctx context.Context, caller auth.Identity, filename string, content []byte) (*ImportResult, error) {
	if !caller.HasAnyRole("admin", "manager") {
		return nil, fmt.Errorf("%w: admin or manager role required", domain.ErrForbidden)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	var comma rune
	switch ext {
	case ".tsv":
		comma = '\t'
	case ".csv":
		comma = ','
	default:
		return nil, fmt.Errorf("%w: unsupported file extension, expected .tsv or .csv", domain.ErrValidation)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", domain.ErrValidation)
	}

	rows, skipped, err := parseRoster(content, comma)
	if err != nil {
		return nil, err
	}

	upload := &domain.UploadedFile{
		Filename:     filename,
		ContentType:  contentTypeFor(ext),
		Content:      content,
		OperatedBy:   caller.Username,
		OperatedTime: time.Now(),
	}
	if err := s.repo.ImportRoster(ctx, rows, upload); err != nil {
		return nil, err
	}

	s.log.Info("roster imported",
		zap.String("filename", filename),
		zap.Int("rows", len(rows)),
		zap.Int("skipped", skipped))
	return &ImportResult{
		Imported:   len(rows),
		Skipped:    skipped,
		Format:     strings.TrimPrefix(ext, "."),
		OperatedBy: caller.Username,
	}, nil
}

// IsTeacherOfStudent сообщает, состоит ли студент в группе преподавателя.
func (s *GroupService) IsTeacherOfStudent(ctx context.Context, teacherID, studentID string) (bool, error) {
	return s.repo.IsTeacherOfStudent(ctx, teacherID, studentID)
}

func contentTypeFor(ext string) string {
	if ext == ".csv" {
		return "text/csv"
	}
	return "text/tab-separated-values"
}

// parseRoster читает таблицу с заголовком; отсутствие любой обязательной
// колонки делает весь файл невалидным, а строки с несовпадающим числом
// полей лишь пропускаются.
func parseRoster(content []byte, comma rune) ([]domain.RosterRow, int, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // длину строк проверяем сами

	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: malformed table: %v", domain.ErrValidation, err)
	}
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("%w: file has no header row", domain.ErrValidation)
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, col := range requiredRosterColumns {
		if _, ok := index[col]; !ok {
			return nil, 0, fmt.Errorf("%w: missing required column %q", domain.ErrValidation, col)
		}
	}

	var rows []domain.RosterRow
	skipped := 0
	for _, record := range records[1:] {
		if len(record) < len(header) {
			skipped++
			continue
		}
		row := domain.RosterRow{
			GroupID:     strings.TrimSpace(record[index["group_id"]]),
			GroupName:   strings.TrimSpace(record[index["group_name"]]),
			TeacherID:   strings.TrimSpace(record[index["teacher_id"]]),
			StudentID:   strings.TrimSpace(record[index["student_id"]]),
			StudentName: strings.TrimSpace(record[index["student_name"]]),
		}
		if row.GroupID == "" || row.TeacherID == "" || row.StudentID == "" {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}
