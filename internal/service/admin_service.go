package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"paperdrive/internal/auth"
	"paperdrive/internal/domain"
)

// Границы постраничной выдачи журнала операций.
const (
	auditDefaultPageSize = 50
	auditMaxPageSize     = 100
)

// StatsStore — контракт хранилища статистики и журнала операций.
type StatsStore interface {
	ListOwnerColleges(ctx context.Context) ([]domain.CollegeStat, error)
	CountPapers(ctx context.Context) (int, error)
	CountPapersByStatus(ctx context.Context, status domain.VersionStatus) (int, error)
	CountStudents(ctx context.Context) (int, error)
	CountTeachers(ctx context.Context) (int, error)
	ListAuditLogs(ctx context.Context, page, pageSize int) ([]domain.AuditLog, int, error)
	RecordOperation(ctx context.Context, log *domain.AuditLog) error
}

// AuditLogPage — страница журнала операций.
type AuditLogPage struct {
	Items    []domain.AuditLog `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// AdminService собирает сводки и выдаёт журнал операций. Все методы
// требуют роль администратора.
type AdminService struct {
	repo StatsStore
	log  *zap.Logger
}

func NewAdminService(repo StatsStore, log *zap.Logger) *AdminService {
	return &AdminService{repo: repo, log: log}
}

// Dashboard возвращает сводку для панели: общее число документов и
// распределение по подразделениям владельцев.
func (s *AdminService) Dashboard(ctx context.Context, caller auth.Identity) (*domain.DashboardStats, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	total, err := s.repo.CountPapers(ctx)
	if err != nil {
		return nil, err
	}
	byCollege, err := s.repo.ListOwnerColleges(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.DashboardStats{
		TotalPapers: total,
		ByCollege:   byCollege,
		UpdateTime:  time.Now(),
	}, nil
}

// AuditLogs возвращает страницу журнала операций, свежие первыми.
func (s *AdminService) AuditLogs(ctx context.Context, caller auth.Identity, page, pageSize int) (*AuditLogPage, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = auditDefaultPageSize
	}
	if pageSize > auditMaxPageSize {
		pageSize = auditMaxPageSize
	}

	items, total, err := s.repo.ListAuditLogs(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.AuditLog{}
	}
	return &AuditLogPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// CountKind — вид счётчика для статистических эндпоинтов.
type CountKind string

const (
	CountStudents         CountKind = "students"
	CountTeachers         CountKind = "teachers"
	CountPapersUploaded   CountKind = "papers_uploaded"
	CountPapersUnreviewed CountKind = "papers_unreviewed"
	CountPapersUpdated    CountKind = "papers_updated"
)

// Count возвращает запрошенный счётчик.
func (s *AdminService) Count(ctx context.Context, caller auth.Identity, kind CountKind) (int, error) {
	if err := requireAdmin(caller); err != nil {
		return 0, err
	}

	switch kind {
	case CountStudents:
		return s.repo.CountStudents(ctx)
	case CountTeachers:
		return s.repo.CountTeachers(ctx)
	case CountPapersUploaded:
		return s.repo.CountPapers(ctx)
	case CountPapersUnreviewed:
		return s.repo.CountPapersByStatus(ctx, domain.StatusPending)
	case CountPapersUpdated:
		return s.repo.CountPapersByStatus(ctx, domain.StatusOK)
	default:
		return 0, fmt.Errorf("%w: unknown counter %q", domain.ErrValidation, kind)
	}
}

// RecordOperation пишет запись в журнал. Сбой журнала не должен ломать
// основную операцию, поэтому ошибка только логируется.
func (s *AdminService) RecordOperation(ctx context.Context, entry *domain.AuditLog) {
	if err := s.repo.RecordOperation(ctx, entry); err != nil {
		s.log.Warn("failed to record operation",
			zap.String("operation_path", entry.OperationPath),
			zap.Error(err))
	}
}
