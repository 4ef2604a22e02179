package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"paperdrive/internal/auth"
	"paperdrive/internal/domain"
	"paperdrive/internal/repository"
)

// Границы постраничной выдачи сообщений.
const (
	notificationDefaultPageSize = 20
	notificationMaxPageSize     = 100
)

// NotificationStore — контракт хранилища сообщений.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	Query(ctx context.Context, f repository.NotificationFilter) ([]domain.Notification, int, error)
	Update(ctx context.Context, id int64, title, content *string) error
	Retract(ctx context.Context, id int64) error
}

// PushInput — входные данные рассылки: один или несколько получателей
// через запятую.
type PushInput struct {
	Targets string `json:"target_users"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// QueryInput — фильтры выборки сообщений.
type QueryInput struct {
	TargetUserID string
	SenderID     string
	Status       string
	Page         int
	PageSize     int
}

// NotificationPage — страница сообщений с итоговым количеством.
type NotificationPage struct {
	Items    []domain.Notification `json:"items"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// NotificationService пишет и выдаёт строки user_messages. Сам канал
// доставки вне зоны ответственности сервиса.
type NotificationService struct {
	repo   NotificationStore
	groups GroupStore
	log    *zap.Logger
}

func NewNotificationService(repo NotificationStore, groups GroupStore, log *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, groups: groups, log: log}
}

// Push создаёт по записи на каждого получателя. Снимок отправителя
// кладётся в метаданные, чтобы пережить смену его роли или удаление.
func (s *NotificationService) Push(ctx context.Context, caller auth.Identity, in PushInput) ([]domain.Notification, error) {
	if !caller.HasAnyRole("admin", "teacher", "manager") {
		return nil, fmt.Errorf("%w: admin, manager or teacher role required", domain.ErrForbidden)
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: title and content are required", domain.ErrValidation)
	}

	targets := splitTargets(in.Targets)
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: at least one target user is required", domain.ErrValidation)
	}

	meta, err := json.Marshal(domain.NotificationMetadata{
		SenderID:   strconv.FormatInt(caller.ID, 10),
		SenderRole: caller.Role(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode metadata: %v", domain.ErrStorage, err)
	}

	source := in.Source
	if source == "" {
		source = "system"
	}

	now := time.Now()
	created := make([]domain.Notification, 0, len(targets))
	for _, target := range targets {
		n := domain.Notification{
			UserID:       target,
			Username:     target,
			Title:        in.Title,
			Content:      in.Content,
			Source:       source,
			Status:       domain.NotificationUnread,
			ReceivedTime: now,
			Metadata:     meta,
		}
		if err := s.repo.Create(ctx, &n); err != nil {
			return nil, err
		}
		created = append(created, n)
	}

	s.log.Info("notifications pushed",
		zap.Int("count", len(created)),
		zap.Int64("sender_id", caller.ID))
	return created, nil
}

// Query выдаёт страницу сообщений с учётом роли. Администратор видит всё,
// преподаватель — только отправленные им самим либо адресованные его
// студентам.
func (s *NotificationService) Query(ctx context.Context, caller auth.Identity, in QueryInput) (*NotificationPage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	pageSize := in.PageSize
	if pageSize < 1 {
		pageSize = notificationDefaultPageSize
	}
	if pageSize > notificationMaxPageSize {
		pageSize = notificationMaxPageSize
	}

	filter := repository.NotificationFilter{
		TargetUserID: strings.TrimSpace(in.TargetUserID),
		SenderID:     strings.TrimSpace(in.SenderID),
		Status:       strings.TrimSpace(in.Status),
		Page:         page,
		PageSize:     pageSize,
	}

	switch {
	case caller.HasAnyRole("admin", "manager"):
		// без дополнительных ограничений
	case caller.HasRole("teacher"):
		callerID := strconv.FormatInt(caller.ID, 10)
		if filter.TargetUserID != "" {
			ok, err := s.groups.IsTeacherOfStudent(ctx, callerID, filter.TargetUserID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("%w: user %s is not in your groups", domain.ErrForbidden, filter.TargetUserID)
			}
		} else {
			filter.OwnSenderID = callerID
		}
		if filter.SenderID != "" && filter.SenderID != callerID {
			return nil, fmt.Errorf("%w: teachers may filter only by own sent messages", domain.ErrForbidden)
		}
	default:
		return nil, fmt.Errorf("%w: admin or teacher role required", domain.ErrForbidden)
	}

	items, total, err := s.repo.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return &NotificationPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Update меняет заголовок и/или содержимое существующего сообщения.
func (s *NotificationService) Update(ctx context.Context, caller auth.Identity, id int64, title, content *string) error {
	if !caller.HasAnyRole("admin", "manager") {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	if title == nil && content == nil {
		return fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}
	return s.repo.Update(ctx, id, title, content)
}

// Retract помечает сообщение отозванным, не удаляя строку.
func (s *NotificationService) Retract(ctx context.Context, caller auth.Identity, id int64) error {
	if !caller.HasAnyRole("admin", "manager") {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	if err := s.repo.Retract(ctx, id); err != nil {
		return err
	}
	s.log.Info("notification retracted", zap.Int64("notification_id", id))
	return nil
}

// splitTargets разбирает список получателей через запятую, отбрасывая
// пустые и повторяющиеся значения.
func splitTargets(raw string) []string {
	seen := make(map[string]struct{})
	var targets []string
	for _, part := range strings.Split(raw, ",") {
		t := strings.TrimSpace(part)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		targets = append(targets, t)
	}
	return targets
}
