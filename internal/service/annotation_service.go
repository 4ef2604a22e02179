package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"paperdrive/internal/auth"
	"paperdrive/internal/domain"
)

// AnnotationStore — контракт хранилища аннотаций.
type AnnotationStore interface {
	Create(ctx context.Context, a *domain.Annotation) error
	ListByPaper(ctx context.Context, paperID int64) ([]domain.Annotation, error)
}

// AnnotationService создаёт и выдаёт аннотации к документам. Автор может
// аннотировать только собственные документы.
type AnnotationService struct {
	repo   AnnotationStore
	papers PaperStore
	log    *zap.Logger
}

func NewAnnotationService(repo AnnotationStore, papers PaperStore, log *zap.Logger) *AnnotationService {
	return &AnnotationService{repo: repo, papers: papers, log: log}
}

// Create проверяет права и координаты, затем сохраняет аннотацию.
func (s *AnnotationService) Create(ctx context.Context, caller auth.Identity, a *domain.Annotation) (*domain.Annotation, error) {
	if strings.TrimSpace(a.Content) == "" {
		return nil, fmt.Errorf("%w: annotation content is required", domain.ErrValidation)
	}

	ownerID, err := s.papers.GetOwner(ctx, a.PaperID)
	if err != nil {
		return nil, err
	}
	if !auth.CanMutate(caller, ownerID) {
		return nil, fmt.Errorf("%w: paper %d belongs to another user", domain.ErrForbidden, a.PaperID)
	}

	if len(a.Coordinates) > 0 {
		if err := validateCoordinates(a.Coordinates); err != nil {
			return nil, err
		}
	}

	a.AuthorID = caller.ID
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.log.Info("annotation created",
		zap.Int64("annotation_id", a.ID),
		zap.Int64("paper_id", a.PaperID))
	return a, nil
}

// ListByPaper возвращает аннотации документа владельцу.
func (s *AnnotationService) ListByPaper(ctx context.Context, caller auth.Identity, paperID int64) ([]domain.Annotation, error) {
	ownerID, err := s.papers.GetOwner(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if !auth.CanMutate(caller, ownerID) {
		return nil, fmt.Errorf("%w: paper %d belongs to another user", domain.ErrForbidden, paperID)
	}
	return s.repo.ListByPaper(ctx, paperID)
}

// validateCoordinates принимает объект либо с парой x,y, либо с четвёркой
// top,left,width,height; все значения должны быть числовыми.
func validateCoordinates(raw json.RawMessage) error {
	var coords map[string]json.Number
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&coords); err != nil {
		return fmt.Errorf("%w: coordinates must be an object of numbers", domain.ErrValidation)
	}

	hasAll := func(keys ...string) bool {
		for _, k := range keys {
			v, ok := coords[k]
			if !ok {
				return false
			}
			if _, err := v.Float64(); err != nil {
				return false
			}
		}
		return true
	}

	if hasAll("x", "y") || hasAll("top", "left", "width", "height") {
		return nil
	}
	return fmt.Errorf("%w: coordinates must contain numeric x,y or top,left,width,height", domain.ErrValidation)
}
