package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paperdrive/internal/domain"
)

type fakeAnnotationStore struct {
	created []domain.Annotation
}

func (f *fakeAnnotationStore) Create(ctx context.Context, a *domain.Annotation) error {
	a.ID = int64(len(f.created) + 1)
	f.created = append(f.created, *a)
	return nil
}

func (f *fakeAnnotationStore) ListByPaper(ctx context.Context, paperID int64) ([]domain.Annotation, error) {
	return f.created, nil
}

func TestCreateAnnotation(t *testing.T) {
	repo := &fakeAnnotationStore{}
	svc := NewAnnotationService(repo, &fakePaperStore{}, zap.NewNop())

	a, err := svc.Create(context.Background(), testCaller(), &domain.Annotation{
		PaperID:     1,
		Content:     "needs citation",
		Coordinates: json.RawMessage(`{"x": 10, "y": 20.5}`),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), a.AuthorID)
	assert.Len(t, repo.created, 1)
}

func TestCreateAnnotationCoordinateValidation(t *testing.T) {
	tests := []struct {
		name    string
		coords  string
		wantErr bool
	}{
		{name: "xy pair", coords: `{"x": 1, "y": 2}`},
		{name: "rect", coords: `{"top": 0, "left": 0, "width": 100, "height": 50}`},
		{name: "extra keys allowed", coords: `{"x": 1, "y": 2, "page": 3}`},
		{name: "missing y", coords: `{"x": 1}`, wantErr: true},
		{name: "partial rect", coords: `{"top": 0, "left": 0}`, wantErr: true},
		{name: "non numeric", coords: `{"x": "ten", "y": 2}`, wantErr: true},
		{name: "not an object", coords: `[1, 2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAnnotationService(&fakeAnnotationStore{}, &fakePaperStore{}, zap.NewNop())

			_, err := svc.Create(context.Background(), testCaller(), &domain.Annotation{
				PaperID:     1,
				Content:     "note",
				Coordinates: json.RawMessage(tt.coords),
			})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrValidation))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCreateAnnotationWithoutCoordinates(t *testing.T) {
	svc := NewAnnotationService(&fakeAnnotationStore{}, &fakePaperStore{}, zap.NewNop())

	_, err := svc.Create(context.Background(), testCaller(), &domain.Annotation{
		PaperID: 1,
		Content: "general remark",
	})
	require.NoError(t, err)
}

func TestCreateAnnotationRequiresContent(t *testing.T) {
	svc := NewAnnotationService(&fakeAnnotationStore{}, &fakePaperStore{}, zap.NewNop())

	_, err := svc.Create(context.Background(), testCaller(), &domain.Annotation{PaperID: 1, Content: " "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreateAnnotationForbiddenOnForeignPaper(t *testing.T) {
	repo := &fakePaperStore{
		getOwnerFn: func(ctx context.Context, paperID int64) (int64, error) {
			return 7, nil
		},
	}
	svc := NewAnnotationService(&fakeAnnotationStore{}, repo, zap.NewNop())

	_, err := svc.Create(context.Background(), testCaller(), &domain.Annotation{PaperID: 1, Content: "note"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
