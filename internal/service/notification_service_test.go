package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paperdrive/internal/auth"
	"paperdrive/internal/domain"
	"paperdrive/internal/repository"
)

type fakeNotificationStore struct {
	created    []domain.Notification
	lastFilter repository.NotificationFilter
	queryItems []domain.Notification
	queryTotal int
	createErr  error
	updateErr  error
}

func (f *fakeNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	n.ID = int64(len(f.created) + 1)
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeNotificationStore) Query(ctx context.Context, filter repository.NotificationFilter) ([]domain.Notification, int, error) {
	f.lastFilter = filter
	return f.queryItems, f.queryTotal, nil
}

func (f *fakeNotificationStore) Update(ctx context.Context, id int64, title, content *string) error {
	return f.updateErr
}

func (f *fakeNotificationStore) Retract(ctx context.Context, id int64) error {
	return f.updateErr
}

func teacherCaller() auth.Identity {
	return auth.Identity{ID: 100, Username: "prof", Roles: []string{"teacher"}}
}

func TestPushSingleTarget(t *testing.T) {
	repo := &fakeNotificationStore{}
	svc := NewNotificationService(repo, &fakeGroupStore{}, zap.NewNop())

	items, err := svc.Push(context.Background(), teacherCaller(), PushInput{
		Targets: "s200",
		Title:   "Review ready",
		Content: "Your paper has been reviewed",
	})
	require.NoError(t, err)
	require.Len(t, items, 1)

	n := items[0]
	assert.Equal(t, "s200", n.UserID)
	assert.Equal(t, domain.NotificationUnread, n.Status)
	assert.Equal(t, "system", n.Source)

	// снимок отправителя в метаданных
	var meta domain.NotificationMetadata
	require.NoError(t, json.Unmarshal(n.Metadata, &meta))
	assert.Equal(t, "100", meta.SenderID)
	assert.Equal(t, "teacher", meta.SenderRole)
}

func TestPushMultipleTargetsDeduplicated(t *testing.T) {
	repo := &fakeNotificationStore{}
	svc := NewNotificationService(repo, &fakeGroupStore{}, zap.NewNop())

	items, err := svc.Push(context.Background(), teacherCaller(), PushInput{
		Targets: "s200, s201,s200, ,s202",
		Title:   "t",
		Content: "c",
	})
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Len(t, repo.created, 3)
}

func TestPushRequiresTitleAndContent(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationStore{}, &fakeGroupStore{}, zap.NewNop())

	_, err := svc.Push(context.Background(), teacherCaller(), PushInput{Targets: "s200", Title: " "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestPushRequiresTargets(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationStore{}, &fakeGroupStore{}, zap.NewNop())

	_, err := svc.Push(context.Background(), teacherCaller(), PushInput{Targets: " , ", Title: "t", Content: "c"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestPushForbiddenForStudents(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationStore{}, &fakeGroupStore{}, zap.NewNop())
	student := auth.Identity{ID: 5, Roles: []string{"student"}}

	_, err := svc.Push(context.Background(), student, PushInput{Targets: "s1", Title: "t", Content: "c"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestQueryAdminSeesAll(t *testing.T) {
	repo := &fakeNotificationStore{queryTotal: 3}
	svc := NewNotificationService(repo, &fakeGroupStore{}, zap.NewNop())

	page, err := svc.Query(context.Background(), adminCaller(), QueryInput{Status: "unread"})
	require.NoError(t, err)

	assert.Equal(t, 3, page.Total)
	assert.Empty(t, repo.lastFilter.OwnSenderID)
	assert.Equal(t, "unread", repo.lastFilter.Status)
}

func TestQueryTeacherRestrictedToOwnSent(t *testing.T) {
	repo := &fakeNotificationStore{}
	svc := NewNotificationService(repo, &fakeGroupStore{}, zap.NewNop())

	_, err := svc.Query(context.Background(), teacherCaller(), QueryInput{})
	require.NoError(t, err)
	assert.Equal(t, "100", repo.lastFilter.OwnSenderID)
}

func TestQueryTeacherMayTargetOwnStudent(t *testing.T) {
	repo := &fakeNotificationStore{}
	groups := &fakeGroupStore{isTeacher: true}
	svc := NewNotificationService(repo, groups, zap.NewNop())

	_, err := svc.Query(context.Background(), teacherCaller(), QueryInput{TargetUserID: "s200"})
	require.NoError(t, err)
	assert.Equal(t, "s200", repo.lastFilter.TargetUserID)
	assert.Empty(t, repo.lastFilter.OwnSenderID)
}

func TestQueryTeacherForbiddenForForeignStudent(t *testing.T) {
	groups := &fakeGroupStore{isTeacher: false}
	svc := NewNotificationService(&fakeNotificationStore{}, groups, zap.NewNop())

	_, err := svc.Query(context.Background(), teacherCaller(), QueryInput{TargetUserID: "s999"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestQueryForbiddenForStudents(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationStore{}, &fakeGroupStore{}, zap.NewNop())
	student := auth.Identity{ID: 5, Roles: []string{"student"}}

	_, err := svc.Query(context.Background(), student, QueryInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestQueryClampsPageSize(t *testing.T) {
	repo := &fakeNotificationStore{}
	svc := NewNotificationService(repo, &fakeGroupStore{}, zap.NewNop())

	page, err := svc.Query(context.Background(), adminCaller(), QueryInput{Page: -1, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, notificationMaxPageSize, page.PageSize)

	page, err = svc.Query(context.Background(), adminCaller(), QueryInput{})
	require.NoError(t, err)
	assert.Equal(t, notificationDefaultPageSize, page.PageSize)
}

func TestUpdateNothingToUpdate(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationStore{}, &fakeGroupStore{}, zap.NewNop())

	err := svc.Update(context.Background(), adminCaller(), 1, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUpdateNotFoundPassthrough(t *testing.T) {
	repo := &fakeNotificationStore{updateErr: fmt.Errorf("%w: notification 9", domain.ErrNotFound)}
	svc := NewNotificationService(repo, &fakeGroupStore{}, zap.NewNop())

	title := "new"
	err := svc.Update(context.Background(), adminCaller(), 9, &title, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRetractForbiddenForTeachers(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationStore{}, &fakeGroupStore{}, zap.NewNop())

	err := svc.Retract(context.Background(), teacherCaller(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
