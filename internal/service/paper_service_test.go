package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paperdrive/internal/auth"
	"paperdrive/internal/domain"
	"paperdrive/internal/service/blob"
)

// memBlob — блоб-хранилище в памяти для тестов.
type memBlob struct {
	objects map[string][]byte
	deleted []string
	putErr  error
	delErr  error
	seq     int
}

func newMemBlob() *memBlob {
	return &memBlob{objects: make(map[string][]byte)}
}

func (m *memBlob) Put(_ context.Context, category blob.Category, filename string, content []byte) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	m.seq++
	key := string(category) + "/" + strconv.Itoa(m.seq) + "_" + filename
	m.objects[key] = content
	return key, nil
}

func (m *memBlob) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (m *memBlob) Delete(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memBlob) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

// fakePaperStore — подменное хранилище с настраиваемым поведением.
type fakePaperStore struct {
	createPaperFn  func(ctx context.Context, paper *domain.Paper, version *domain.PaperVersion) error
	getOwnerFn     func(ctx context.Context, paperID int64) (int64, error)
	addVersionFn   func(ctx context.Context, paperID int64, version *domain.PaperVersion) error
	deleteFn       func(ctx context.Context, paperID int64) error
	listVersionsFn func(ctx context.Context, paperID int64) ([]domain.PaperVersion, error)
	createStatusFn func(ctx context.Context, version *domain.PaperVersion) error
	updateStatusFn func(ctx context.Context, paperID int64, version string, status domain.VersionStatus, size *int64) (*domain.PaperVersion, error)
}

func (f *fakePaperStore) CreatePaper(ctx context.Context, paper *domain.Paper, version *domain.PaperVersion) error {
	if f.createPaperFn != nil {
		return f.createPaperFn(ctx, paper, version)
	}
	paper.ID = 1
	version.ID = 1
	version.PaperID = 1
	return nil
}

func (f *fakePaperStore) GetOwner(ctx context.Context, paperID int64) (int64, error) {
	if f.getOwnerFn != nil {
		return f.getOwnerFn(ctx, paperID)
	}
	return 42, nil
}

func (f *fakePaperStore) AddVersion(ctx context.Context, paperID int64, version *domain.PaperVersion) error {
	if f.addVersionFn != nil {
		return f.addVersionFn(ctx, paperID, version)
	}
	version.ID = 2
	version.PaperID = paperID
	return nil
}

func (f *fakePaperStore) Delete(ctx context.Context, paperID int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, paperID)
	}
	return nil
}

func (f *fakePaperStore) ListVersions(ctx context.Context, paperID int64) ([]domain.PaperVersion, error) {
	if f.listVersionsFn != nil {
		return f.listVersionsFn(ctx, paperID)
	}
	return nil, nil
}

func (f *fakePaperStore) CreateVersionStatus(ctx context.Context, version *domain.PaperVersion) error {
	if f.createStatusFn != nil {
		return f.createStatusFn(ctx, version)
	}
	version.ID = 3
	return nil
}

func (f *fakePaperStore) UpdateVersionStatus(ctx context.Context, paperID int64, version string, status domain.VersionStatus, size *int64) (*domain.PaperVersion, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, paperID, version, status, size)
	}
	return &domain.PaperVersion{PaperID: paperID, Version: version, Status: status}, nil
}

const testMaxBytes = 64

func newTestPaperService(repo PaperStore, store blob.Storage) *PaperService {
	return NewPaperService(repo, store, UploadLimits{
		MaxArtifactBytes:  testMaxBytes,
		AllowedExtensions: []string{".docx"},
	}, zap.NewNop())
}

func testCaller() auth.Identity {
	return auth.Identity{ID: 42, Username: "student42", Roles: []string{"student"}}
}

func TestUploadPaper(t *testing.T) {
	store := newMemBlob()
	svc := newTestPaperService(&fakePaperStore{}, store)

	paper, err := svc.UploadPaper(context.Background(), testCaller(), "thesis.docx", []byte("content"))
	require.NoError(t, err)

	assert.Equal(t, int64(42), paper.OwnerID)
	assert.Equal(t, InitialVersion, paper.LatestVersion)
	assert.NotEmpty(t, paper.StorageKey)

	exists, err := store.Exists(context.Background(), paper.StorageKey)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUploadPaperValidation(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
	}{
		{name: "wrong extension", filename: "thesis.pdf", content: []byte("x")},
		{name: "no extension", filename: "thesis", content: []byte("x")},
		{name: "empty file", filename: "thesis.docx", content: nil},
		{name: "over size ceiling", filename: "thesis.docx", content: bytes.Repeat([]byte("a"), testMaxBytes+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemBlob()
			svc := newTestPaperService(&fakePaperStore{}, store)

			_, err := svc.UploadPaper(context.Background(), testCaller(), tt.filename, tt.content)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			// до записи в хранилище дело не дошло
			assert.Empty(t, store.objects)
		})
	}
}

func TestUploadPaperAcceptsExactCeiling(t *testing.T) {
	svc := newTestPaperService(&fakePaperStore{}, newMemBlob())

	_, err := svc.UploadPaper(context.Background(), testCaller(), "thesis.docx", bytes.Repeat([]byte("a"), testMaxBytes))
	require.NoError(t, err)
}

func TestUploadPaperCompensatesBlobOnDBError(t *testing.T) {
	store := newMemBlob()
	repo := &fakePaperStore{
		createPaperFn: func(ctx context.Context, paper *domain.Paper, version *domain.PaperVersion) error {
			return fmt.Errorf("%w: insert failed", domain.ErrStorage)
		},
	}
	svc := newTestPaperService(repo, store)

	_, err := svc.UploadPaper(context.Background(), testCaller(), "thesis.docx", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorage))

	// осиротевший блоб удалён
	assert.Len(t, store.deleted, 1)
	assert.Empty(t, store.objects)
}

func TestUploadPaperSurfacesDBErrorWhenCompensationFails(t *testing.T) {
	store := newMemBlob()
	store.delErr = fmt.Errorf("disk on fire")
	repo := &fakePaperStore{
		createPaperFn: func(ctx context.Context, paper *domain.Paper, version *domain.PaperVersion) error {
			return fmt.Errorf("%w: insert failed", domain.ErrStorage)
		},
	}
	svc := newTestPaperService(repo, store)

	_, err := svc.UploadPaper(context.Background(), testCaller(), "thesis.docx", []byte("x"))
	require.Error(t, err)
	// наружу выходит первичная ошибка базы, не ошибка компенсации
	assert.True(t, errors.Is(err, domain.ErrStorage))
	assert.NotContains(t, err.Error(), "disk on fire")
}

func TestUpdatePaper(t *testing.T) {
	store := newMemBlob()
	var captured *domain.PaperVersion
	repo := &fakePaperStore{
		addVersionFn: func(ctx context.Context, paperID int64, version *domain.PaperVersion) error {
			captured = version
			version.PaperID = paperID
			return nil
		},
	}
	svc := newTestPaperService(repo, store)

	version, err := svc.UpdatePaper(context.Background(), 1, testCaller(), "thesis.docx", []byte("v2"), "v2.0")
	require.NoError(t, err)

	assert.Equal(t, "v2.0", version.Version)
	assert.Equal(t, domain.StatusOK, version.Status)
	assert.Equal(t, int64(42), version.SubmittedByID)
	assert.Equal(t, "student42", version.SubmittedByName)
	assert.Equal(t, "student", version.SubmittedByRole)
	assert.Same(t, captured, version)
}

func TestUpdatePaperForbiddenForNonOwner(t *testing.T) {
	store := newMemBlob()
	repo := &fakePaperStore{
		getOwnerFn: func(ctx context.Context, paperID int64) (int64, error) {
			return 7, nil
		},
	}
	svc := newTestPaperService(repo, store)

	_, err := svc.UpdatePaper(context.Background(), 1, testCaller(), "thesis.docx", []byte("x"), "v2.0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	assert.Empty(t, store.objects)
}

func TestUpdatePaperNotFound(t *testing.T) {
	repo := &fakePaperStore{
		getOwnerFn: func(ctx context.Context, paperID int64) (int64, error) {
			return 0, fmt.Errorf("%w: paper %d", domain.ErrNotFound, paperID)
		},
	}
	svc := newTestPaperService(repo, newMemBlob())

	_, err := svc.UpdatePaper(context.Background(), 99, testCaller(), "thesis.docx", []byte("x"), "v2.0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdatePaperRequiresVersionTag(t *testing.T) {
	svc := newTestPaperService(&fakePaperStore{}, newMemBlob())

	_, err := svc.UpdatePaper(context.Background(), 1, testCaller(), "thesis.docx", []byte("x"), "  ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUpdatePaperCompensatesBlobOnConflict(t *testing.T) {
	store := newMemBlob()
	repo := &fakePaperStore{
		addVersionFn: func(ctx context.Context, paperID int64, version *domain.PaperVersion) error {
			return fmt.Errorf("%w: version %s", domain.ErrConflict, version.Version)
		},
	}
	svc := newTestPaperService(repo, store)

	_, err := svc.UpdatePaper(context.Background(), 1, testCaller(), "thesis.docx", []byte("x"), "v2.0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	// блоб несостоявшейся версии удалён
	assert.Len(t, store.deleted, 1)
	assert.Empty(t, store.objects)
}

func TestDeletePaperLeavesBlobsInPlace(t *testing.T) {
	store := newMemBlob()
	svc := newTestPaperService(&fakePaperStore{}, store)

	paper, err := svc.UploadPaper(context.Background(), testCaller(), "thesis.docx", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, svc.DeletePaper(context.Background(), paper.ID, testCaller()))

	// артефакты после удаления документа не вычищаются
	exists, err := store.Exists(context.Background(), paper.StorageKey)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeletePaperForbiddenForNonOwner(t *testing.T) {
	repo := &fakePaperStore{
		getOwnerFn: func(ctx context.Context, paperID int64) (int64, error) {
			return 7, nil
		},
	}
	svc := newTestPaperService(repo, newMemBlob())

	err := svc.DeletePaper(context.Background(), 1, testCaller())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestCreateStatus(t *testing.T) {
	var captured *domain.PaperVersion
	repo := &fakePaperStore{
		createStatusFn: func(ctx context.Context, version *domain.PaperVersion) error {
			captured = version
			return nil
		},
	}
	svc := newTestPaperService(repo, newMemBlob())

	version, err := svc.CreateStatus(context.Background(), 1, "v3.0", "pending", nil, testCaller())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, version.Status)
	assert.Equal(t, int64(0), version.Size)
	assert.Equal(t, int64(42), version.SubmittedByID)
	assert.Same(t, captured, version)
}

func TestCreateStatusWithSize(t *testing.T) {
	svc := newTestPaperService(&fakePaperStore{}, newMemBlob())

	size := int64(512)
	version, err := svc.CreateStatus(context.Background(), 1, "v3.0", "failed", &size, testCaller())
	require.NoError(t, err)
	assert.Equal(t, int64(512), version.Size)
}

func TestCreateStatusRejectsUnknownStatus(t *testing.T) {
	svc := newTestPaperService(&fakePaperStore{}, newMemBlob())

	_, err := svc.CreateStatus(context.Background(), 1, "v3.0", "archived", nil, testCaller())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreateStatusConflictOnDuplicatePair(t *testing.T) {
	repo := &fakePaperStore{
		createStatusFn: func(ctx context.Context, version *domain.PaperVersion) error {
			return fmt.Errorf("%w: version %s", domain.ErrConflict, version.Version)
		},
	}
	svc := newTestPaperService(repo, newMemBlob())

	_, err := svc.CreateStatus(context.Background(), 1, "v1.0", "ok", nil, testCaller())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestUpdateStatus(t *testing.T) {
	var gotStatus domain.VersionStatus
	var gotSize *int64
	repo := &fakePaperStore{
		updateStatusFn: func(ctx context.Context, paperID int64, version string, status domain.VersionStatus, size *int64) (*domain.PaperVersion, error) {
			gotStatus = status
			gotSize = size
			return &domain.PaperVersion{PaperID: paperID, Version: version, Status: status}, nil
		},
	}
	svc := newTestPaperService(repo, newMemBlob())

	version, err := svc.UpdateStatus(context.Background(), 1, "v1.0", "failed", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, version.Status)
	assert.Equal(t, domain.StatusFailed, gotStatus)
	// пропущенный размер уходит в хранилище как nil и сохраняет прежнее значение
	assert.Nil(t, gotSize)
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo := &fakePaperStore{
		updateStatusFn: func(ctx context.Context, paperID int64, version string, status domain.VersionStatus, size *int64) (*domain.PaperVersion, error) {
			return nil, fmt.Errorf("%w: version %s", domain.ErrNotFound, version)
		},
	}
	svc := newTestPaperService(repo, newMemBlob())

	_, err := svc.UpdateStatus(context.Background(), 1, "v9.0", "ok", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := newTestPaperService(&fakePaperStore{}, newMemBlob())

	_, err := svc.UpdateStatus(context.Background(), 1, "v1.0", "wat", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
