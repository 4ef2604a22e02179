package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"paperdrive/internal/auth"
	"paperdrive/internal/domain"
	"paperdrive/internal/service/blob"
)

// InitialVersion — тег первой версии, создаваемой при загрузке.
const InitialVersion = "v1.0"

// PaperStore — контракт хранилища документов, нужный сервису.
type PaperStore interface {
	CreatePaper(ctx context.Context, paper *domain.Paper, version *domain.PaperVersion) error
	GetOwner(ctx context.Context, paperID int64) (int64, error)
	AddVersion(ctx context.Context, paperID int64, version *domain.PaperVersion) error
	Delete(ctx context.Context, paperID int64) error
	ListVersions(ctx context.Context, paperID int64) ([]domain.PaperVersion, error)
	CreateVersionStatus(ctx context.Context, version *domain.PaperVersion) error
	UpdateVersionStatus(ctx context.Context, paperID int64, version string, status domain.VersionStatus, size *int64) (*domain.PaperVersion, error)
}

// UploadLimits — явные ограничения на входной артефакт.
type UploadLimits struct {
	MaxArtifactBytes  int64
	AllowedExtensions []string
}

// PaperService реализует жизненный цикл документа: валидация артефакта,
// запись в блоб-хранилище, затем фиксация в базе. Двухфазной фиксации между
// хранилищами нет, поэтому при ошибке базы свежий блоб удаляется
// компенсирующим действием.
type PaperService struct {
	repo   PaperStore
	store  blob.Storage
	limits UploadLimits
	log    *zap.Logger
}

func NewPaperService(repo PaperStore, store blob.Storage, limits UploadLimits, log *zap.Logger) *PaperService {
	return &PaperService{
		repo:   repo,
		store:  store,
		limits: limits,
		log:    log,
	}
}

// validateArtifact проверяет расширение и размер до каких-либо побочных эффектов.
func (s *PaperService) validateArtifact(filename string, content []byte) error {
	lower := strings.ToLower(filename)
	allowed := false
	for _, ext := range s.limits.AllowedExtensions {
		if strings.HasSuffix(lower, ext) {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: unsupported file extension, expected one of %s",
			domain.ErrValidation, strings.Join(s.limits.AllowedExtensions, ", "))
	}
	if len(content) == 0 {
		return fmt.Errorf("%w: uploaded file is empty", domain.ErrValidation)
	}
	if int64(len(content)) > s.limits.MaxArtifactBytes {
		return fmt.Errorf("%w: file size exceeds %d bytes", domain.ErrValidation, s.limits.MaxArtifactBytes)
	}
	return nil
}

// compensateBlob удаляет осиротевший блоб после ошибки базы.
// Неудача компенсации логируется и не перекрывает исходную ошибку.
func (s *PaperService) compensateBlob(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn("failed to delete blob after db error",
			zap.String("storage_key", key),
			zap.Error(err))
	}
}

// UploadPaper создаёт документ с первой версией из загруженного артефакта.
func (s *PaperService) UploadPaper(ctx context.Context, caller auth.Identity, filename string, content []byte) (*domain.Paper, error) {
	if err := s.validateArtifact(filename, content); err != nil {
		return nil, err
	}

	key, err := s.store.Put(ctx, blob.CategoryPaper, filename, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	paper := &domain.Paper{
		OwnerID:       caller.ID,
		LatestVersion: InitialVersion,
		StorageKey:    key,
	}
	version := &domain.PaperVersion{
		Version:         InitialVersion,
		Size:            int64(len(content)),
		Status:          domain.StatusOK,
		StorageKey:      key,
		SubmittedByID:   caller.ID,
		SubmittedByName: caller.Username,
		SubmittedByRole: caller.Role(),
	}

	if err := s.repo.CreatePaper(ctx, paper, version); err != nil {
		s.compensateBlob(ctx, key)
		return nil, err
	}

	s.log.Info("paper uploaded",
		zap.Int64("paper_id", paper.ID),
		zap.Int64("owner_id", paper.OwnerID),
		zap.String("version", paper.LatestVersion))
	return paper, nil
}

// UpdatePaper добавляет новую версию существующего документа. Старый артефакт
// остаётся на месте: история версий ссылается на него по своему ключу.
func (s *PaperService) UpdatePaper(ctx context.Context, paperID int64, caller auth.Identity, filename string, content []byte, versionTag string) (*domain.PaperVersion, error) {
	ownerID, err := s.repo.GetOwner(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if !auth.CanMutate(caller, ownerID) {
		return nil, fmt.Errorf("%w: paper %d belongs to another user", domain.ErrForbidden, paperID)
	}
	if strings.TrimSpace(versionTag) == "" {
		return nil, fmt.Errorf("%w: version tag is required", domain.ErrValidation)
	}
	if err := s.validateArtifact(filename, content); err != nil {
		return nil, err
	}

	key, err := s.store.Put(ctx, blob.CategoryPaper, filename, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	version := &domain.PaperVersion{
		Version:         versionTag,
		Size:            int64(len(content)),
		Status:          domain.StatusOK,
		StorageKey:      key,
		SubmittedByID:   caller.ID,
		SubmittedByName: caller.Username,
		SubmittedByRole: caller.Role(),
	}

	if err := s.repo.AddVersion(ctx, paperID, version); err != nil {
		s.compensateBlob(ctx, key)
		return nil, err
	}

	s.log.Info("paper version added",
		zap.Int64("paper_id", paperID),
		zap.String("version", versionTag))
	return version, nil
}

// DeletePaper удаляет документ со всеми версиями. Артефакты в блоб-хранилище
// при этом не вычищаются: записанные ключи остаются единственной их описью.
func (s *PaperService) DeletePaper(ctx context.Context, paperID int64, caller auth.Identity) error {
	ownerID, err := s.repo.GetOwner(ctx, paperID)
	if err != nil {
		return err
	}
	if !auth.CanMutate(caller, ownerID) {
		return fmt.Errorf("%w: paper %d belongs to another user", domain.ErrForbidden, paperID)
	}

	if err := s.repo.Delete(ctx, paperID); err != nil {
		return err
	}

	s.log.Info("paper deleted", zap.Int64("paper_id", paperID))
	return nil
}

// ListVersions возвращает историю версий документа, свежие первыми.
func (s *PaperService) ListVersions(ctx context.Context, paperID int64, caller auth.Identity) ([]domain.PaperVersion, error) {
	ownerID, err := s.repo.GetOwner(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if !auth.CanMutate(caller, ownerID) {
		return nil, fmt.Errorf("%w: paper %d belongs to another user", domain.ErrForbidden, paperID)
	}
	return s.repo.ListVersions(ctx, paperID)
}

// CreateStatus регистрирует статус версии отдельно от загрузки артефакта.
// Размер по умолчанию равен нулю.
func (s *PaperService) CreateStatus(ctx context.Context, paperID int64, versionTag, status string, size *int64, caller auth.Identity) (*domain.PaperVersion, error) {
	parsed, err := domain.ParseVersionStatus(status)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(versionTag) == "" {
		return nil, fmt.Errorf("%w: version tag is required", domain.ErrValidation)
	}

	// Документ должен существовать
	if _, err := s.repo.GetOwner(ctx, paperID); err != nil {
		return nil, err
	}

	version := &domain.PaperVersion{
		PaperID:         paperID,
		Version:         versionTag,
		Status:          parsed,
		SubmittedByID:   caller.ID,
		SubmittedByName: caller.Username,
		SubmittedByRole: caller.Role(),
	}
	if size != nil {
		version.Size = *size
	}

	if err := s.repo.CreateVersionStatus(ctx, version); err != nil {
		return nil, err
	}
	return version, nil
}

// UpdateStatus атомарно меняет статус версии; пропущенный размер
// сохраняет прежнее значение.
func (s *PaperService) UpdateStatus(ctx context.Context, paperID int64, versionTag, status string, size *int64) (*domain.PaperVersion, error) {
	parsed, err := domain.ParseVersionStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateVersionStatus(ctx, paperID, versionTag, parsed, size)
}
