package media

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"medialib/media-api/internal/config"
	"medialib/media-api/internal/utils/platformerrors"
	"medialib/media-api/utils/mediaid"
)

// Repository defines catalog persistence. Insert performs an atomic
// check-and-insert against the live-hash index: when deduplication is on,
// a second live item with the same content hash fails with Duplicate.
type Repository interface {
	Insert(ctx context.Context, item *MediaItem) error
	FindByHash(ctx context.Context, hash string) (*MediaItem, error)
	GetByID(ctx context.Context, id string) (*MediaItem, error)
	GetByPath(ctx context.Context, path string) (*MediaItem, error)
	Update(ctx context.Context, item *MediaItem) error
	Remove(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
	Stats(ctx context.Context) (*Stats, error)
	Search(ctx context.Context, query string, limit int) ([]*MediaItem, error)
	Recent(ctx context.Context, limit int) ([]*MediaItem, error)
	IncrementUsage(ctx context.Context, id string) (int64, error)
}

// BlobStore defines the content-store operations the catalog and its
// callers depend on.
type BlobStore interface {
	Store(ctx context.Context, data []byte, filename, mimeType string) (*StoredObject, error)
	Write(ctx context.Context, relPath string, data []byte) (*StoredObject, error)
	Read(ctx context.Context, relPath string) ([]byte, error)
	Delete(ctx context.Context, relPath string) error
	Exists(ctx context.Context, relPath string) (bool, error)
	Size(ctx context.Context, relPath string) (int64, error)
	MoveFile(ctx context.Context, src, dst string) error
	CopyFile(ctx context.Context, src, dst string) error
	DirectorySize(ctx context.Context, relPath string) (int64, error)
	CreateDirectory(ctx context.Context, relPath string) error
	DeleteDirectory(ctx context.Context, relPath string) error
	URLFor(relPath string) string
}

// FolderService is the folder collaborator: existence checks plus
// item-count and size accounting hooks.
type FolderService interface {
	Exists(ctx context.Context, folderID string) (bool, error)
	OnItemAdded(ctx context.Context, folderID string, bytes int64)
	OnItemRemoved(ctx context.Context, folderID string, bytes int64)
}

// RegisterRequest describes a stored object to be entered into the catalog.
type RegisterRequest struct {
	Object     *StoredObject
	Filename   string
	MimeType   string
	FolderID   string
	UploadedBy string
	Dimensions *ImageDimensions
	Duration   *float64
	Thumbnails []Thumbnail
	Tags       []string
}

// Service is the media catalog: the system of record for uploaded assets.
type Service struct {
	cfg     *config.Config
	repo    Repository
	store   BlobStore
	folders FolderService
	log     zerolog.Logger
}

func NewService(cfg *config.Config, repo Repository, store BlobStore, folders FolderService, log zerolog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		repo:    repo,
		store:   store,
		folders: folders,
		log:     log.With().Str("component", "media-catalog").Logger(),
	}
}

// Register inserts a stored object into the catalog. The hash-index insert
// is atomic: under concurrent identical uploads exactly one registration
// wins and the loser receives Duplicate. The just-stored bytes are not
// rolled back here; the upload service compensates on failure.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*MediaItem, error) {
	if req.Object == nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"stored object is required",
			nil,
			"6f1a9c53-2e87-4b04-bd36-a0c8e5d17f92",
		)
	}

	if req.FolderID != "" {
		if err := s.requireFolder(ctx, req.FolderID); err != nil {
			return nil, err
		}
	}

	slug, ext := SplitStem(req.Filename)
	now := time.Now().UTC()
	item := &MediaItem{
		ID:          mediaid.NewMedia(),
		Filename:    req.Filename,
		Slug:        slug,
		MimeType:    req.MimeType,
		MediaType:   TypeFromMIME(req.MimeType),
		Size:        req.Object.Size,
		Extension:   ext,
		Path:        req.Object.Path,
		URL:         req.Object.URL,
		FolderID:    req.FolderID,
		Dimensions:  req.Dimensions,
		Duration:    req.Duration,
		Thumbnails:  req.Thumbnails,
		ContentHash: req.Object.Hash,
		Tags:        req.Tags,
		UploadedBy:  req.UploadedBy,
		UploadedAt:  now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, item); err != nil {
		return nil, err
	}

	if item.FolderID != "" {
		s.folders.OnItemAdded(ctx, item.FolderID, item.Size)
	}

	s.log.Info().
		Str("id", item.ID).
		Str("path", item.Path).
		Str("media_type", string(item.MediaType)).
		Int64("bytes", item.Size).
		Msg("media item registered")

	return item, nil
}

// Get returns an item by ID, including soft-deleted ones.
func (s *Service) Get(ctx context.Context, id string) (*MediaItem, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByPath returns an item by its storage path.
func (s *Service) GetByPath(ctx context.Context, path string) (*MediaItem, error) {
	return s.repo.GetByPath(ctx, path)
}

// FindByHash returns the live item owning a content hash, or nil.
func (s *Service) FindByHash(ctx context.Context, hash string) (*MediaItem, error) {
	return s.repo.FindByHash(ctx, hash)
}

// Update applies metadata changes; nil fields stay untouched and the
// updated timestamp always refreshes.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*MediaItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.AltText != nil {
		item.AltText = *req.AltText
	}
	if req.Tags != nil {
		item.Tags = *req.Tags
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// MoveToFolder reassigns an item's folder and updates both folders'
// accounting.
func (s *Service) MoveToFolder(ctx context.Context, id, folderID string) (*MediaItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if folderID != "" {
		if err := s.requireFolder(ctx, folderID); err != nil {
			return nil, err
		}
	}
	if item.FolderID == folderID {
		return item, nil
	}

	previous := item.FolderID
	item.FolderID = folderID
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}

	if previous != "" {
		s.folders.OnItemRemoved(ctx, previous, item.Size)
	}
	if folderID != "" {
		s.folders.OnItemAdded(ctx, folderID, item.Size)
	}
	return item, nil
}

// Delete soft-deletes by default: the flag flips and the file stays.
// With permanent=true the file and every thumbnail are erased (missing
// files tolerated), then the catalog entry and hash-index entry go away.
func (s *Service) Delete(ctx context.Context, id string, permanent bool) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !permanent {
		if item.Deleted {
			return nil
		}
		item.Deleted = true
		item.UpdatedAt = time.Now().UTC()
		return s.repo.Update(ctx, item)
	}

	if err := s.store.Delete(ctx, item.Path); err != nil {
		s.log.Warn().Err(err).Str("path", item.Path).Msg("could not delete original file")
	}
	for _, thumb := range item.Thumbnails {
		if err := s.store.Delete(ctx, thumb.Path); err != nil {
			s.log.Warn().Err(err).Str("path", thumb.Path).Msg("could not delete thumbnail")
		}
	}

	if err := s.repo.Remove(ctx, id); err != nil {
		return err
	}
	if item.FolderID != "" {
		s.folders.OnItemRemoved(ctx, item.FolderID, item.Size)
	}

	s.log.Info().Str("id", id).Msg("media item permanently deleted")
	return nil
}

// Restore clears the soft-delete flag. Restoring fails with Duplicate if
// another live item has claimed the same content hash in the meantime.
func (s *Service) Restore(ctx context.Context, id string) (*MediaItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Deleted {
		return item, nil
	}

	item.Deleted = false
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// List returns one page of items matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) (*ListResult, error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// Stats aggregates counts and sizes over non-deleted items.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// Search matches filename, title and tags of non-deleted items.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*MediaItem, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.Search(ctx, query, limit)
}

// Recent returns the newest non-deleted items.
func (s *Service) Recent(ctx context.Context, limit int) ([]*MediaItem, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.Recent(ctx, limit)
}

// IncrementUsage bumps the usage counter and returns the new value.
func (s *Service) IncrementUsage(ctx context.Context, id string) (int64, error) {
	return s.repo.IncrementUsage(ctx, id)
}

// ReadContent returns the stored bytes of an item. Soft-deleted items do
// not serve content until restored.
func (s *Service) ReadContent(ctx context.Context, id string) ([]byte, *MediaItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if item.Deleted {
		return nil, nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("media %s is deleted", id),
			nil,
			"b8f4a2d1-5c96-4e07-a3b8-2d7f0c9e6145",
		)
	}
	data, err := s.store.Read(ctx, item.Path)
	if err != nil {
		return nil, nil, err
	}
	return data, item, nil
}

func (s *Service) requireFolder(ctx context.Context, folderID string) error {
	exists, err := s.folders.Exists(ctx, folderID)
	if err != nil {
		return err
	}
	if !exists {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("folder %s not found", folderID),
			nil,
			"48b0d6e2-7f91-4c35-ae08-5d2c9f1b74a6",
		)
	}
	return nil
}
