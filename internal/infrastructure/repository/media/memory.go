package media

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	domain "medialib/media-api/internal/domain/media"
	"medialib/media-api/internal/utils/platformerrors"
)

// MemoryRepository is a catalog backed by process memory: an item map and
// a hash index updated together under one lock. It is the default backend
// when no database is configured, and the test double elsewhere.
type MemoryRepository struct {
	mu        sync.RWMutex
	items     map[string]*domain.MediaItem
	hashIndex map[string]string
	dedupe    bool
}

func NewMemoryRepository(dedupe bool) *MemoryRepository {
	return &MemoryRepository{
		items:     make(map[string]*domain.MediaItem),
		hashIndex: make(map[string]string),
		dedupe:    dedupe,
	}
}

// Insert adds an item; when dedup is on, a live item already owning the
// content hash makes the call fail with Duplicate. Item map and hash index
// change in the same critical section.
func (r *MemoryRepository) Insert(ctx context.Context, item *domain.MediaItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dedupe && item.ContentHash != "" {
		if ownerID, taken := r.hashIndex[item.ContentHash]; taken {
			return duplicateError(ctx, item.ContentHash, ownerID)
		}
	}

	r.items[item.ID] = cloneItem(item)
	if !item.Deleted && item.ContentHash != "" {
		r.hashIndex[item.ContentHash] = item.ID
	}
	return nil
}

func (r *MemoryRepository) FindByHash(ctx context.Context, hash string) (*domain.MediaItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.hashIndex[hash]
	if !ok {
		return nil, nil
	}
	item, ok := r.items[id]
	if !ok || item.Deleted {
		return nil, nil
	}
	return cloneItem(item), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.MediaItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, notFoundError(ctx, id)
	}
	return cloneItem(item), nil
}

func (r *MemoryRepository) GetByPath(ctx context.Context, path string) (*domain.MediaItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.Path == path {
			return cloneItem(item), nil
		}
	}
	return nil, notFoundError(ctx, path)
}

// Update replaces an item and keeps the hash index in lock-step with the
// soft-delete flag: deleting frees the hash, restoring reclaims it (or
// fails with Duplicate when another live item took it in the meantime).
func (r *MemoryRepository) Update(ctx context.Context, item *domain.MediaItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok {
		return notFoundError(ctx, item.ID)
	}

	if item.ContentHash != "" {
		switch {
		case existing.Deleted && !item.Deleted:
			if ownerID, taken := r.hashIndex[item.ContentHash]; taken && ownerID != item.ID && r.dedupe {
				return duplicateError(ctx, item.ContentHash, ownerID)
			}
			r.hashIndex[item.ContentHash] = item.ID
		case !existing.Deleted && item.Deleted:
			if r.hashIndex[item.ContentHash] == item.ID {
				delete(r.hashIndex, item.ContentHash)
			}
		}
	}

	r.items[item.ID] = cloneItem(item)
	return nil
}

func (r *MemoryRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return notFoundError(ctx, id)
	}
	if item.ContentHash != "" && r.hashIndex[item.ContentHash] == id {
		delete(r.hashIndex, item.ContentHash)
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, filter domain.Filter) (*domain.ListResult, error) {
	filter.Normalize()

	r.mu.RLock()
	matched := make([]*domain.MediaItem, 0, len(r.items))
	for _, item := range r.items {
		if matchesFilter(item, filter) {
			matched = append(matched, cloneItem(item))
		}
	}
	r.mu.RUnlock()

	sortItems(matched, filter.SortBy, filter.SortAsc)

	total := int64(len(matched))
	totalPages := int((total + int64(filter.PerPage) - 1) / int64(filter.PerPage))

	start := (filter.Page - 1) * filter.PerPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.PerPage
	if end > len(matched) {
		end = len(matched)
	}

	return &domain.ListResult{
		Items:      matched[start:end],
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: totalPages,
	}, nil
}

func (r *MemoryRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.Stats{
		CountByType: make(map[domain.MediaType]int64),
		SizeByType:  make(map[domain.MediaType]int64),
	}
	for _, item := range r.items {
		if item.Deleted {
			continue
		}
		stats.TotalItems++
		stats.TotalSize += item.Size
		stats.CountByType[item.MediaType]++
		stats.SizeByType[item.MediaType] += item.Size
	}
	return stats, nil
}

func (r *MemoryRepository) Search(ctx context.Context, query string, limit int) ([]*domain.MediaItem, error) {
	needle := strings.ToLower(strings.TrimSpace(query))

	r.mu.RLock()
	matched := make([]*domain.MediaItem, 0)
	for _, item := range r.items {
		if item.Deleted {
			continue
		}
		if matchesQuery(item, needle) {
			matched = append(matched, cloneItem(item))
		}
	}
	r.mu.RUnlock()

	sortItems(matched, domain.SortByUploadTime, false)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepository) Recent(ctx context.Context, limit int) ([]*domain.MediaItem, error) {
	r.mu.RLock()
	matched := make([]*domain.MediaItem, 0)
	for _, item := range r.items {
		if !item.Deleted {
			matched = append(matched, cloneItem(item))
		}
	}
	r.mu.RUnlock()

	sortItems(matched, domain.SortByUploadTime, false)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepository) IncrementUsage(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return 0, notFoundError(ctx, id)
	}
	item.UsageCount++
	return item.UsageCount, nil
}

func matchesFilter(item *domain.MediaItem, filter domain.Filter) bool {
	if item.Deleted && !filter.IncludeDeleted {
		return false
	}
	if filter.MediaType != "" && item.MediaType != filter.MediaType {
		return false
	}
	if filter.FolderID != "" && item.FolderID != filter.FolderID {
		return false
	}
	if filter.Query != "" {
		needle := strings.ToLower(filter.Query)
		if !strings.Contains(strings.ToLower(item.Filename), needle) &&
			!strings.Contains(strings.ToLower(item.Title), needle) &&
			!strings.Contains(strings.ToLower(item.Description), needle) {
			return false
		}
	}
	if len(filter.Tags) > 0 && !tagsIntersect(item.Tags, filter.Tags) {
		return false
	}
	if filter.UploadedAfter != nil && item.UploadedAt.Before(*filter.UploadedAfter) {
		return false
	}
	if filter.UploadedBefore != nil && item.UploadedAt.After(*filter.UploadedBefore) {
		return false
	}
	if filter.MinSize > 0 && item.Size < filter.MinSize {
		return false
	}
	if filter.MaxSize > 0 && item.Size > filter.MaxSize {
		return false
	}
	return true
}

func matchesQuery(item *domain.MediaItem, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(item.Filename), needle) ||
		strings.Contains(strings.ToLower(item.Title), needle) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func tagsIntersect(itemTags, filterTags []string) bool {
	for _, want := range filterTags {
		for _, have := range itemTags {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

func sortItems(items []*domain.MediaItem, key domain.SortKey, asc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !asc {
			a, b = b, a
		}
		switch key {
		case domain.SortByFilename:
			return strings.ToLower(a.Filename) < strings.ToLower(b.Filename)
		case domain.SortBySize:
			return a.Size < b.Size
		case domain.SortByType:
			return a.MediaType < b.MediaType
		default:
			return a.UploadedAt.Before(b.UploadedAt)
		}
	})
}

func cloneItem(item *domain.MediaItem) *domain.MediaItem {
	clone := *item
	if item.Dimensions != nil {
		dims := *item.Dimensions
		clone.Dimensions = &dims
	}
	if item.Duration != nil {
		duration := *item.Duration
		clone.Duration = &duration
	}
	clone.Thumbnails = append([]domain.Thumbnail(nil), item.Thumbnails...)
	clone.Tags = append([]string(nil), item.Tags...)
	return &clone
}

func duplicateError(ctx context.Context, hash, ownerID string) error {
	return platformerrors.NewErrorWithContext(
		ctx,
		platformerrors.LayerRepository,
		platformerrors.ErrorTypeDuplicate,
		"content hash already owned by a live item",
		nil,
		"0e7c4a92-3b61-48df-95a0-c8f2d6e1b357",
		map[string]any{"content_hash": hash, "owner_id": ownerID},
	)
}

func notFoundError(ctx context.Context, ref string) error {
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound,
		fmt.Sprintf("media item %s not found", ref),
		nil,
		"9a3f6d18-5c20-4e7b-b1d9-04e8c7a2f561",
	)
}
