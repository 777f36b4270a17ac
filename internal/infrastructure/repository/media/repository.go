package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	domain "medialib/media-api/internal/domain/media"
	"medialib/media-api/internal/infrastructure/database/entities"
	"medialib/media-api/internal/utils/platformerrors"
)

// Repository is the PostgreSQL catalog. The live-hash partial unique index
// makes Insert an atomic check-and-insert: a unique violation is the
// duplicate signal.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, item *domain.MediaItem) error {
	entity := mapDomain(item)
	err := r.db.WithContext(ctx).Create(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return platformerrors.NewErrorWithContext(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeDuplicate,
				"content hash already owned by a live item",
				err,
				"4b8e2d7f-91a3-4c60-8f5b-e0d1a9c63b72",
				map[string]any{"content_hash": item.ContentHash},
			)
		}
		return r.dbError(ctx, "insert media item", err)
	}
	return nil
}

func (r *Repository) FindByHash(ctx context.Context, hash string) (*domain.MediaItem, error) {
	var entity entities.MediaItem
	err := r.db.WithContext(ctx).
		Where("content_hash = ? AND deleted = false", hash).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, r.dbError(ctx, "find media by hash", err)
	}
	item := mapEntity(entity)
	return &item, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.MediaItem, error) {
	var entity entities.MediaItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, r.notFound(ctx, id, err)
		}
		return nil, r.dbError(ctx, "get media by id", err)
	}
	item := mapEntity(entity)
	return &item, nil
}

func (r *Repository) GetByPath(ctx context.Context, path string) (*domain.MediaItem, error) {
	var entity entities.MediaItem
	err := r.db.WithContext(ctx).Where("path = ?", path).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, r.notFound(ctx, path, err)
		}
		return nil, r.dbError(ctx, "get media by path", err)
	}
	item := mapEntity(entity)
	return &item, nil
}

func (r *Repository) Update(ctx context.Context, item *domain.MediaItem) error {
	entity := mapDomain(item)
	result := r.db.WithContext(ctx).
		Model(&entities.MediaItem{}).
		Where("id = ?", entity.ID).
		Select("*").
		Omit("id", "uploaded_at").
		Updates(&entity)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeDuplicate,
				"another live item owns this content hash",
				result.Error,
				"c7f1e8a4-0d35-462b-9b8e-72a5d0c4f619",
			)
		}
		return r.dbError(ctx, "update media item", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.notFound(ctx, item.ID, nil)
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.MediaItem{})
	if result.Error != nil {
		return r.dbError(ctx, "remove media item", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.notFound(ctx, id, nil)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, filter domain.Filter) (*domain.ListResult, error) {
	filter.Normalize()

	query := r.applyFilter(r.db.WithContext(ctx).Model(&entities.MediaItem{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, r.dbError(ctx, "count media items", err)
	}

	var rows []entities.MediaItem
	err := query.
		Order(orderClause(filter.SortBy, filter.SortAsc)).
		Offset((filter.Page - 1) * filter.PerPage).
		Limit(filter.PerPage).
		Find(&rows).Error
	if err != nil {
		return nil, r.dbError(ctx, "list media items", err)
	}

	items := make([]*domain.MediaItem, 0, len(rows))
	for _, row := range rows {
		item := mapEntity(row)
		items = append(items, &item)
	}

	totalPages := int((total + int64(filter.PerPage) - 1) / int64(filter.PerPage))
	return &domain.ListResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: totalPages,
	}, nil
}

func (r *Repository) Stats(ctx context.Context) (*domain.Stats, error) {
	type row struct {
		MediaType string
		Count     int64
		Size      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entities.MediaItem{}).
		Select("media_type, COUNT(*) AS count, COALESCE(SUM(size), 0) AS size").
		Where("deleted = false").
		Group("media_type").
		Scan(&rows).Error
	if err != nil {
		return nil, r.dbError(ctx, "aggregate media stats", err)
	}

	stats := &domain.Stats{
		CountByType: make(map[domain.MediaType]int64),
		SizeByType:  make(map[domain.MediaType]int64),
	}
	for _, row := range rows {
		mediaType := domain.MediaType(row.MediaType)
		stats.TotalItems += row.Count
		stats.TotalSize += row.Size
		stats.CountByType[mediaType] = row.Count
		stats.SizeByType[mediaType] = row.Size
	}
	return stats, nil
}

func (r *Repository) Search(ctx context.Context, query string, limit int) ([]*domain.MediaItem, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	var rows []entities.MediaItem
	err := r.db.WithContext(ctx).
		Where("deleted = false").
		Where("LOWER(filename) LIKE ? OR LOWER(title) LIKE ? OR LOWER(tags::text) LIKE ?", pattern, pattern, pattern).
		Order("uploaded_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, r.dbError(ctx, "search media items", err)
	}

	items := make([]*domain.MediaItem, 0, len(rows))
	for _, row := range rows {
		item := mapEntity(row)
		items = append(items, &item)
	}
	return items, nil
}

func (r *Repository) Recent(ctx context.Context, limit int) ([]*domain.MediaItem, error) {
	var rows []entities.MediaItem
	err := r.db.WithContext(ctx).
		Where("deleted = false").
		Order("uploaded_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, r.dbError(ctx, "list recent media items", err)
	}

	items := make([]*domain.MediaItem, 0, len(rows))
	for _, row := range rows {
		item := mapEntity(row)
		items = append(items, &item)
	}
	return items, nil
}

func (r *Repository) IncrementUsage(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.MediaItem{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return 0, r.dbError(ctx, "increment usage", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, r.notFound(ctx, id, nil)
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.MediaItem{}).
		Where("id = ?", id).
		Pluck("usage_count", &count).Error
	if err != nil {
		return 0, r.dbError(ctx, "read usage count", err)
	}
	return count, nil
}

func (r *Repository) applyFilter(query *gorm.DB, filter domain.Filter) *gorm.DB {
	if !filter.IncludeDeleted {
		query = query.Where("deleted = false")
	}
	if filter.MediaType != "" {
		query = query.Where("media_type = ?", string(filter.MediaType))
	}
	if filter.FolderID != "" {
		query = query.Where("folder_id = ?", filter.FolderID)
	}
	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where(
			"LOWER(filename) LIKE ? OR LOWER(title) LIKE ? OR LOWER(description) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if len(filter.Tags) > 0 {
		clauses := make([]string, 0, len(filter.Tags))
		args := make([]any, 0, len(filter.Tags))
		for _, tag := range filter.Tags {
			clauses = append(clauses, "LOWER(tags::text) LIKE ?")
			args = append(args, "%"+strings.ToLower(tag)+"%")
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}
	if filter.UploadedAfter != nil {
		query = query.Where("uploaded_at >= ?", *filter.UploadedAfter)
	}
	if filter.UploadedBefore != nil {
		query = query.Where("uploaded_at <= ?", *filter.UploadedBefore)
	}
	if filter.MinSize > 0 {
		query = query.Where("size >= ?", filter.MinSize)
	}
	if filter.MaxSize > 0 {
		query = query.Where("size <= ?", filter.MaxSize)
	}
	return query
}

func orderClause(key domain.SortKey, asc bool) string {
	column := "uploaded_at"
	switch key {
	case domain.SortByFilename:
		column = "filename"
	case domain.SortBySize:
		column = "size"
	case domain.SortByType:
		column = "media_type"
	}
	direction := "DESC"
	if asc {
		direction = "ASC"
	}
	return column + " " + direction
}

func mapDomain(item *domain.MediaItem) entities.MediaItem {
	entity := entities.MediaItem{
		ID:          item.ID,
		Filename:    item.Filename,
		Slug:        item.Slug,
		Title:       item.Title,
		Description: item.Description,
		AltText:     item.AltText,
		MimeType:    item.MimeType,
		MediaType:   string(item.MediaType),
		Size:        item.Size,
		Extension:   item.Extension,
		Path:        item.Path,
		URL:         item.URL,
		FolderID:    item.FolderID,
		Duration:    item.Duration,
		ContentHash: item.ContentHash,
		Tags:        item.Tags,
		Deleted:     item.Deleted,
		UsageCount:  item.UsageCount,
		UploadedBy:  item.UploadedBy,
		UploadedAt:  item.UploadedAt,
		UpdatedAt:   item.UpdatedAt,
	}
	if item.Dimensions != nil {
		width, height := item.Dimensions.Width, item.Dimensions.Height
		entity.Width, entity.Height = &width, &height
	}
	for _, thumb := range item.Thumbnails {
		entity.Thumbnails = append(entity.Thumbnails, entities.Thumbnail(thumb))
	}
	return entity
}

func mapEntity(entity entities.MediaItem) domain.MediaItem {
	item := domain.MediaItem{
		ID:          entity.ID,
		Filename:    entity.Filename,
		Slug:        entity.Slug,
		Title:       entity.Title,
		Description: entity.Description,
		AltText:     entity.AltText,
		MimeType:    entity.MimeType,
		MediaType:   domain.MediaType(entity.MediaType),
		Size:        entity.Size,
		Extension:   entity.Extension,
		Path:        entity.Path,
		URL:         entity.URL,
		FolderID:    entity.FolderID,
		Duration:    entity.Duration,
		ContentHash: entity.ContentHash,
		Tags:        entity.Tags,
		Deleted:     entity.Deleted,
		UsageCount:  entity.UsageCount,
		UploadedBy:  entity.UploadedBy,
		UploadedAt:  entity.UploadedAt,
		UpdatedAt:   entity.UpdatedAt,
	}
	if entity.Width != nil && entity.Height != nil {
		item.Dimensions = &domain.ImageDimensions{Width: *entity.Width, Height: *entity.Height}
	}
	for _, thumb := range entity.Thumbnails {
		item.Thumbnails = append(item.Thumbnails, domain.Thumbnail(thumb))
	}
	return item
}

func (r *Repository) notFound(ctx context.Context, ref string, err error) error {
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound,
		fmt.Sprintf("media item %s not found", ref),
		err,
		"1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f",
	)
}

func (r *Repository) dbError(ctx context.Context, action string, err error) error {
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerRepository,
		platformerrors.ErrorTypeDatabaseError,
		action+" failed",
		err,
		"2d3e4f5a-6b7c-4d8e-9f0a-1b2c3d4e5f6a",
	)
}
