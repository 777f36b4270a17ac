package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"medialib/media-api/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes. The live-hash unique index
// only exists when deduplication is enabled; it is partial so soft-deleted
// items release their hash for re-upload.
func AutoMigrate(ctx context.Context, db *gorm.DB, dedupe bool, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(&entities.MediaItem{}); err != nil {
		return err
	}
	if dedupe {
		err := db.WithContext(ctx).Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_media_items_live_hash
			 ON media_items (content_hash) WHERE deleted = false`,
		).Error
		if err != nil {
			return err
		}
	}
	log.Info().Bool("dedupe", dedupe).Msg("applied media item migrations")
	return nil
}
