package handlers

import (
	"github.com/rs/zerolog"

	"medialib/media-api/internal/config"
	domain "medialib/media-api/internal/domain/media"
	"medialib/media-api/internal/domain/optimizer"
	"medialib/media-api/internal/domain/upload"
)

// Provider wires HTTP handlers.
type Provider struct {
	Media  *MediaHandler
	Upload *UploadHandler
}

func NewProvider(cfg *config.Config, mediaService *domain.Service, uploadService *upload.Service, optimizerService *optimizer.Service, log zerolog.Logger) *Provider {
	return &Provider{
		Media:  NewMediaHandler(cfg, mediaService, optimizerService, log),
		Upload: NewUploadHandler(cfg, uploadService, log),
	}
}
