//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"medialib/media-api/internal/config"
	domain "medialib/media-api/internal/domain/media"
	"medialib/media-api/internal/domain/optimizer"
	"medialib/media-api/internal/domain/upload"
	"medialib/media-api/internal/infrastructure/auth"
	"medialib/media-api/internal/infrastructure/folder"
	"medialib/media-api/internal/infrastructure/jobs"
	"medialib/media-api/internal/infrastructure/logger"
	"medialib/media-api/internal/infrastructure/storage"
	"medialib/media-api/internal/interfaces/httpserver"
)

var mediaSet = wire.NewSet(
	provideRepository,
	storage.NewLocalStore,
	wire.Bind(new(domain.BlobStore), new(*storage.LocalStore)),
	provideFolders,
	wire.Bind(new(domain.FolderService), new(*folder.Accountant)),
	domain.NewService,
	optimizer.NewService,
	upload.NewService,
)

// BuildApplication assembles the media API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		auth.NewValidator,
		mediaSet,
		jobs.NewScheduler,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func provideFolders(log zerolog.Logger) *folder.Accountant {
	return folder.NewAccountant(false, log)
}
