// Package optimizer drives the image transform engine against policy:
// output quality tables, maximum dimensions, format conversion and the
// configured thumbnail sizes.
package optimizer

import (
	"context"
	"fmt"
	"image"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"medialib/media-api/internal/config"
	"medialib/media-api/internal/domain/imaging"
	domain "medialib/media-api/internal/domain/media"
	"medialib/media-api/internal/infrastructure/metrics"
)

// OptimizedImage is the result of a policy-driven re-encode.
type OptimizedImage struct {
	Data           []byte         `json:"-"`
	OriginalSize   int64          `json:"original_size"`
	OptimizedSize  int64          `json:"optimized_size"`
	Format         imaging.Format `json:"format"`
	SavingsPercent float64        `json:"savings_percent"`
}

// Service orchestrates the transform engine. Encode/decode work is CPU
// bound, so a weighted semaphore keeps it off the request path's way.
type Service struct {
	cfg   *config.Config
	store domain.BlobStore
	sem   *semaphore.Weighted
	log   zerolog.Logger
}

func NewService(cfg *config.Config, store domain.BlobStore, log zerolog.Logger) *Service {
	return &Service{
		cfg:   cfg,
		store: store,
		sem:   semaphore.NewWeighted(cfg.TransformConcurrency),
		log:   log.With().Str("component", "optimizer").Logger(),
	}
}

// OptimizeImage re-encodes image bytes using the policy quality for the
// chosen output format. The force-WebP flag overrides the format hint;
// images beyond the configured maximum dimensions shrink to fit first.
func (s *Service) OptimizeImage(ctx context.Context, data []byte, formatHint string) (*OptimizedImage, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	started := time.Now()

	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}

	// unknown hints fall back to JPEG rather than failing the upload
	format, ok := imaging.ParseFormat(formatHint)
	if !ok {
		format = imaging.FormatJPEG
	}
	if s.cfg.ConvertToWebP {
		format = imaging.FormatWebP
	}

	bounds := img.Bounds()
	if bounds.Dx() > s.cfg.MaxImageWidth || bounds.Dy() > s.cfg.MaxImageHeight {
		img = imaging.Resize(img, s.cfg.MaxImageWidth, s.cfg.MaxImageHeight, imaging.ModeFit)
	}

	encoded, err := imaging.Encode(img, format, s.cfg.QualityFor(format))
	if err != nil {
		return nil, err
	}

	metrics.RecordTransform("optimize", time.Since(started).Seconds())
	return buildResult(data, encoded, format), nil
}

// Transform runs an arbitrary transform request through the engine.
// The request's format and quality must already be resolved.
func (s *Service) Transform(ctx context.Context, data []byte, req imaging.TransformRequest) ([]byte, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	started := time.Now()

	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}

	img, err = imaging.Transform(img, req)
	if err != nil {
		return nil, err
	}

	encoded, err := imaging.Encode(img, req.Format, req.Quality)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransform("transform", time.Since(started).Seconds())
	return encoded, nil
}

// ResizeAndOptimize composes a Fit-mode resize into a box with the
// policy-quality JPEG encode in one pipeline call.
func (s *Service) ResizeAndOptimize(ctx context.Context, data []byte, maxW, maxH int) (*OptimizedImage, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	started := time.Now()

	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}

	img = imaging.Resize(img, maxW, maxH, imaging.ModeFit)
	encoded, err := imaging.Encode(img, imaging.FormatJPEG, s.cfg.JPEGQuality)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransform("resize_optimize", time.Since(started).Seconds())
	return buildResult(data, encoded, imaging.FormatJPEG), nil
}

// GenerateThumbnails produces one variant per enabled size in the policy
// table, persisting each alongside the original. Sizes that would upscale
// are skipped; a failure on one size is logged and the rest continue.
func (s *Service) GenerateThumbnails(ctx context.Context, data []byte, originalPath string) ([]domain.Thumbnail, error) {
	if !s.cfg.GenerateThumbnails {
		return nil, nil
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(data)
	if err != nil {
		s.sem.Release(1)
		return nil, err
	}
	s.sem.Release(1)

	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()

	format, ok := imaging.ParseFormat(strings.TrimPrefix(path.Ext(originalPath), "."))
	if !ok {
		format = imaging.FormatJPEG
	}

	var thumbnails []domain.Thumbnail
	for _, size := range s.cfg.ImageSizes() {
		if !size.Enabled {
			continue
		}
		if origW <= size.Width && origH <= size.Height {
			continue
		}

		thumb, err := s.generateOne(ctx, img, size, format, originalPath)
		if err != nil {
			metrics.RecordThumbnail(size.Name, "error")
			s.log.Warn().Err(err).
				Str("size", size.Name).
				Str("path", originalPath).
				Msg("thumbnail generation failed, continuing")
			continue
		}
		metrics.RecordThumbnail(size.Name, "success")
		thumbnails = append(thumbnails, *thumb)
	}
	return thumbnails, nil
}

func (s *Service) generateOne(ctx context.Context, img image.Image, size imaging.ImageSize, format imaging.Format, originalPath string) (*domain.Thumbnail, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	targetW, targetH := imaging.CalculateDimensions(size, bounds.Dx(), bounds.Dy())
	resized := imaging.Resize(img, targetW, targetH, size.Mode)
	encoded, err := imaging.Encode(resized, format, size.Quality)
	s.sem.Release(1)
	if err != nil {
		return nil, err
	}

	thumbPath := ThumbnailPath(originalPath, size.Name)
	obj, err := s.store.Write(ctx, thumbPath, encoded)
	if err != nil {
		return nil, err
	}

	resultBounds := resized.Bounds()
	return &domain.Thumbnail{
		SizeName: size.Name,
		Width:    resultBounds.Dx(),
		Height:   resultBounds.Dy(),
		Path:     obj.Path,
		URL:      obj.URL,
		Size:     obj.Size,
	}, nil
}

func buildResult(original, optimized []byte, format imaging.Format) *OptimizedImage {
	result := &OptimizedImage{
		Data:          optimized,
		OriginalSize:  int64(len(original)),
		OptimizedSize: int64(len(optimized)),
		Format:        format,
	}
	if result.OriginalSize > 0 {
		result.SavingsPercent = (1 - float64(result.OptimizedSize)/float64(result.OriginalSize)) * 100
	}
	return result
}

// ThumbnailPath derives the variant path from the original:
// {dir}/{stem}-{sizeName}.{ext}.
func ThumbnailPath(originalPath, sizeName string) string {
	dir := path.Dir(originalPath)
	ext := path.Ext(originalPath)
	stem := strings.TrimSuffix(path.Base(originalPath), ext)
	name := fmt.Sprintf("%s-%s%s", stem, sizeName, ext)
	if dir == "." {
		return name
	}
	return path.Join(dir, name)
}
