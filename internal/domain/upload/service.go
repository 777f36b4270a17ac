// Package upload implements the ingestion paths: single-shot uploads,
// upload-from-URL, and the resumable chunked upload coordinator.
package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"medialib/media-api/internal/config"
	"medialib/media-api/internal/domain/imaging"
	"medialib/media-api/internal/domain/media"
	"medialib/media-api/internal/domain/optimizer"
	"medialib/media-api/internal/infrastructure/metrics"
	"medialib/media-api/internal/utils/platformerrors"
)

// Service validates, optimizes, stores and registers uploads. It also owns
// the chunked-upload session map (chunked.go).
type Service struct {
	cfg        *config.Config
	store      media.BlobStore
	catalog    *media.Service
	optimizer  *optimizer.Service
	log        zerolog.Logger
	httpClient *http.Client

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewService(cfg *config.Config, store media.BlobStore, catalog *media.Service, opt *optimizer.Service, log zerolog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		store:     store,
		catalog:   catalog,
		optimizer: opt,
		log:       log.With().Str("component", "upload-service").Logger(),
		httpClient: &http.Client{
			Timeout: cfg.RemoteFetchTimeout,
		},
		sessions: make(map[string]*session),
	}
}

// Request carries one upload through the single-shot path.
type Request struct {
	Data       []byte
	Filename   string
	FolderID   string
	UploadedBy string
	Tags       []string
}

// Upload runs the full ingestion pipeline: validation, optional image
// optimization, storage, thumbnail generation and catalog registration.
// Validation failures happen before any storage side effect; a duplicate
// discovered at registration unwinds the stored object and thumbnails so
// no orphan files remain.
func (s *Service) Upload(ctx context.Context, req Request) (*media.MediaItem, error) {
	mimeType, err := s.ValidateFile(ctx, req.Filename, req.Data)
	if err != nil {
		return nil, err
	}

	if s.cfg.Deduplicate {
		sum := sha256.Sum256(req.Data)
		if existing, err := s.catalog.FindByHash(ctx, hex.EncodeToString(sum[:])); err != nil {
			return nil, err
		} else if existing != nil {
			metrics.RecordUpload(string(existing.MediaType), "duplicate", 0)
			return nil, platformerrors.NewErrorWithContext(
				ctx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypeDuplicate,
				"identical content already uploaded",
				nil,
				"ab52e917-3c08-4d6f-b2a4-90e1f7c8d635",
				map[string]any{"existing_id": existing.ID},
			)
		}
	}

	data := req.Data
	filename := req.Filename
	isImage := media.TypeFromMIME(mimeType) == media.TypeImage && mimeType != "image/svg+xml"

	if isImage && s.cfg.AutoOptimize {
		_, ext := media.SplitStem(filename)
		optimized, err := s.optimizer.OptimizeImage(ctx, data, ext)
		if err != nil {
			s.log.Warn().Err(err).Str("filename", filename).Msg("optimization failed, storing original")
		} else {
			data = optimized.Data
			if optimized.Format.Extension() != ext {
				filename = replaceExtension(filename, optimized.Format.Extension())
				mimeType = "image/" + string(optimized.Format)
			}
		}
	}

	obj, err := s.store.Store(ctx, data, filename, mimeType)
	if err != nil {
		metrics.RecordUpload(string(media.TypeFromMIME(mimeType)), "error", 0)
		return nil, err
	}

	var dims *media.ImageDimensions
	var thumbnails []media.Thumbnail
	if isImage {
		if w, h, err := imaging.Dimensions(data); err == nil {
			dims = &media.ImageDimensions{Width: w, Height: h}
		}
		thumbnails, err = s.optimizer.GenerateThumbnails(ctx, data, obj.Path)
		if err != nil {
			s.log.Warn().Err(err).Str("path", obj.Path).Msg("thumbnail generation failed")
			thumbnails = nil
		}
	}

	item, err := s.catalog.Register(ctx, media.RegisterRequest{
		Object:     obj,
		Filename:   filename,
		MimeType:   mimeType,
		FolderID:   req.FolderID,
		UploadedBy: req.UploadedBy,
		Dimensions: dims,
		Thumbnails: thumbnails,
		Tags:       req.Tags,
	})
	if err != nil {
		s.unwindStored(ctx, obj, thumbnails)
		metrics.RecordUpload(string(media.TypeFromMIME(mimeType)), "error", 0)
		return nil, err
	}

	metrics.RecordUpload(string(item.MediaType), "success", item.Size)
	return item, nil
}

// UploadFromURL fetches remote content and feeds it through Upload. The
// filename resolves from the explicit argument, the Content-Disposition
// header, then the URL path.
func (s *Service) UploadFromURL(ctx context.Context, rawURL, filename, folderID, uploadedBy string, tags []string) (*media.MediaItem, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"url is required",
			nil,
			"f0c82d5a-461e-4b97-8a3d-27b9e6c1f054",
		)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"invalid url",
			err,
			"27d5b8f3-09ac-4e61-b7d2-c4a0f8e96135",
		)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeInternal,
			"remote fetch failed",
			err,
			"81f6a2c9-5d30-47be-92e8-0c3b7d4f1a56",
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("remote fetch returned %s", resp.Status),
			nil,
			"3a90e7d4-6b25-4c18-8f0a-d1e5c2b97468",
		)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeInternal,
			"reading remote body failed",
			err,
			"c65d1f80-2e94-4a37-b0c6-89f3a7d2e514",
		)
	}

	if filename == "" {
		filename = filenameFromResponse(resp, rawURL)
	}

	return s.Upload(ctx, Request{
		Data:       data,
		Filename:   filename,
		FolderID:   folderID,
		UploadedBy: uploadedBy,
		Tags:       tags,
	})
}

// ValidateFile checks size and type limits and returns the detected MIME
// type. It has no side effects, so callers can rely on rejection happening
// before anything touches storage.
func (s *Service) ValidateFile(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidFile,
			"file is empty",
			nil,
			"e49b0a67-d123-4f85-9c2e-71a8d5b3f046",
		)
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		return "", platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeFileTooLarge,
			fmt.Sprintf("file of %d bytes exceeds limit of %d", len(data), s.cfg.MaxFileSize),
			nil,
			"57c3e8f1-a0b6-4d29-85f7-2d4c9e0b6a13",
		)
	}
	if err := s.validateName(ctx, filename, int64(len(data))); err != nil {
		return "", err
	}

	mimeType := s.detectMIME(data, filename)
	if !s.cfg.IsMIMETypeAllowed(mimeType) {
		return "", platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeTypeNotAllowed,
			fmt.Sprintf("mime type %s is not allowed", mimeType),
			nil,
			"b93d7e10-2c48-4f5a-9e61-d0a8b4c6f272",
		)
	}
	return mimeType, nil
}

// validateName checks the extension allow-list and the declared size.
func (s *Service) validateName(ctx context.Context, filename string, size int64) error {
	if size > s.cfg.MaxFileSize {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeFileTooLarge,
			fmt.Sprintf("declared size %d exceeds limit of %d", size, s.cfg.MaxFileSize),
			nil,
			"57c3e8f1-a0b6-4d29-85f7-2d4c9e0b6a13",
		)
	}
	_, ext := media.SplitStem(filename)
	if ext == "" || !s.cfg.IsExtensionAllowed(ext) {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeTypeNotAllowed,
			fmt.Sprintf("extension %q is not allowed", ext),
			nil,
			"d81a4c29-6f05-4b73-a9e8-35c0d7b2f164",
		)
	}
	return nil
}

// detectMIME sniffs content and falls back to the extension when sniffing
// is inconclusive.
func (s *Service) detectMIME(data []byte, filename string) string {
	detected := mimetype.Detect(data).String()
	if idx := strings.Index(detected, ";"); idx >= 0 {
		detected = strings.TrimSpace(detected[:idx])
	}
	if detected != "" && detected != "application/octet-stream" {
		return detected
	}
	if byExt := mime.TypeByExtension(path.Ext(filename)); byExt != "" {
		if idx := strings.Index(byExt, ";"); idx >= 0 {
			byExt = strings.TrimSpace(byExt[:idx])
		}
		return byExt
	}
	return "application/octet-stream"
}

// unwindStored deletes the object and thumbnails written before a failed
// registration. Best effort: a failing delete is logged, not returned.
func (s *Service) unwindStored(ctx context.Context, obj *media.StoredObject, thumbnails []media.Thumbnail) {
	if err := s.store.Delete(ctx, obj.Path); err != nil {
		s.log.Warn().Err(err).Str("path", obj.Path).Msg("could not unwind stored object")
	}
	for _, thumb := range thumbnails {
		if err := s.store.Delete(ctx, thumb.Path); err != nil {
			s.log.Warn().Err(err).Str("path", thumb.Path).Msg("could not unwind thumbnail")
		}
	}
}

func replaceExtension(filename, ext string) string {
	old := path.Ext(filename)
	return strings.TrimSuffix(filename, old) + "." + ext
}

func filenameFromResponse(resp *http.Response, rawURL string) string {
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				return path.Base(name)
			}
		}
	}
	if parsed, err := url.Parse(rawURL); err == nil {
		if base := path.Base(parsed.Path); base != "" && base != "/" && base != "." {
			return base
		}
	}
	return "download"
}
