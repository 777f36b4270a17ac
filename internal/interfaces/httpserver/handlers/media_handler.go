package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"medialib/media-api/internal/config"
	"medialib/media-api/internal/domain/imaging"
	domain "medialib/media-api/internal/domain/media"
	"medialib/media-api/internal/domain/optimizer"
	"medialib/media-api/internal/interfaces/httpserver/requests"
	"medialib/media-api/internal/interfaces/httpserver/responses"
	"medialib/media-api/internal/utils/platformerrors"
)

// MediaHandler exposes catalog and content endpoints.
type MediaHandler struct {
	cfg       *config.Config
	service   *domain.Service
	optimizer *optimizer.Service
	log       zerolog.Logger
}

func NewMediaHandler(cfg *config.Config, service *domain.Service, optimizerService *optimizer.Service, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		cfg:       cfg,
		service:   service,
		optimizer: optimizerService,
		log:       log.With().Str("component", "media-handler").Logger(),
	}
}

// List returns one filtered, sorted catalog page.
func (h *MediaHandler) List(c *gin.Context) {
	var query requests.ListMediaQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "b4f82c15-6d09-4a37-9e51-c2d7a8f0e693")
		return
	}

	result, err := h.service.List(c.Request.Context(), query.ToDomain())
	if err != nil {
		responses.HandleError(c, err, "failed to list media")
		return
	}

	c.JSON(http.StatusOK, responses.FromListResult(result))
}

// Stats returns catalog-wide counts and sizes.
func (h *MediaHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Search matches the query against filenames, titles and tags.
func (h *MediaHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "query parameter q is required", "7a2e95d0-48c6-4f13-b0d8-e56a1c39f274")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := h.service.Search(c.Request.Context(), query, limit)
	if err != nil {
		responses.HandleError(c, err, "search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": responses.FromMediaItems(items)})
}

// Recent returns the most recently uploaded live items.
func (h *MediaHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		responses.HandleError(c, err, "failed to load recent media")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": responses.FromMediaItems(items)})
}

// Get returns one catalog entry by ID.
func (h *MediaHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "media not found")
		return
	}
	c.JSON(http.StatusOK, responses.FromMediaItem(item))
}

// File streams the stored bytes with the recorded MIME type.
func (h *MediaHandler) File(c *gin.Context) {
	data, item, err := h.service.ReadContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "media content not found")
		return
	}

	mime := item.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	c.Header("Content-Disposition", `inline; filename="`+item.Filename+`"`)
	c.Data(http.StatusOK, mime, data)
}

// Update patches item metadata; absent fields are left untouched.
func (h *MediaHandler) Update(c *gin.Context) {
	var req requests.UpdateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "3c5d81f2-a907-46be-8d40-f16e2a7c5b98")
		return
	}

	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req.ToDomain())
	if err != nil {
		responses.HandleError(c, err, "failed to update media")
		return
	}

	c.JSON(http.StatusOK, responses.FromMediaItem(item))
}

// Restore clears the soft-delete flag. Restoring may collide with a live
// duplicate when deduplication is on; that surfaces as a conflict.
func (h *MediaHandler) Restore(c *gin.Context) {
	item, err := h.service.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to restore media")
		return
	}
	c.JSON(http.StatusOK, responses.FromMediaItem(item))
}

// Move reassigns an item to a folder and updates both folders' accounting.
func (h *MediaHandler) Move(c *gin.Context) {
	var req requests.MoveMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "8e61d4a7-25c0-49f3-b68d-0a3f7c2e9154")
		return
	}

	item, err := h.service.MoveToFolder(c.Request.Context(), c.Param("id"), req.FolderID)
	if err != nil {
		responses.HandleError(c, err, "failed to move media")
		return
	}

	c.JSON(http.StatusOK, responses.FromMediaItem(item))
}

// Usage increments and returns the item's usage counter.
func (h *MediaHandler) Usage(c *gin.Context) {
	id := c.Param("id")
	count, err := h.service.IncrementUsage(c.Request.Context(), id)
	if err != nil {
		responses.HandleError(c, err, "failed to record usage")
		return
	}
	c.JSON(http.StatusOK, responses.UsageResponse{ID: id, UsageCount: count})
}

// Delete soft-deletes by default; ?permanent=true removes the record, the
// file and its thumbnails.
func (h *MediaHandler) Delete(c *gin.Context) {
	permanent, _ := strconv.ParseBool(c.Query("permanent"))

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), permanent); err != nil {
		responses.HandleError(c, err, "failed to delete media")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "permanent": permanent})
}

// Transform applies an on-demand transform chain to a stored image and
// returns the re-encoded bytes without touching the original.
func (h *MediaHandler) Transform(c *gin.Context) {
	var req imaging.TransformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "d92a07f4-6b85-4c31-a0ed-5f28c1b9e647")
		return
	}

	data, item, err := h.service.ReadContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "media content not found")
		return
	}
	if item.MediaType != domain.TypeImage {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnsupportedFormat, "transform requires an image", "1f7c43e9-058d-4ab2-96f0-c3d8a52e7b06")
		return
	}

	if req.Format == "" {
		if parsed, ok := imaging.ParseFormat(item.Extension); ok {
			req.Format = parsed
		} else {
			req.Format = imaging.FormatJPEG
		}
	}
	if req.Quality == 0 {
		req.Quality = h.cfg.QualityFor(req.Format)
	}

	encoded, err := h.optimizer.Transform(c.Request.Context(), data, req)
	if err != nil {
		responses.HandleError(c, err, "transform failed")
		return
	}

	c.Data(http.StatusOK, "image/"+string(req.Format), encoded)
}
