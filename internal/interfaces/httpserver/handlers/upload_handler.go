package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"medialib/media-api/internal/config"
	"medialib/media-api/internal/domain/upload"
	"medialib/media-api/internal/infrastructure/auth"
	"medialib/media-api/internal/interfaces/httpserver/requests"
	"medialib/media-api/internal/interfaces/httpserver/responses"
	"medialib/media-api/internal/utils/platformerrors"
)

// UploadHandler exposes the single-shot, remote-fetch and chunked upload
// endpoints.
type UploadHandler struct {
	cfg     *config.Config
	service *upload.Service
	log     zerolog.Logger
}

func NewUploadHandler(cfg *config.Config, service *upload.Service, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "upload-handler").Logger(),
	}
}

// Upload accepts one multipart file and runs the full ingestion pipeline.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "file is required", "6a04d8f1-37c5-4e92-b1a6-d50e9c283f74")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxFileSize+1))
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeInvalidFile, "failed to read file", "f31b07c8-92ad-4650-8e5d-1c4a6f0b2e97")
		return
	}

	item, err := h.service.Upload(c.Request.Context(), upload.Request{
		Data:       data,
		Filename:   header.Filename,
		FolderID:   c.Request.FormValue("folder_id"),
		UploadedBy: uploadedBy(c),
		Tags:       splitTags(c.Request.FormValue("tags")),
	})
	if err != nil {
		responses.HandleError(c, err, "upload failed")
		return
	}

	c.JSON(http.StatusCreated, responses.FromMediaItem(item))
}

// UploadFromURL fetches a remote resource and ingests it.
func (h *UploadHandler) UploadFromURL(c *gin.Context) {
	var req requests.UploadFromURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "52c8e1a9-04d6-4b73-9f2e-a817d0c5f364")
		return
	}

	item, err := h.service.UploadFromURL(c.Request.Context(), req.URL, req.Filename, req.FolderID, uploadedBy(c), req.Tags)
	if err != nil {
		responses.HandleError(c, err, "upload from url failed")
		return
	}

	c.JSON(http.StatusCreated, responses.FromMediaItem(item))
}

// InitChunked opens a chunked upload session.
func (h *UploadHandler) InitChunked(c *gin.Context) {
	var req requests.ChunkedInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "c76f20d3-8b41-4e95-a0c8-5d2e9f317a60")
		return
	}

	sess, err := h.service.InitChunked(c.Request.Context(), upload.InitRequest{
		Filename:   req.Filename,
		TotalSize:  req.TotalSize,
		ChunkSize:  req.ChunkSize,
		FolderID:   req.FolderID,
		UploadedBy: uploadedBy(c),
	})
	if err != nil {
		responses.HandleError(c, err, "failed to initialize chunked upload")
		return
	}

	c.JSON(http.StatusCreated, responses.FromChunkedUpload(sess))
}

// UploadChunk receives one chunk body. Chunks may arrive in any order.
func (h *UploadHandler) UploadChunk(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "chunk index must be an integer", "e95a31c7-62d0-4f84-b1e9-038c5d7a2f16")
		return
	}

	// the session's negotiated chunk size bounds the body read, plus one
	// byte so an oversized body surfaces as a size mismatch
	state, err := h.service.GetChunked(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "chunked session not found")
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, state.ChunkSize+1))
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeInvalidFile, "failed to read chunk body", "40d7f2e8-a513-4c69-8b0d-91e6c3a5f827")
		return
	}

	sess, err := h.service.UploadChunk(c.Request.Context(), c.Param("id"), index, data)
	if err != nil {
		responses.HandleError(c, err, "failed to store chunk")
		return
	}

	c.JSON(http.StatusOK, responses.FromChunkedUpload(sess))
}

// CompleteChunked reassembles a fully received session into a catalog item.
// A missing chunk leaves the session intact for a retry.
func (h *UploadHandler) CompleteChunked(c *gin.Context) {
	item, err := h.service.CompleteChunked(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to complete chunked upload")
		return
	}
	c.JSON(http.StatusCreated, responses.FromMediaItem(item))
}

// GetChunked reports a session's receipt state.
func (h *UploadHandler) GetChunked(c *gin.Context) {
	sess, err := h.service.GetChunked(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "upload session not found")
		return
	}
	c.JSON(http.StatusOK, responses.FromChunkedUpload(sess))
}

// CancelChunked aborts a session and discards its chunks.
func (h *UploadHandler) CancelChunked(c *gin.Context) {
	if err := h.service.CancelChunked(c.Request.Context(), c.Param("id")); err != nil {
		responses.HandleError(c, err, "failed to cancel chunked upload")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "cancelled": true})
}

func uploadedBy(c *gin.Context) string {
	if subject := auth.Subject(c); subject != "" {
		return subject
	}
	return c.Request.FormValue("uploaded_by")
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
