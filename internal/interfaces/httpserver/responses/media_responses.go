package responses

import (
	"medialib/media-api/internal/domain/media"
	"medialib/media-api/internal/domain/upload"
)

// MediaItemResponse is the wire shape of one catalog entry.
type MediaItemResponse struct {
	ID          string                 `json:"id"`
	Filename    string                 `json:"filename"`
	Slug        string                 `json:"slug"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	AltText     string                 `json:"alt_text,omitempty"`
	MimeType    string                 `json:"mime_type"`
	MediaType   media.MediaType        `json:"media_type"`
	Size        int64                  `json:"size"`
	Extension   string                 `json:"extension"`
	URL         string                 `json:"url"`
	FolderID    string                 `json:"folder_id,omitempty"`
	Dimensions  *media.ImageDimensions `json:"dimensions,omitempty"`
	Duration    *float64               `json:"duration,omitempty"`
	Thumbnails  []media.Thumbnail      `json:"thumbnails,omitempty"`
	ContentHash string                 `json:"content_hash"`
	Tags        []string               `json:"tags,omitempty"`
	Deleted     bool                   `json:"deleted"`
	UsageCount  int64                  `json:"usage_count"`
	UploadedBy  string                 `json:"uploaded_by,omitempty"`
	UploadedAt  string                 `json:"uploaded_at"`
	UpdatedAt   string                 `json:"updated_at"`
}

// FromMediaItem converts a catalog item into its response shape.
// Storage-relative paths stay internal; clients get the serving URL.
func FromMediaItem(item *media.MediaItem) MediaItemResponse {
	return MediaItemResponse{
		ID:          item.ID,
		Filename:    item.Filename,
		Slug:        item.Slug,
		Title:       item.Title,
		Description: item.Description,
		AltText:     item.AltText,
		MimeType:    item.MimeType,
		MediaType:   item.MediaType,
		Size:        item.Size,
		Extension:   item.Extension,
		URL:         item.URL,
		FolderID:    item.FolderID,
		Dimensions:  item.Dimensions,
		Duration:    item.Duration,
		Thumbnails:  item.Thumbnails,
		ContentHash: item.ContentHash,
		Tags:        item.Tags,
		Deleted:     item.Deleted,
		UsageCount:  item.UsageCount,
		UploadedBy:  item.UploadedBy,
		UploadedAt:  item.UploadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   item.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// FromMediaItems converts a slice, preserving order.
func FromMediaItems(items []*media.MediaItem) []MediaItemResponse {
	out := make([]MediaItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, FromMediaItem(item))
	}
	return out
}

// ListResponse is one catalog page plus pagination totals.
type ListResponse struct {
	Items      []MediaItemResponse `json:"items"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PerPage    int                 `json:"per_page"`
	TotalPages int                 `json:"total_pages"`
}

// FromListResult converts a catalog page.
func FromListResult(result *media.ListResult) ListResponse {
	return ListResponse{
		Items:      FromMediaItems(result.Items),
		Total:      result.Total,
		Page:       result.Page,
		PerPage:    result.PerPage,
		TotalPages: result.TotalPages,
	}
}

// UsageResponse reports the updated usage counter.
type UsageResponse struct {
	ID         string `json:"id"`
	UsageCount int64  `json:"usage_count"`
}

// ChunkedSessionResponse is the wire shape of a chunked upload session.
type ChunkedSessionResponse struct {
	ID            string             `json:"id"`
	Filename      string             `json:"filename"`
	TotalSize     int64              `json:"total_size"`
	ChunkSize     int64              `json:"chunk_size"`
	TotalChunks   int                `json:"total_chunks"`
	ReceivedCount int                `json:"received_count"`
	Chunks        []upload.ChunkInfo `json:"chunks"`
	StartedAt     string             `json:"started_at"`
	ExpiresAt     string             `json:"expires_at"`
}

// FromChunkedUpload converts a session snapshot.
func FromChunkedUpload(u *upload.ChunkedUpload) ChunkedSessionResponse {
	return ChunkedSessionResponse{
		ID:            u.ID,
		Filename:      u.Filename,
		TotalSize:     u.TotalSize,
		ChunkSize:     u.ChunkSize,
		TotalChunks:   u.TotalChunks,
		ReceivedCount: u.ReceivedCount(),
		Chunks:        u.Chunks,
		StartedAt:     u.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		ExpiresAt:     u.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
