package requests

import (
	"strings"
	"time"

	"medialib/media-api/internal/domain/media"
)

// ListMediaQuery represents catalog list filters bound from the query string
type ListMediaQuery struct {
	MediaType      string `form:"media_type"`
	FolderID       string `form:"folder_id"`
	Query          string `form:"query"`
	Tags           string `form:"tags"`
	UploadedAfter  string `form:"uploaded_after"`
	UploadedBefore string `form:"uploaded_before"`
	MinSize        int64  `form:"min_size"`
	MaxSize        int64  `form:"max_size"`
	IncludeDeleted bool   `form:"include_deleted"`
	SortBy         string `form:"sort_by"`
	Order          string `form:"order"`
	Page           int    `form:"page"`
	PerPage        int    `form:"per_page"`
}

// ToDomain converts query params to a catalog filter. Tags are
// comma-separated; timestamps are RFC 3339 and silently dropped when
// malformed.
func (q *ListMediaQuery) ToDomain() media.Filter {
	filter := media.Filter{
		MediaType:      media.MediaType(q.MediaType),
		FolderID:       q.FolderID,
		Query:          q.Query,
		MinSize:        q.MinSize,
		MaxSize:        q.MaxSize,
		IncludeDeleted: q.IncludeDeleted,
		SortBy:         media.SortKey(q.SortBy),
		SortAsc:        strings.EqualFold(q.Order, "asc"),
		Page:           q.Page,
		PerPage:        q.PerPage,
	}
	if q.Tags != "" {
		for _, tag := range strings.Split(q.Tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}
	if t, err := time.Parse(time.RFC3339, q.UploadedAfter); err == nil {
		filter.UploadedAfter = &t
	}
	if t, err := time.Parse(time.RFC3339, q.UploadedBefore); err == nil {
		filter.UploadedBefore = &t
	}
	return filter
}

// UpdateMediaRequest carries metadata changes; absent fields stay untouched
type UpdateMediaRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	AltText     *string   `json:"alt_text"`
	Tags        *[]string `json:"tags"`
}

// ToDomain converts request to domain model
func (r *UpdateMediaRequest) ToDomain() media.UpdateRequest {
	return media.UpdateRequest{
		Title:       r.Title,
		Description: r.Description,
		AltText:     r.AltText,
		Tags:        r.Tags,
	}
}

// MoveMediaRequest targets a folder; empty means the root
type MoveMediaRequest struct {
	FolderID string `json:"folder_id"`
}

// UploadFromURLRequest represents a remote fetch upload
type UploadFromURLRequest struct {
	URL      string   `json:"url" binding:"required"`
	Filename string   `json:"filename"`
	FolderID string   `json:"folder_id"`
	Tags     []string `json:"tags"`
}

// ChunkedInitRequest opens a chunked upload session
type ChunkedInitRequest struct {
	Filename  string `json:"filename" binding:"required"`
	TotalSize int64  `json:"total_size" binding:"required"`
	ChunkSize int64  `json:"chunk_size"`
	FolderID  string `json:"folder_id"`
}
