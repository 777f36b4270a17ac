package media

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// MediaType is the derived category of an asset, decided from its MIME type.
type MediaType string

const (
	TypeImage    MediaType = "image"
	TypeVideo    MediaType = "video"
	TypeAudio    MediaType = "audio"
	TypeDocument MediaType = "document"
	TypeArchive  MediaType = "archive"
	TypeOther    MediaType = "other"
)

var documentMarkers = []string{"pdf", "word", "sheet", "presentation", "text", "msword", "ms-excel", "ms-powerpoint", "csv"}

var archiveMarkers = []string{"zip", "rar", "7z", "tar", "gzip", "compressed"}

// TypeFromMIME maps a MIME type onto a MediaType category.
func TypeFromMIME(mime string) MediaType {
	mime = strings.ToLower(strings.TrimSpace(mime))
	switch {
	case strings.HasPrefix(mime, "image/"):
		return TypeImage
	case strings.HasPrefix(mime, "video/"):
		return TypeVideo
	case strings.HasPrefix(mime, "audio/"):
		return TypeAudio
	}
	for _, marker := range archiveMarkers {
		if strings.Contains(mime, marker) {
			return TypeArchive
		}
	}
	for _, marker := range documentMarkers {
		if strings.Contains(mime, marker) {
			return TypeDocument
		}
	}
	return TypeOther
}

// StoredObject is the result of a content-store write: one per physical
// file, immutable once created.
type StoredObject struct {
	Path string `json:"path"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Hash string `json:"hash"`
}

// ImageDimensions records pixel dimensions for image assets.
type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Thumbnail is a derived variant owned by its parent item and deleted with it.
type Thumbnail struct {
	SizeName string `json:"size_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// MediaItem is a catalog entry, the system of record for one uploaded asset.
type MediaItem struct {
	ID          string           `json:"id"`
	Filename    string           `json:"filename"`
	Slug        string           `json:"slug"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	AltText     string           `json:"alt_text,omitempty"`
	MimeType    string           `json:"mime_type"`
	MediaType   MediaType        `json:"media_type"`
	Size        int64            `json:"size"`
	Extension   string           `json:"extension"`
	Path        string           `json:"path"`
	URL         string           `json:"url"`
	FolderID    string           `json:"folder_id,omitempty"`
	Dimensions  *ImageDimensions `json:"dimensions,omitempty"`
	Duration    *float64         `json:"duration,omitempty"`
	Thumbnails  []Thumbnail      `json:"thumbnails,omitempty"`
	ContentHash string           `json:"content_hash"`
	Tags        []string         `json:"tags,omitempty"`
	Deleted     bool             `json:"deleted"`
	UsageCount  int64            `json:"usage_count"`
	UploadedBy  string           `json:"uploaded_by,omitempty"`
	UploadedAt  time.Time        `json:"uploaded_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// UpdateRequest carries metadata changes; nil fields stay untouched.
type UpdateRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	AltText     *string   `json:"alt_text,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// SortKey selects the list ordering column.
type SortKey string

const (
	SortByFilename   SortKey = "filename"
	SortBySize       SortKey = "size"
	SortByType       SortKey = "type"
	SortByUploadTime SortKey = "uploaded_at"
)

// Filter is a conjunction of list predicates; zero values mean "no
// constraint" on that axis.
type Filter struct {
	MediaType      MediaType
	FolderID       string
	Query          string
	Tags           []string
	UploadedAfter  *time.Time
	UploadedBefore *time.Time
	MinSize        int64
	MaxSize        int64
	IncludeDeleted bool
	SortBy         SortKey
	SortAsc        bool
	Page           int
	PerPage        int
}

// Normalize applies pagination floors and clamps: page is 1-based with a
// floor of 1, perPage is clamped to [1,100].
func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 20
	}
	if f.PerPage > 100 {
		f.PerPage = 100
	}
	if f.SortBy == "" {
		f.SortBy = SortByUploadTime
	}
}

// ListResult is one page of catalog items plus pagination totals.
type ListResult struct {
	Items      []*MediaItem `json:"items"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
	TotalPages int          `json:"total_pages"`
}

// Stats aggregates counts and sizes over non-deleted items.
type Stats struct {
	TotalItems  int64               `json:"total_items"`
	TotalSize   int64               `json:"total_size"`
	CountByType map[MediaType]int64 `json:"count_by_type"`
	SizeByType  map[MediaType]int64 `json:"size_by_type"`
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename lower-cases a filename and replaces anything outside
// [a-zA-Z0-9._-] with a dash.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "file"
	}
	sanitized := strings.ToLower(unsafeChars.ReplaceAllString(name, "-"))
	sanitized = strings.Trim(sanitized, "-.")
	if sanitized == "" {
		return "file"
	}
	return sanitized
}

// SplitStem returns the sanitized stem and the lower-cased extension
// (without the dot) of a filename.
func SplitStem(filename string) (string, string) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	return SanitizeFilename(stem), ext
}
