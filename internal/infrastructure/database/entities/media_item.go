package entities

import "time"

// Thumbnail is the serialized form of a derived variant, stored as JSON
// inside its parent row.
type Thumbnail struct {
	SizeName string `json:"size_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// MediaItem represents the persisted catalog entry. The live-hash unique
// index (content_hash where deleted = false) is created during migration.
type MediaItem struct {
	ID          string      `gorm:"type:varchar(40);primaryKey"`
	Filename    string      `gorm:"type:varchar(255);not null"`
	Slug        string      `gorm:"type:varchar(255);not null"`
	Title       string      `gorm:"type:varchar(255)"`
	Description string      `gorm:"type:text"`
	AltText     string      `gorm:"type:varchar(255)"`
	MimeType    string      `gorm:"type:varchar(128);not null"`
	MediaType   string      `gorm:"type:varchar(16);not null;index"`
	Size        int64       `gorm:"not null"`
	Extension   string      `gorm:"type:varchar(16)"`
	Path        string      `gorm:"type:varchar(512);not null;uniqueIndex"`
	URL         string      `gorm:"type:varchar(512);not null"`
	FolderID    string      `gorm:"type:varchar(64);index"`
	Width       *int        ``
	Height      *int        ``
	Duration    *float64    ``
	Thumbnails  []Thumbnail `gorm:"serializer:json"`
	ContentHash string      `gorm:"type:char(64);not null;index"`
	Tags        []string    `gorm:"serializer:json"`
	Deleted     bool        `gorm:"not null;default:false;index"`
	UsageCount  int64       `gorm:"not null;default:0"`
	UploadedBy  string      `gorm:"type:varchar(64)"`
	UploadedAt  time.Time   `gorm:"not null"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime"`
}

func (MediaItem) TableName() string {
	return "media_items"
}
