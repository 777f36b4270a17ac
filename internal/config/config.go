package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"medialib/media-api/internal/domain/imaging"
)

// Config holds the environment driven configuration for the media service.
// It doubles as the policy provider: upload limits, allow-lists, image
// quality tables and chunked-upload settings all live here.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"media-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"MEDIA_API_PORT" envDefault:"8290"`
	LogLevel        string        `env:"MEDIA_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database (optional; the catalog falls back to the in-memory
	// repository when no DSN is configured)
	DBPostgresqlDSN string        `env:"MEDIA_DB_DSN"`
	DBMaxIdleConns  int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns  int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Storage
	StoragePath    string `env:"MEDIA_STORAGE_PATH" envDefault:"./media-data"`
	BaseURL        string `env:"MEDIA_BASE_URL" envDefault:"/media"`
	OrganizeByDate bool   `env:"MEDIA_ORGANIZE_BY_DATE" envDefault:"true"`
	DateFormat     string `env:"MEDIA_DATE_FORMAT" envDefault:"2006/01"`

	// Upload limits
	MaxFileSize        int64         `env:"MEDIA_MAX_FILE_SIZE" envDefault:"104857600"`
	AllowedExtensions  []string      `env:"MEDIA_ALLOWED_EXTENSIONS" envSeparator:","`
	AllowedMIMETypes   []string      `env:"MEDIA_ALLOWED_MIME_TYPES" envSeparator:","`
	Deduplicate        bool          `env:"MEDIA_DEDUPLICATE" envDefault:"true"`
	RemoteFetchTimeout time.Duration `env:"MEDIA_REMOTE_FETCH_TIMEOUT" envDefault:"30s"`

	// Image processing
	AutoOptimize         bool   `env:"MEDIA_AUTO_OPTIMIZE" envDefault:"true"`
	GenerateThumbnails   bool   `env:"MEDIA_GENERATE_THUMBNAILS" envDefault:"true"`
	JPEGQuality          int    `env:"MEDIA_JPEG_QUALITY" envDefault:"85"`
	PNGCompression       int    `env:"MEDIA_PNG_COMPRESSION" envDefault:"6"`
	WebPQuality          int    `env:"MEDIA_WEBP_QUALITY" envDefault:"80"`
	MaxImageWidth        int    `env:"MEDIA_MAX_IMAGE_WIDTH" envDefault:"2048"`
	MaxImageHeight       int    `env:"MEDIA_MAX_IMAGE_HEIGHT" envDefault:"2048"`
	ConvertToWebP        bool   `env:"MEDIA_CONVERT_TO_WEBP" envDefault:"false"`
	TransformConcurrency int64  `env:"MEDIA_TRANSFORM_CONCURRENCY" envDefault:"4"`
	ImageSizesJSON       string `env:"MEDIA_IMAGE_SIZES"`

	// Chunked uploads
	ChunkSize       int64         `env:"MEDIA_CHUNK_SIZE" envDefault:"5242880"`
	ChunkExpiry     time.Duration `env:"MEDIA_CHUNK_EXPIRY" envDefault:"24h"`
	CleanupSchedule string        `env:"MEDIA_CLEANUP_SCHEDULE" envDefault:"@every 1h"`

	// Authentication
	AuthEnabled  bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer   string `env:"AUTH_ISSUER"`
	AuthAudience string `env:"AUTH_AUDIENCE"`
	AuthJWKSURL  string `env:"AUTH_JWKS_URL"`

	imageSizes []imaging.ImageSize
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.StoragePath = strings.TrimSpace(cfg.StoragePath)
	if cfg.StoragePath == "" {
		cfg.StoragePath = "./media-data"
	}
	cfg.BaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 100 * 1024 * 1024
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 5 * 1024 * 1024
	}
	if cfg.TransformConcurrency <= 0 {
		cfg.TransformConcurrency = 4
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = defaultAllowedExtensions()
	}
	if len(cfg.AllowedMIMETypes) == 0 {
		cfg.AllowedMIMETypes = defaultAllowedMIMETypes()
	}

	sizes, err := parseImageSizes(cfg.ImageSizesJSON)
	if err != nil {
		return nil, fmt.Errorf("parse MEDIA_IMAGE_SIZES: %w", err)
	}
	cfg.imageSizes = sizes

	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UsesDatabase reports whether a PostgreSQL catalog is configured.
func (c *Config) UsesDatabase() bool {
	return strings.TrimSpace(c.DBPostgresqlDSN) != ""
}

// IsExtensionAllowed reports whether the extension is on the allow-list.
// The comparison ignores case and a leading dot.
func (c *Config) IsExtensionAllowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range c.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

// IsMIMETypeAllowed reports whether the MIME type is on the allow-list.
// An empty allow-list permits everything.
func (c *Config) IsMIMETypeAllowed(mime string) bool {
	if len(c.AllowedMIMETypes) == 0 {
		return true
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	for _, allowed := range c.AllowedMIMETypes {
		if allowed == mime {
			return true
		}
	}
	return false
}

// ImageSizes returns the configured thumbnail size table.
func (c *Config) ImageSizes() []imaging.ImageSize {
	if len(c.imageSizes) == 0 {
		return DefaultImageSizes()
	}
	return c.imageSizes
}

// QualityFor returns the policy quality value for an output format.
// For PNG the value is a compression level rather than a quality.
func (c *Config) QualityFor(format imaging.Format) int {
	switch format {
	case imaging.FormatPNG:
		return c.PNGCompression
	case imaging.FormatWebP:
		return c.WebPQuality
	default:
		return c.JPEGQuality
	}
}

func parseImageSizes(raw string) ([]imaging.ImageSize, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var sizes []imaging.ImageSize
	if err := json.Unmarshal([]byte(raw), &sizes); err != nil {
		return nil, err
	}
	return sizes, nil
}

// DefaultImageSizes is the thumbnail policy used when none is configured.
func DefaultImageSizes() []imaging.ImageSize {
	return []imaging.ImageSize{
		{Name: "thumbnail", Width: 150, Height: 150, Mode: imaging.ModeFill, Quality: 85, Enabled: true},
		{Name: "small", Width: 300, Height: 300, Mode: imaging.ModeFit, Quality: 85, Enabled: true},
		{Name: "medium", Width: 600, Height: 600, Mode: imaging.ModeFit, Quality: 85, Enabled: true},
		{Name: "large", Width: 1200, Height: 1200, Mode: imaging.ModeFit, Quality: 85, Enabled: true},
	}
}

func defaultAllowedExtensions() []string {
	return []string{
		"jpg", "jpeg", "png", "gif", "webp", "svg", "bmp", "ico",
		"mp4", "webm", "ogv", "mov", "avi", "mkv",
		"mp3", "ogg", "wav", "flac", "m4a",
		"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "csv",
		"zip", "rar", "7z", "tar", "gz",
	}
}

func defaultAllowedMIMETypes() []string {
	return []string{
		"image/jpeg", "image/png", "image/gif", "image/webp",
		"image/svg+xml", "image/bmp", "image/x-icon",
		"video/mp4", "video/webm", "video/ogg", "video/quicktime", "video/x-msvideo",
		"audio/mpeg", "audio/ogg", "audio/wav", "audio/flac", "audio/mp4",
		"application/pdf", "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"text/plain", "text/csv",
		"application/zip", "application/x-rar-compressed",
		"application/x-7z-compressed", "application/x-tar", "application/gzip",
	}
}
