// Package imaging provides pure transformation functions over decoded
// images: dimension policy, crop/resize/rotate/flip/filter pipelines,
// and format encoding. It holds no state and performs no storage I/O.
package imaging

import (
	"bytes"
	"context"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"medialib/media-api/internal/utils/platformerrors"
)

// Format is an output encoding target.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatWebP Format = "webp"
)

// ParseFormat normalizes a format hint ("jpg", "JPEG", ...) to a Format.
func ParseFormat(raw string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "jpg", "jpeg":
		return FormatJPEG, true
	case "png":
		return FormatPNG, true
	case "gif":
		return FormatGIF, true
	case "webp":
		return FormatWebP, true
	default:
		return "", false
	}
}

// Extension returns the canonical file extension for the format.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// ResizeMode determines how target dimensions are derived from the original.
type ResizeMode string

const (
	// ModeExact forces both dimensions, allowing distortion.
	ModeExact ResizeMode = "exact"
	// ModeFit scales to fit within the box, preserving aspect ratio.
	ModeFit ResizeMode = "fit"
	// ModeFill scales to cover the box, then center-crops the overflow.
	ModeFill ResizeMode = "fill"
	// ModeCover is an alias for ModeFill.
	ModeCover ResizeMode = "cover"
)

// ImageSize is a named resize target from the size policy table.
type ImageSize struct {
	Name    string     `json:"name"`
	Width   int        `json:"width"`
	Height  int        `json:"height"`
	Mode    ResizeMode `json:"mode"`
	Quality int        `json:"quality"`
	Enabled bool       `json:"enabled"`
}

// CropParams selects a rectangle in original-image coordinates.
type CropParams struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Filter is a single pixel filter with an optional signed amount.
type Filter struct {
	Kind   string  `json:"kind"`
	Amount float64 `json:"amount"`
}

// Filter kinds accepted by ApplyFilter.
const (
	FilterGrayscale  = "grayscale"
	FilterBlur       = "blur"
	FilterSharpen    = "sharpen"
	FilterBrightness = "brightness"
	FilterContrast   = "contrast"
	FilterInvert     = "invert"
)

// TransformRequest is a composite transform. Operations always apply in a
// fixed order (crop, resize, rotate, flips, filters, encode) regardless of
// field order; crop coordinates are relative to the original image.
type TransformRequest struct {
	Crop    *CropParams `json:"crop,omitempty"`
	Width   int         `json:"width,omitempty"`
	Height  int         `json:"height,omitempty"`
	Mode    ResizeMode  `json:"mode,omitempty"`
	Rotate  int         `json:"rotate,omitempty"`
	FlipH   bool        `json:"flip_horizontal,omitempty"`
	FlipV   bool        `json:"flip_vertical,omitempty"`
	Filters []Filter    `json:"filters,omitempty"`
	Format  Format      `json:"format,omitempty"`
	Quality int         `json:"quality,omitempty"`
}

// Decode parses image bytes into an in-memory image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, platformerrors.NewError(
			context.Background(),
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidFile,
			"image bytes could not be decoded",
			err,
			"c4f0b1aa-9d56-4a02-8f3e-71d2c5e8b940",
		)
	}
	return img, nil
}

// Dimensions reads the pixel dimensions of image bytes without a full decode.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, platformerrors.NewError(
			context.Background(),
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidFile,
			"image header could not be decoded",
			err,
			"2b7d9e31-08cf-4f6a-b5d1-4e9a0c62d713",
		)
	}
	return cfg.Width, cfg.Height, nil
}
