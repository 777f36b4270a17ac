package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"

	"medialib/media-api/internal/utils/platformerrors"
)

// Encode serializes an image in the requested format. JPEG and WebP take a
// quality of 1-100; for PNG the value is a compression level of 0-9. GIF
// ignores it. Any other format is an error, never a silent fallback.
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	buf := &bytes.Buffer{}

	switch format {
	case FormatJPEG:
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: clampQuality(quality, 85)}); err != nil {
			return nil, encodeError(format, err)
		}
	case FormatPNG:
		encoder := png.Encoder{CompressionLevel: pngLevel(quality)}
		if err := encoder.Encode(buf, img); err != nil {
			return nil, encodeError(format, err)
		}
	case FormatGIF:
		if err := gif.Encode(buf, img, nil); err != nil {
			return nil, encodeError(format, err)
		}
	case FormatWebP:
		if err := webp.Encode(buf, img, &webp.Options{Quality: float32(clampQuality(quality, 80))}); err != nil {
			return nil, encodeError(format, err)
		}
	default:
		return nil, platformerrors.NewError(
			context.Background(),
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeUnsupportedFormat,
			fmt.Sprintf("cannot encode format %q", format),
			nil,
			"7f2e5a91-c843-4d07-b6f0-1a9d8e3c52b4",
		)
	}

	return buf.Bytes(), nil
}

func encodeError(format Format, err error) error {
	return platformerrors.NewError(
		context.Background(),
		platformerrors.LayerDomain,
		platformerrors.ErrorTypeInternal,
		fmt.Sprintf("%s encode failed", format),
		err,
		"31c8d0f6-74be-49a2-8e5d-b2f1a6c97e03",
	)
}

func clampQuality(quality, fallback int) int {
	if quality <= 0 {
		return fallback
	}
	if quality > 100 {
		return 100
	}
	return quality
}

// pngLevel maps a 0-9 compression level onto the stdlib encoder's levels.
func pngLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
