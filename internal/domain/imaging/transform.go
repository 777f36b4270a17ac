package imaging

import (
	"context"
	"fmt"
	"image"

	im "github.com/disintegration/imaging"

	"medialib/media-api/internal/utils/platformerrors"
)

// Transform applies a composite request to a decoded image. Steps run in a
// fixed order: crop, resize, rotate, flips, filters. Encoding is a separate
// step (Encode) so callers can inspect the result before serializing.
func Transform(img image.Image, req TransformRequest) (image.Image, error) {
	out := img

	if req.Crop != nil {
		cropped, err := Crop(out, *req.Crop)
		if err != nil {
			return nil, err
		}
		out = cropped
	}

	if req.Width > 0 || req.Height > 0 {
		out = Resize(out, req.Width, req.Height, req.Mode)
	}

	if req.Rotate != 0 {
		rotated, err := Rotate(out, req.Rotate)
		if err != nil {
			return nil, err
		}
		out = rotated
	}

	if req.FlipH {
		out = im.FlipH(out)
	}
	if req.FlipV {
		out = im.FlipV(out)
	}

	for _, filter := range req.Filters {
		filtered, err := ApplyFilter(out, filter)
		if err != nil {
			return nil, err
		}
		out = filtered
	}

	return out, nil
}

// Crop extracts a rectangle given in source-image coordinates. The rectangle
// must lie entirely within the source bounds.
func Crop(img image.Image, params CropParams) (image.Image, error) {
	bounds := img.Bounds()
	if params.Width <= 0 || params.Height <= 0 ||
		params.X < 0 || params.Y < 0 ||
		params.X+params.Width > bounds.Dx() ||
		params.Y+params.Height > bounds.Dy() {
		return nil, platformerrors.NewError(
			context.Background(),
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("crop rectangle %dx%d at (%d,%d) exceeds image bounds %dx%d",
				params.Width, params.Height, params.X, params.Y, bounds.Dx(), bounds.Dy()),
			nil,
			"5d3a8f27-b914-4e60-a2c8-0f7e6d1b3c59",
		)
	}

	rect := image.Rect(
		bounds.Min.X+params.X,
		bounds.Min.Y+params.Y,
		bounds.Min.X+params.X+params.Width,
		bounds.Min.Y+params.Y+params.Height,
	)
	return im.Crop(img, rect), nil
}

// Resize scales an image according to the resize mode. Fill/Cover scales to
// cover the box then crops around the center.
func Resize(img image.Image, width, height int, mode ResizeMode) image.Image {
	bounds := img.Bounds()

	switch mode {
	case ModeExact:
		return im.Resize(img, width, height, im.Lanczos)
	case ModeFill, ModeCover:
		return im.Fill(img, width, height, im.Center, im.Lanczos)
	default: // Fit
		size := ImageSize{Width: width, Height: height, Mode: ModeFit}
		w, h := CalculateDimensions(size, bounds.Dx(), bounds.Dy())
		if w == bounds.Dx() && h == bounds.Dy() {
			return img
		}
		return im.Resize(img, w, h, im.Lanczos)
	}
}

// Rotate turns the image clockwise by a multiple of 90 degrees. Negative
// angles are normalized, so -90 is equivalent to 270.
func Rotate(img image.Image, degrees int) (image.Image, error) {
	normalized := ((degrees % 360) + 360) % 360

	switch normalized {
	case 0:
		return img, nil
	case 90:
		return im.Rotate270(img), nil
	case 180:
		return im.Rotate180(img), nil
	case 270:
		return im.Rotate90(img), nil
	default:
		return nil, platformerrors.NewError(
			context.Background(),
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("rotation must be a multiple of 90 degrees, got %d", degrees),
			nil,
			"e81c6f04-2a3d-47b9-9e15-8c0d4b7a62f1",
		)
	}
}

// ApplyFilter applies a single named filter. Brightness and contrast take a
// signed percentage; blur and sharpen take a sigma.
func ApplyFilter(img image.Image, filter Filter) (image.Image, error) {
	switch filter.Kind {
	case FilterGrayscale:
		return im.Grayscale(img), nil
	case FilterBlur:
		sigma := filter.Amount
		if sigma <= 0 {
			sigma = 1
		}
		return im.Blur(img, sigma), nil
	case FilterSharpen:
		sigma := filter.Amount
		if sigma <= 0 {
			sigma = 1
		}
		return im.Sharpen(img, sigma), nil
	case FilterBrightness:
		return im.AdjustBrightness(img, clampPercent(filter.Amount)), nil
	case FilterContrast:
		return im.AdjustContrast(img, clampPercent(filter.Amount)), nil
	case FilterInvert:
		return im.Invert(img), nil
	default:
		return nil, platformerrors.NewError(
			context.Background(),
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unknown filter %q", filter.Kind),
			nil,
			"90fb2c57-61ad-4b38-8da4-3e5f7c1a09b6",
		)
	}
}

func clampPercent(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < -100 {
		return -100
	}
	return v
}
