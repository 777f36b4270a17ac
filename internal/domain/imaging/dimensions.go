package imaging

import "math"

// CalculateDimensions derives output dimensions for a size target applied to
// an original of (width, height). Exact and Fill return the target box as
// given; Fit scales both axes by a single factor so the result never exceeds
// the box and the aspect ratio is preserved. A zero axis means "derive from
// aspect ratio"; both axes zero leaves the original untouched.
func CalculateDimensions(size ImageSize, width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}

	switch size.Mode {
	case ModeExact, ModeFill, ModeCover:
		return size.Width, size.Height
	default: // Fit
		return fitDimensions(size.Width, size.Height, width, height)
	}
}

func fitDimensions(targetW, targetH, width, height int) (int, int) {
	switch {
	case targetW == 0 && targetH == 0:
		return width, height
	case targetW == 0:
		scale := float64(targetH) / float64(height)
		return roundDim(float64(width) * scale), targetH
	case targetH == 0:
		scale := float64(targetW) / float64(width)
		return targetW, roundDim(float64(height) * scale)
	default:
		scale := math.Min(
			float64(targetW)/float64(width),
			float64(targetH)/float64(height),
		)
		return roundDim(float64(width) * scale), roundDim(float64(height) * scale)
	}
}

func roundDim(v float64) int {
	rounded := int(math.Round(v))
	if rounded < 1 {
		return 1
	}
	return rounded
}
