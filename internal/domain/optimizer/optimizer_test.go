package optimizer_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/rs/zerolog"

	"medialib/media-api/internal/config"
	"medialib/media-api/internal/domain/imaging"
	"medialib/media-api/internal/domain/optimizer"
	"medialib/media-api/internal/infrastructure/storage"
	"medialib/media-api/internal/utils/platformerrors"
)

func newService(t *testing.T, mutate func(*config.Config)) (*optimizer.Service, *config.Config, *storage.LocalStore) {
	t.Helper()
	cfg := &config.Config{
		StoragePath:          t.TempDir(),
		BaseURL:              "/media",
		MaxFileSize:          1 << 20,
		AllowedExtensions:    []string{"png", "jpg"},
		GenerateThumbnails:   true,
		JPEGQuality:          85,
		PNGCompression:       6,
		WebPQuality:          80,
		MaxImageWidth:        4096,
		MaxImageHeight:       4096,
		TransformConcurrency: 2,
	}
	if mutate != nil {
		mutate(cfg)
	}

	log := zerolog.Nop()
	store, err := storage.NewLocalStore(cfg, log)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return optimizer.NewService(cfg, store, log), cfg, store
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestOptimizeImage(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, nil)

	data := pngBytes(t, 80, 60)
	result, err := svc.OptimizeImage(ctx, data, "jpeg")
	if err != nil {
		t.Fatalf("OptimizeImage: %v", err)
	}

	if result.Format != imaging.FormatJPEG {
		t.Errorf("format = %s, want jpeg", result.Format)
	}
	if result.OriginalSize != int64(len(data)) {
		t.Errorf("original size = %d, want %d", result.OriginalSize, len(data))
	}
	if result.OptimizedSize != int64(len(result.Data)) {
		t.Errorf("optimized size = %d, want %d", result.OptimizedSize, len(result.Data))
	}

	img, err := imaging.Decode(result.Data)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 60 {
		t.Errorf("output dims = %dx%d, want 80x60", b.Dx(), b.Dy())
	}
}

func TestOptimizeImageForceWebP(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, func(cfg *config.Config) { cfg.ConvertToWebP = true })

	result, err := svc.OptimizeImage(ctx, pngBytes(t, 40, 40), "png")
	if err != nil {
		t.Fatalf("OptimizeImage: %v", err)
	}
	if result.Format != imaging.FormatWebP {
		t.Errorf("format = %s, want webp", result.Format)
	}
}

func TestOptimizeImageShrinksOversized(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, func(cfg *config.Config) {
		cfg.MaxImageWidth = 50
		cfg.MaxImageHeight = 50
	})

	result, err := svc.OptimizeImage(ctx, pngBytes(t, 200, 100), "png")
	if err != nil {
		t.Fatalf("OptimizeImage: %v", err)
	}
	img, err := imaging.Decode(result.Data)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 25 {
		t.Errorf("output dims = %dx%d, want 50x25", b.Dx(), b.Dy())
	}
}

func TestOptimizeImageUnknownHintFallsBackToJPEG(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, nil)

	for _, hint := range []string{"tiff", "bmp", ""} {
		result, err := svc.OptimizeImage(ctx, pngBytes(t, 10, 10), hint)
		if err != nil {
			t.Fatalf("OptimizeImage(%q): %v", hint, err)
		}
		if result.Format != imaging.FormatJPEG {
			t.Errorf("hint %q format = %s, want jpeg", hint, result.Format)
		}
	}
}

func TestOptimizeImageRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, nil)

	if _, err := svc.OptimizeImage(ctx, []byte("not an image"), "jpeg"); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeInvalidFile) {
		t.Errorf("garbage input = %v, want invalid file", err)
	}
}

func TestTransform(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, nil)

	out, err := svc.Transform(ctx, pngBytes(t, 40, 20), imaging.TransformRequest{
		Width:   20,
		Height:  20,
		Mode:    imaging.ModeExact,
		Format:  imaging.FormatPNG,
		Quality: 6,
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	img, err := imaging.Decode(out)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Errorf("output dims = %dx%d, want 20x20", b.Dx(), b.Dy())
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := svc.Transform(cancelled, pngBytes(t, 10, 10), imaging.TransformRequest{Format: imaging.FormatJPEG, Quality: 85}); err == nil {
		t.Error("expected error with cancelled context")
	}
}

func TestResizeAndOptimize(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, nil)

	result, err := svc.ResizeAndOptimize(ctx, pngBytes(t, 400, 200), 100, 100)
	if err != nil {
		t.Fatalf("ResizeAndOptimize: %v", err)
	}
	if result.Format != imaging.FormatJPEG {
		t.Errorf("format = %s, want jpeg", result.Format)
	}
	img, err := imaging.Decode(result.Data)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("output dims = %dx%d, want 100x50", b.Dx(), b.Dy())
	}
}

func TestGenerateThumbnails(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newService(t, nil)

	// 500x400 exceeds thumbnail and small but fits inside medium and
	// large, so the default table of four yields two variants
	data := pngBytes(t, 500, 400)
	thumbs, err := svc.GenerateThumbnails(ctx, data, "2026/08/photo.png")
	if err != nil {
		t.Fatalf("GenerateThumbnails: %v", err)
	}
	if len(thumbs) != 2 {
		t.Fatalf("got %d thumbnails, want 2", len(thumbs))
	}

	byName := make(map[string]struct{ w, h int }, len(thumbs))
	for _, thumb := range thumbs {
		byName[thumb.SizeName] = struct{ w, h int }{thumb.Width, thumb.Height}

		if want := optimizer.ThumbnailPath("2026/08/photo.png", thumb.SizeName); thumb.Path != want {
			t.Errorf("%s path = %q, want %q", thumb.SizeName, thumb.Path, want)
		}
		if ok, err := store.Exists(ctx, thumb.Path); err != nil || !ok {
			t.Errorf("%s not persisted at %q (ok=%v err=%v)", thumb.SizeName, thumb.Path, ok, err)
		}
	}

	// Fill crops to the exact box; Fit keeps the 5:4 ratio
	wantDims := map[string]struct{ w, h int }{
		"thumbnail": {150, 150},
		"small":     {300, 240},
	}
	for name, want := range wantDims {
		got, ok := byName[name]
		if !ok {
			t.Errorf("missing %s variant", name)
			continue
		}
		if got != want {
			t.Errorf("%s dims = %dx%d, want %dx%d", name, got.w, got.h, want.w, want.h)
		}
	}
}

func TestGenerateThumbnailsDisabled(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, func(cfg *config.Config) { cfg.GenerateThumbnails = false })

	thumbs, err := svc.GenerateThumbnails(ctx, pngBytes(t, 500, 400), "photo.png")
	if err != nil {
		t.Fatalf("GenerateThumbnails: %v", err)
	}
	if thumbs != nil {
		t.Errorf("got %d thumbnails with generation disabled, want none", len(thumbs))
	}
}

func TestThumbnailPath(t *testing.T) {
	tests := []struct {
		name         string
		originalPath string
		sizeName     string
		want         string
	}{
		{
			name:         "nested path",
			originalPath: "2026/08/photo.jpg",
			sizeName:     "small",
			want:         "2026/08/photo-small.jpg",
		},
		{
			name:         "flat path",
			originalPath: "photo.jpg",
			sizeName:     "thumbnail",
			want:         "photo-thumbnail.jpg",
		},
		{
			name:         "no extension",
			originalPath: "uploads/readme",
			sizeName:     "small",
			want:         "uploads/readme-small",
		},
		{
			name:         "dotted stem",
			originalPath: "a/archive.tar.gz",
			sizeName:     "medium",
			want:         "a/archive.tar-medium.gz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := optimizer.ThumbnailPath(tt.originalPath, tt.sizeName); got != tt.want {
				t.Errorf("ThumbnailPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
