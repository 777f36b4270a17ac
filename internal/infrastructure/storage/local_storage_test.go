package storage_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"medialib/media-api/internal/config"
	"medialib/media-api/internal/infrastructure/storage"
	"medialib/media-api/internal/utils/platformerrors"
)

func newStore(t *testing.T, cfg *config.Config) *storage.LocalStore {
	t.Helper()
	if cfg.StoragePath == "" {
		cfg.StoragePath = t.TempDir()
	}
	store, err := storage.NewLocalStore(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return store
}

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		StoragePath: t.TempDir(),
		BaseURL:     "/media",
		MaxFileSize: 1 << 20,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, baseConfig(t))

	content := []byte("hello storage")
	obj, err := store.Store(ctx, content, "greeting.txt", "text/plain")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	sum := sha256.Sum256(content)
	if obj.Hash != hex.EncodeToString(sum[:]) {
		t.Errorf("Hash = %q, want sha256 of content", obj.Hash)
	}
	if obj.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", obj.Size, len(content))
	}
	if !strings.HasPrefix(obj.URL, "/media/") {
		t.Errorf("URL = %q, want /media/ prefix", obj.URL)
	}

	read, err := store.Read(ctx, obj.Path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(read) != string(content) {
		t.Errorf("Read returned %q", read)
	}
}

func TestStoreRejectsOversizedFile(t *testing.T) {
	ctx := context.Background()
	cfg := baseConfig(t)
	cfg.MaxFileSize = 10
	store := newStore(t, cfg)

	_, err := store.Store(ctx, make([]byte, 11), "big.bin", "")
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeFileTooLarge) {
		t.Errorf("Store oversized = %v, want file too large", err)
	}

	// nothing was written
	size, err := store.DirectorySize(ctx, "")
	if err != nil {
		t.Fatalf("DirectorySize: %v", err)
	}
	if size != 0 {
		t.Errorf("store not empty after rejected upload: %d bytes", size)
	}
}

func TestStoreRejectsDisallowedMIME(t *testing.T) {
	ctx := context.Background()
	cfg := baseConfig(t)
	cfg.AllowedMIMETypes = []string{"image/png"}
	store := newStore(t, cfg)

	_, err := store.Store(ctx, []byte("x"), "evil.exe", "application/x-msdownload")
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeTypeNotAllowed) {
		t.Errorf("Store disallowed mime = %v, want type not allowed", err)
	}
}

func TestGenerateUniqueFilename(t *testing.T) {
	cfg := baseConfig(t)
	cfg.OrganizeByDate = true
	cfg.DateFormat = "2006/01"
	store := newStore(t, cfg)

	first := store.GenerateUniqueFilename("My Photo.JPG")
	second := store.GenerateUniqueFilename("My Photo.JPG")

	if first == second {
		t.Error("two generated names collided")
	}
	if !strings.HasSuffix(first, ".jpg") {
		t.Errorf("name %q does not keep extension", first)
	}
	if !strings.Contains(first, "my-photo") {
		t.Errorf("name %q lost sanitized stem", first)
	}
	if parts := strings.Split(first, "/"); len(parts) != 3 {
		t.Errorf("name %q not nested under yyyy/mm", first)
	}
}

func TestGenerateUniqueFilenameFlat(t *testing.T) {
	cfg := baseConfig(t)
	cfg.OrganizeByDate = false
	store := newStore(t, cfg)

	name := store.GenerateUniqueFilename("photo.png")
	if strings.Contains(name, "/") {
		t.Errorf("flat layout produced nested path %q", name)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, baseConfig(t))

	for _, path := range []string{"../outside.txt", "../../etc/passwd", "/etc/passwd", "a/../../b"} {
		if _, err := store.Read(ctx, path); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
			t.Errorf("Read(%q) = %v, want validation error", path, err)
		}
		if _, err := store.Write(ctx, path, []byte("x")); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
			t.Errorf("Write(%q) = %v, want validation error", path, err)
		}
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, baseConfig(t))

	obj, err := store.Write(ctx, "a/b.txt", []byte("x"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Delete(ctx, obj.Path); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := store.Delete(ctx, obj.Path); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestMoveAndCopy(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, baseConfig(t))

	if _, err := store.Write(ctx, "src/file.txt", []byte("payload")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := store.MoveFile(ctx, "src/file.txt", "dst/file.txt"); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if exists, _ := store.Exists(ctx, "src/file.txt"); exists {
		t.Error("source still present after move")
	}

	if err := store.CopyFile(ctx, "dst/file.txt", "copy/file.txt"); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	data, err := store.Read(ctx, "copy/file.txt")
	if err != nil || string(data) != "payload" {
		t.Errorf("copy content = (%q, %v)", data, err)
	}
}

func TestDirectorySizeAndDeleteDirectory(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, baseConfig(t))

	files := map[string]int{"temp/a.bin": 10, "temp/sub/b.bin": 20, "keep/c.bin": 5}
	for path, size := range files {
		if _, err := store.Write(ctx, path, make([]byte, size)); err != nil {
			t.Fatalf("Write %s: %v", path, err)
		}
	}

	size, err := store.DirectorySize(ctx, "temp")
	if err != nil {
		t.Fatalf("DirectorySize: %v", err)
	}
	if size != 30 {
		t.Errorf("DirectorySize(temp) = %d, want 30", size)
	}

	if err := store.DeleteDirectory(ctx, "temp"); err != nil {
		t.Fatalf("DeleteDirectory: %v", err)
	}
	if exists, _ := store.Exists(ctx, "temp/a.bin"); exists {
		t.Error("file survived directory delete")
	}
	if exists, _ := store.Exists(ctx, "keep/c.bin"); !exists {
		t.Error("unrelated file removed")
	}

	// deleting the store root is refused
	if err := store.DeleteDirectory(ctx, ""); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("DeleteDirectory root = %v, want validation error", err)
	}
}

func TestURLFor(t *testing.T) {
	store := newStore(t, baseConfig(t))
	got := store.URLFor(filepath.Join("2024", "01", "x.jpg"))
	if got != "/media/2024/01/x.jpg" {
		t.Errorf("URLFor = %q", got)
	}
}

func TestStoreFromPath(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, baseConfig(t))

	src := filepath.Join(t.TempDir(), "incoming.txt")
	content := []byte("sideloaded content")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	obj, err := store.StoreFromPath(ctx, src, "incoming.txt", false)
	if err != nil {
		t.Fatalf("StoreFromPath: %v", err)
	}

	read, err := store.Read(ctx, obj.Path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(read, content) {
		t.Error("stored bytes differ from source")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source file survived a move-mode ingest")
	}
}

func TestStoreFromPathCopyKeepsSource(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, baseConfig(t))

	src := filepath.Join(t.TempDir(), "keep.txt")
	if err := os.WriteFile(src, []byte("copied"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if _, err := store.StoreFromPath(ctx, src, "keep.txt", true); err != nil {
		t.Fatalf("StoreFromPath: %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source file missing after copy-mode ingest: %v", err)
	}

	if _, err := store.StoreFromPath(ctx, filepath.Join(t.TempDir(), "ghost.txt"), "ghost.txt", true); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("missing source = %v, want not found", err)
	}
}
