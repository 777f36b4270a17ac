package media_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"medialib/media-api/internal/config"
	"medialib/media-api/internal/domain/media"
	"medialib/media-api/internal/infrastructure/folder"
	repo "medialib/media-api/internal/infrastructure/repository/media"
	"medialib/media-api/internal/infrastructure/storage"
	"medialib/media-api/internal/utils/platformerrors"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		StoragePath:       t.TempDir(),
		BaseURL:           "/media",
		MaxFileSize:       1 << 20,
		Deduplicate:       true,
		AllowedExtensions: []string{"jpg", "png", "txt"},
		JPEGQuality:       85,
		PNGCompression:    6,
		WebPQuality:       80,
	}
}

func newCatalog(t *testing.T, cfg *config.Config) (*media.Service, *storage.LocalStore, *folder.Accountant) {
	t.Helper()
	log := zerolog.Nop()

	store, err := storage.NewLocalStore(cfg, log)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	folders := folder.NewAccountant(false, log)
	catalog := media.NewService(cfg, repo.NewMemoryRepository(cfg.Deduplicate), store, folders, log)
	return catalog, store, folders
}

func storeObject(t *testing.T, store *storage.LocalStore, content string) *media.StoredObject {
	t.Helper()
	obj, err := store.Store(context.Background(), []byte(content), "note.txt", "text/plain")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	return obj
}

func TestCatalogRegisterAndGet(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	catalog, store, folders := newCatalog(t, cfg)

	obj := storeObject(t, store, "hello catalog")
	item, err := catalog.Register(ctx, media.RegisterRequest{
		Object:   obj,
		Filename: "note.txt",
		MimeType: "text/plain",
		FolderID: "folder-1",
		Tags:     []string{"notes"},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if !strings.HasPrefix(item.ID, "med_") {
		t.Errorf("ID = %q, want med_ prefix", item.ID)
	}
	if item.MediaType != media.TypeDocument {
		t.Errorf("MediaType = %v, want document", item.MediaType)
	}
	if item.ContentHash != obj.Hash {
		t.Errorf("ContentHash = %q, want %q", item.ContentHash, obj.Hash)
	}

	got, err := catalog.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Filename != "note.txt" || got.Slug != "note" {
		t.Errorf("got filename %q slug %q", got.Filename, got.Slug)
	}

	usage := folders.UsageFor("folder-1")
	if usage.ItemCount != 1 || usage.TotalSize != obj.Size {
		t.Errorf("folder usage = %+v, want 1 item of %d bytes", usage, obj.Size)
	}
}

func TestCatalogUpdatePartialFields(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	catalog, store, _ := newCatalog(t, cfg)

	obj := storeObject(t, store, "content")
	item, err := catalog.Register(ctx, media.RegisterRequest{Object: obj, Filename: "note.txt", MimeType: "text/plain"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	title := "My Note"
	updated, err := catalog.Update(ctx, item.ID, media.UpdateRequest{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "My Note" {
		t.Errorf("Title = %q, want My Note", updated.Title)
	}
	if updated.Filename != "note.txt" {
		t.Errorf("untouched field changed: %q", updated.Filename)
	}

	// nil fields leave values alone
	alt := "alt"
	again, err := catalog.Update(ctx, item.ID, media.UpdateRequest{AltText: &alt})
	if err != nil {
		t.Fatalf("second Update: %v", err)
	}
	if again.Title != "My Note" {
		t.Errorf("Title reset by unrelated update: %q", again.Title)
	}
}

func TestCatalogSoftAndPermanentDelete(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	catalog, store, _ := newCatalog(t, cfg)

	obj := storeObject(t, store, "deletable")
	item, err := catalog.Register(ctx, media.RegisterRequest{Object: obj, Filename: "note.txt", MimeType: "text/plain"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := catalog.Delete(ctx, item.ID, false); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	// file survives a soft delete
	if exists, _ := store.Exists(ctx, item.Path); !exists {
		t.Error("file removed by soft delete")
	}
	got, err := catalog.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get after soft delete: %v", err)
	}
	if !got.Deleted {
		t.Error("expected deleted flag")
	}

	// soft delete twice is a no-op
	if err := catalog.Delete(ctx, item.ID, false); err != nil {
		t.Fatalf("repeated soft delete: %v", err)
	}

	if err := catalog.Delete(ctx, item.ID, true); err != nil {
		t.Fatalf("permanent delete: %v", err)
	}
	if exists, _ := store.Exists(ctx, item.Path); exists {
		t.Error("file survived permanent delete")
	}
	if _, err := catalog.Get(ctx, item.ID); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("Get after permanent delete = %v, want not found", err)
	}
}

func TestCatalogRestore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	catalog, store, _ := newCatalog(t, cfg)

	obj := storeObject(t, store, "restorable")
	item, err := catalog.Register(ctx, media.RegisterRequest{Object: obj, Filename: "note.txt", MimeType: "text/plain"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := catalog.Delete(ctx, item.ID, false); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	restored, err := catalog.Restore(ctx, item.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Deleted {
		t.Error("item still flagged deleted after restore")
	}

	// restore of a live item is a no-op
	if _, err := catalog.Restore(ctx, item.ID); err != nil {
		t.Errorf("restore of live item: %v", err)
	}
}

func TestCatalogMoveToFolder(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	catalog, store, folders := newCatalog(t, cfg)

	obj := storeObject(t, store, "movable")
	item, err := catalog.Register(ctx, media.RegisterRequest{Object: obj, Filename: "note.txt", MimeType: "text/plain", FolderID: "src"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	moved, err := catalog.MoveToFolder(ctx, item.ID, "dst")
	if err != nil {
		t.Fatalf("MoveToFolder: %v", err)
	}
	if moved.FolderID != "dst" {
		t.Errorf("FolderID = %q, want dst", moved.FolderID)
	}

	if usage := folders.UsageFor("src"); usage.ItemCount != 0 {
		t.Errorf("source folder count = %d, want 0", usage.ItemCount)
	}
	if usage := folders.UsageFor("dst"); usage.ItemCount != 1 {
		t.Errorf("destination folder count = %d, want 1", usage.ItemCount)
	}
}

func TestCatalogReadContent(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	catalog, store, _ := newCatalog(t, cfg)

	obj := storeObject(t, store, "raw bytes here")
	item, err := catalog.Register(ctx, media.RegisterRequest{Object: obj, Filename: "note.txt", MimeType: "text/plain"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	data, got, err := catalog.ReadContent(ctx, item.ID)
	if err != nil {
		t.Fatalf("ReadContent: %v", err)
	}
	if string(data) != "raw bytes here" {
		t.Errorf("content = %q", data)
	}
	if got.ID != item.ID {
		t.Errorf("item mismatch: %q", got.ID)
	}
}
