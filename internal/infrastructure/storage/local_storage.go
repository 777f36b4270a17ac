package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"medialib/media-api/internal/config"
	domain "medialib/media-api/internal/domain/media"
	"medialib/media-api/internal/infrastructure/metrics"
	"medialib/media-api/internal/utils/platformerrors"
)

// LocalStore persists content under a root directory on the local
// filesystem. Writes go to a temp sibling first and are renamed into
// place, so a reader never observes a partially written file.
type LocalStore struct {
	basePath       string
	baseURL        string
	organizeByDate bool
	dateFormat     string
	maxFileSize    int64
	cfg            *config.Config
	log            zerolog.Logger
}

// NewLocalStore creates the filesystem content store rooted at the
// configured storage path.
func NewLocalStore(cfg *config.Config, log zerolog.Logger) (*LocalStore, error) {
	logger := log.With().Str("component", "local-store").Logger()

	basePath, err := filepath.Abs(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	store := &LocalStore{
		basePath:       basePath,
		baseURL:        cfg.BaseURL,
		organizeByDate: cfg.OrganizeByDate,
		dateFormat:     cfg.DateFormat,
		maxFileSize:    cfg.MaxFileSize,
		cfg:            cfg,
		log:            logger,
	}

	logger.Info().
		Str("path", basePath).
		Str("base_url", store.baseURL).
		Bool("organize_by_date", store.organizeByDate).
		Msg("local store initialized")

	return store, nil
}

// Store validates, names and persists a new object, returning its path,
// URL, size and content hash. Validation happens before any disk write.
func (l *LocalStore) Store(ctx context.Context, data []byte, filename, mimeType string) (*domain.StoredObject, error) {
	if int64(len(data)) > l.maxFileSize {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeFileTooLarge,
			fmt.Sprintf("file of %d bytes exceeds limit of %d", len(data), l.maxFileSize),
			nil,
			"a1f4c28b-5e07-4d93-b6a2-8c1e0f97d354",
		)
	}
	if mimeType != "" && !l.cfg.IsMIMETypeAllowed(mimeType) {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeTypeNotAllowed,
			fmt.Sprintf("mime type %s is not allowed", mimeType),
			nil,
			"b93d7e10-2c48-4f5a-9e61-d0a8b4c6f272",
		)
	}

	relPath := l.GenerateUniqueFilename(filename)
	obj, err := l.Write(ctx, relPath, data)
	if err != nil {
		return nil, err
	}

	metrics.RecordStorageOperation("store", "success", int64(len(data)))
	return obj, nil
}

// StoreFromPath ingests a file already on local disk. The source is read
// in full, stored through the normal naming and validation path, and
// removed afterwards unless copy is set.
func (l *LocalStore) StoreFromPath(ctx context.Context, srcPath, filename string, copy bool) (*domain.StoredObject, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, l.notFound(ctx, srcPath)
		}
		return nil, l.storageError(ctx, "read source file", err)
	}

	mime := mimetype.Detect(data).String()
	obj, err := l.Store(ctx, data, filename, mime)
	if err != nil {
		return nil, err
	}

	if !copy {
		if err := os.Remove(srcPath); err != nil {
			l.log.Warn().Err(err).Str("src", srcPath).Msg("source file not removed after ingest")
		}
	}
	return obj, nil
}

// Write persists bytes at an exact relative path, creating parent
// directories as needed.
func (l *LocalStore) Write(ctx context.Context, relPath string, data []byte) (*domain.StoredObject, error) {
	fullPath, err := l.resolve(ctx, relPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, l.storageError(ctx, "create parent directory", err)
	}

	tmpPath := fullPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return nil, l.storageError(ctx, "write temp file", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		_ = os.Remove(tmpPath)
		return nil, l.storageError(ctx, "rename into place", err)
	}

	sum := sha256.Sum256(data)

	l.log.Debug().
		Str("path", relPath).
		Int("bytes", len(data)).
		Msg("object written")

	return &domain.StoredObject{
		Path: filepath.ToSlash(relPath),
		URL:  l.URLFor(relPath),
		Size: int64(len(data)),
		Hash: hex.EncodeToString(sum[:]),
	}, nil
}

// Read returns the full contents of an object.
func (l *LocalStore) Read(ctx context.Context, relPath string) ([]byte, error) {
	fullPath, err := l.resolve(ctx, relPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, l.notFound(ctx, relPath)
		}
		return nil, l.storageError(ctx, "read file", err)
	}
	return data, nil
}

// Delete removes an object. Deleting a missing path is not an error.
func (l *LocalStore) Delete(ctx context.Context, relPath string) error {
	fullPath, err := l.resolve(ctx, relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return l.storageError(ctx, "delete file", err)
	}
	metrics.RecordStorageOperation("delete", "success", 0)
	return nil
}

// Exists reports whether an object is present.
func (l *LocalStore) Exists(ctx context.Context, relPath string) (bool, error) {
	fullPath, err := l.resolve(ctx, relPath)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, l.storageError(ctx, "stat file", err)
	}
	return true, nil
}

// Size returns the byte size of an object.
func (l *LocalStore) Size(ctx context.Context, relPath string) (int64, error) {
	fullPath, err := l.resolve(ctx, relPath)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, l.notFound(ctx, relPath)
		}
		return 0, l.storageError(ctx, "stat file", err)
	}
	return info.Size(), nil
}

// MoveFile renames an object, creating the destination parent directory.
func (l *LocalStore) MoveFile(ctx context.Context, src, dst string) error {
	srcPath, err := l.resolve(ctx, src)
	if err != nil {
		return err
	}
	dstPath, err := l.resolve(ctx, dst)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return l.storageError(ctx, "create destination directory", err)
	}
	if err := os.Rename(srcPath, dstPath); err != nil {
		if os.IsNotExist(err) {
			return l.notFound(ctx, src)
		}
		return l.storageError(ctx, "move file", err)
	}
	return nil
}

// CopyFile duplicates an object, creating the destination parent directory.
func (l *LocalStore) CopyFile(ctx context.Context, src, dst string) error {
	data, err := l.Read(ctx, src)
	if err != nil {
		return err
	}
	_, err = l.Write(ctx, dst, data)
	return err
}

// DirectorySize sums file sizes recursively. An empty path measures the
// whole store.
func (l *LocalStore) DirectorySize(ctx context.Context, relPath string) (int64, error) {
	root := l.basePath
	if relPath != "" {
		resolved, err := l.resolve(ctx, relPath)
		if err != nil {
			return 0, err
		}
		root = resolved
	}

	var total int64
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if entry.Type().IsRegular() {
			info, err := entry.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, l.storageError(ctx, "walk directory", err)
	}
	return total, nil
}

// CreateDirectory makes a directory (and parents) under the store root.
func (l *LocalStore) CreateDirectory(ctx context.Context, relPath string) error {
	fullPath, err := l.resolve(ctx, relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(fullPath, 0o755); err != nil {
		return l.storageError(ctx, "create directory", err)
	}
	return nil
}

// DeleteDirectory removes a directory tree. Missing directories are fine.
func (l *LocalStore) DeleteDirectory(ctx context.Context, relPath string) error {
	if strings.TrimSpace(relPath) == "" {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeValidation,
			"refusing to delete the store root",
			nil,
			"f67a3b0c-8d24-4e19-a5c7-2b9e6d04f183",
		)
	}
	fullPath, err := l.resolve(ctx, relPath)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(fullPath); err != nil {
		return l.storageError(ctx, "delete directory", err)
	}
	return nil
}

// URLFor builds the public URL for a relative path.
func (l *LocalStore) URLFor(relPath string) string {
	return l.baseURL + "/" + filepath.ToSlash(relPath)
}

// GenerateUniqueFilename builds a collision-resistant relative path from an
// original filename: sanitized stem, a timestamp and a random suffix,
// optionally nested under a date directory. Safe under concurrent callers.
func (l *LocalStore) GenerateUniqueFilename(filename string) string {
	stem, ext := domain.SplitStem(filename)

	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)

	name := fmt.Sprintf("%s-%s-%s", stem, time.Now().Format("20060102150405"), hex.EncodeToString(suffix))
	if ext != "" {
		name = name + "." + ext
	}

	if l.organizeByDate {
		layout := l.dateFormat
		if layout == "" {
			layout = "2006/01"
		}
		return filepath.ToSlash(filepath.Join(time.Now().Format(layout), name))
	}
	return name
}

// Health checks that the storage root is writable.
func (l *LocalStore) Health(ctx context.Context) error {
	testFile := filepath.Join(l.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}

// resolve maps a relative path under the store root and rejects traversal.
func (l *LocalStore) resolve(ctx context.Context, relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("path %q escapes the storage root", relPath),
			nil,
			"d25e8c41-0f6b-4a87-93de-61c0b7a2f598",
		)
	}
	return filepath.Join(l.basePath, cleaned), nil
}

func (l *LocalStore) notFound(ctx context.Context, relPath string) error {
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerInfrastructure,
		platformerrors.ErrorTypeNotFound,
		fmt.Sprintf("object %s not found", relPath),
		nil,
		"3c9f1d82-6a45-4b0e-8d27-f5e1c09a6b34",
	)
}

func (l *LocalStore) storageError(ctx context.Context, action string, err error) error {
	metrics.RecordStorageOperation(action, "error", 0)
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerInfrastructure,
		platformerrors.ErrorTypeStorageError,
		action+" failed",
		err,
		"8e2b5f90-1c74-4d36-a8b9-07f3e6d21c45",
	)
}
