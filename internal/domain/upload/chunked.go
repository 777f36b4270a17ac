package upload

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"medialib/media-api/internal/domain/media"
	"medialib/media-api/internal/infrastructure/metrics"
	"medialib/media-api/internal/utils/platformerrors"
	"medialib/media-api/utils/mediaid"
)

const chunkTempRoot = "temp/chunks"

// InitRequest describes a new chunked upload session.
type InitRequest struct {
	Filename   string
	TotalSize  int64
	ChunkSize  int64
	FolderID   string
	UploadedBy string
}

// InitChunked validates the upload descriptor, allocates temp storage and
// registers a new session. Chunk byte ranges are computed up front and are
// deterministic for a given total size and chunk size.
func (s *Service) InitChunked(ctx context.Context, req InitRequest) (*ChunkedUpload, error) {
	if req.TotalSize <= 0 {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"total size must be positive",
			nil,
			"74e2c9b0-8d51-4f36-a7c8-1e0b5d9f3a62",
		)
	}
	if err := s.validateName(ctx, req.Filename, req.TotalSize); err != nil {
		return nil, err
	}

	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = s.cfg.ChunkSize
	}
	totalChunks := int((req.TotalSize + chunkSize - 1) / chunkSize)

	id := mediaid.NewUpload()
	tempPath := chunkTempRoot + "/" + id
	if err := s.store.CreateDirectory(ctx, tempPath); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &session{
		ChunkedUpload: ChunkedUpload{
			ID:          id,
			Filename:    req.Filename,
			TotalSize:   req.TotalSize,
			ChunkSize:   chunkSize,
			TotalChunks: totalChunks,
			Chunks:      chunkRanges(req.TotalSize, chunkSize, totalChunks),
			FolderID:    req.FolderID,
			UploadedBy:  req.UploadedBy,
			TempPath:    tempPath,
			StartedAt:   now,
			ExpiresAt:   now.Add(s.cfg.ChunkExpiry),
		},
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	metrics.ChunkedSessionsActive.Inc()

	s.log.Info().
		Str("id", id).
		Str("filename", req.Filename).
		Int64("total_size", req.TotalSize).
		Int("total_chunks", totalChunks).
		Msg("chunked upload initialized")

	return sess.snapshot(), nil
}

// UploadChunk persists one chunk and marks it received. Chunks may arrive
// in any order; re-uploading an index overwrites idempotently. An expired
// session is torn down on access and the call fails with Expired. The
// chunk file write happens outside both the map lock and the session lock.
func (s *Service) UploadChunk(ctx context.Context, id string, index int, data []byte) (*ChunkedUpload, error) {
	sess, err := s.liveSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= sess.TotalChunks {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("chunk index %d out of range [0,%d)", index, sess.TotalChunks),
			nil,
			"0b6f3e81-c254-49d7-a1e0-8f5c2d7b9364",
		)
	}
	expected := sess.Chunks[index].Size
	if int64(len(data)) != expected {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("chunk %d must be %d bytes, got %d", index, expected, len(data)),
			nil,
			"92d7a4f6-1e83-4c50-b6d9-3a0e8c5f1274",
		)
	}

	if _, err := s.store.Write(ctx, chunkFilePath(sess.TempPath, index), data); err != nil {
		return nil, err
	}

	sum := md5.Sum(data)
	sess.markReceived(index, hex.EncodeToString(sum[:]))

	return sess.snapshot(), nil
}

// CompleteChunked verifies full receipt, reassembles the chunks in index
// order and feeds the buffer through the single-shot upload path. A failed
// completion is not destructive: on ChunkMissing (or an upload error) the
// session stays alive for a retry.
func (s *Service) CompleteChunked(ctx context.Context, id string) (*media.MediaItem, error) {
	sess, err := s.liveSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if missing := sess.firstMissing(); missing >= 0 {
		return nil, platformerrors.NewChunkMissing(ctx, missing, "ef28c1d5-9a64-4b07-83f2-d6e0a5c19b38")
	}

	buf := bytes.NewBuffer(make([]byte, 0, sess.TotalSize))
	for i := 0; i < sess.TotalChunks; i++ {
		chunk, err := s.store.Read(ctx, chunkFilePath(sess.TempPath, i))
		if err != nil {
			return nil, err
		}
		buf.Write(chunk)
	}

	item, err := s.Upload(ctx, Request{
		Data:       buf.Bytes(),
		Filename:   sess.Filename,
		FolderID:   sess.FolderID,
		UploadedBy: sess.UploadedBy,
	})
	if err != nil {
		return nil, err
	}

	s.removeSession(ctx, sess, false)

	s.log.Info().
		Str("id", id).
		Str("media_id", item.ID).
		Msg("chunked upload completed")

	return item, nil
}

// CancelChunked removes a session and its temp directory.
func (s *Service) CancelChunked(ctx context.Context, id string) error {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return s.sessionNotFound(ctx, id)
	}
	s.removeSession(ctx, sess, false)
	return nil
}

// GetChunked returns a snapshot of a session's receipt state.
func (s *Service) GetChunked(ctx context.Context, id string) (*ChunkedUpload, error) {
	sess, err := s.liveSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.snapshot(), nil
}

// CleanupExpired sweeps every tracked session and removes the expired
// ones, reporting the count. Safe to run alongside the lazy per-access
// expiry check.
func (s *Service) CleanupExpired(ctx context.Context) int {
	now := time.Now().UTC()

	s.mu.RLock()
	expired := make([]*session, 0)
	for _, sess := range s.sessions {
		if sess.expired(now) {
			expired = append(expired, sess)
		}
	}
	s.mu.RUnlock()

	for _, sess := range expired {
		s.removeSession(ctx, sess, true)
	}

	if len(expired) > 0 {
		s.log.Info().Int("count", len(expired)).Msg("expired chunked sessions removed")
	}
	return len(expired)
}

// SessionCount reports how many sessions are currently tracked.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// liveSession resolves a session and applies the lazy expiry check,
// tearing the session down if its deadline passed.
func (s *Service) liveSession(ctx context.Context, id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, s.sessionNotFound(ctx, id)
	}

	if sess.expired(time.Now().UTC()) {
		s.removeSession(ctx, sess, true)
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeExpired,
			fmt.Sprintf("upload session %s expired", id),
			nil,
			"a3c75e09-1f82-4d64-b5a0-c8d2e6f91b37",
		)
	}
	return sess, nil
}

// removeSession drops a session from tracking and deletes its temp
// directory. Directory deletion is best effort.
func (s *Service) removeSession(ctx context.Context, sess *session, expiredSweep bool) {
	s.mu.Lock()
	_, present := s.sessions[sess.ID]
	delete(s.sessions, sess.ID)
	s.mu.Unlock()

	if !present {
		return
	}

	metrics.ChunkedSessionsActive.Dec()
	if expiredSweep {
		metrics.ChunkedSessionsExpiredTotal.Inc()
	}
	if err := s.store.DeleteDirectory(ctx, sess.TempPath); err != nil {
		s.log.Warn().Err(err).Str("path", sess.TempPath).Msg("could not delete session temp directory")
	}
}

func (s *Service) sessionNotFound(ctx context.Context, id string) error {
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerDomain,
		platformerrors.ErrorTypeNotFound,
		fmt.Sprintf("upload session %s not found", id),
		nil,
		"5f90d2b7-63ae-418c-9d05-e7a1c4f82b60",
	)
}

func chunkFilePath(tempPath string, index int) string {
	return fmt.Sprintf("%s/chunk_%06d", tempPath, index)
}
