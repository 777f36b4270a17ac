package upload

import (
	"sync"
	"time"
)

// ChunkInfo is the per-chunk receipt record. Chunks are addressed only by
// index; arrival order is irrelevant.
type ChunkInfo struct {
	Index    int    `json:"index"`
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
	Size     int64  `json:"size"`
	Received bool   `json:"received"`
	Checksum string `json:"checksum,omitempty"`
}

// ChunkedUpload is a transient upload session. It lives only in memory and
// is destroyed on completion, cancellation or expiry.
type ChunkedUpload struct {
	ID          string      `json:"id"`
	Filename    string      `json:"filename"`
	TotalSize   int64       `json:"total_size"`
	ChunkSize   int64       `json:"chunk_size"`
	TotalChunks int         `json:"total_chunks"`
	Chunks      []ChunkInfo `json:"chunks"`
	FolderID    string      `json:"folder_id,omitempty"`
	UploadedBy  string      `json:"uploaded_by,omitempty"`
	TempPath    string      `json:"-"`
	StartedAt   time.Time   `json:"started_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// Received counts chunks marked received.
func (u *ChunkedUpload) ReceivedCount() int {
	count := 0
	for _, chunk := range u.Chunks {
		if chunk.Received {
			count++
		}
	}
	return count
}

// session pairs the upload state with its own mutex so chunk bookkeeping
// for one upload never blocks unrelated sessions.
type session struct {
	mu sync.Mutex
	ChunkedUpload
}

// snapshot copies the session state for callers outside the lock.
func (s *session) snapshot() *ChunkedUpload {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := s.ChunkedUpload
	clone.Chunks = append([]ChunkInfo(nil), s.Chunks...)
	return &clone
}

// markReceived records a chunk receipt. Re-receiving an index overwrites.
func (s *session) markReceived(index int, checksum string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Chunks[index].Received = true
	s.Chunks[index].Checksum = checksum
}

// firstMissing returns the lowest index not yet received, or -1.
func (s *session) firstMissing() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range s.Chunks {
		if !chunk.Received {
			return chunk.Index
		}
	}
	return -1
}

func (s *session) expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// chunkRanges computes deterministic byte ranges:
// [i*chunkSize, min((i+1)*chunkSize, totalSize)).
func chunkRanges(totalSize, chunkSize int64, totalChunks int) []ChunkInfo {
	chunks := make([]ChunkInfo, totalChunks)
	for i := 0; i < totalChunks; i++ {
		start := int64(i) * chunkSize
		end := start + chunkSize
		if end > totalSize {
			end = totalSize
		}
		chunks[i] = ChunkInfo{
			Index: i,
			Start: start,
			End:   end,
			Size:  end - start,
		}
	}
	return chunks
}
