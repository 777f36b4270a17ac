// Package folder provides an in-process folder registry with item-count
// and size accounting. It is lenient by default: any folder ID is accepted
// and tracked on first use, which suits deployments where folder metadata
// lives in an upstream system. Strict mode restricts uploads to folders
// registered ahead of time.
package folder

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Usage is an accounting snapshot for one folder.
type Usage struct {
	FolderID  string `json:"folder_id"`
	ItemCount int64  `json:"item_count"`
	TotalSize int64  `json:"total_size"`
}

// Accountant tracks per-folder usage in memory.
type Accountant struct {
	mu      sync.RWMutex
	strict  bool
	folders map[string]*Usage
	log     zerolog.Logger
}

func NewAccountant(strict bool, log zerolog.Logger) *Accountant {
	return &Accountant{
		strict:  strict,
		folders: make(map[string]*Usage),
		log:     log.With().Str("component", "folder").Logger(),
	}
}

// Register makes a folder ID known. Only meaningful in strict mode, but
// harmless otherwise.
func (a *Accountant) Register(folderID string) {
	if folderID == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.folders[folderID]; !ok {
		a.folders[folderID] = &Usage{FolderID: folderID}
	}
}

// Exists reports whether a folder may receive items. The empty folder ID
// (the root) always exists.
func (a *Accountant) Exists(_ context.Context, folderID string) (bool, error) {
	if folderID == "" {
		return true, nil
	}
	if !a.strict {
		return true, nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.folders[folderID]
	return ok, nil
}

// OnItemAdded credits one item of the given size to a folder.
func (a *Accountant) OnItemAdded(_ context.Context, folderID string, bytes int64) {
	if folderID == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.folders[folderID]
	if !ok {
		u = &Usage{FolderID: folderID}
		a.folders[folderID] = u
	}
	u.ItemCount++
	u.TotalSize += bytes
}

// OnItemRemoved debits one item of the given size from a folder.
// Counters floor at zero so a missed add never drives them negative.
func (a *Accountant) OnItemRemoved(_ context.Context, folderID string, bytes int64) {
	if folderID == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.folders[folderID]
	if !ok {
		a.log.Warn().Str("folder_id", folderID).Msg("removal from untracked folder")
		return
	}
	if u.ItemCount > 0 {
		u.ItemCount--
	}
	if u.TotalSize >= bytes {
		u.TotalSize -= bytes
	} else {
		u.TotalSize = 0
	}
}

// UsageFor returns the accounting snapshot for a folder, or zeros when
// the folder is untracked.
func (a *Accountant) UsageFor(folderID string) Usage {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if u, ok := a.folders[folderID]; ok {
		return *u
	}
	return Usage{FolderID: folderID}
}
