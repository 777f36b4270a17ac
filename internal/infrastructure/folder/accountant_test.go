package folder

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestExists(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		strict     bool
		registered []string
		folderID   string
		want       bool
	}{
		{
			name:     "root always exists",
			strict:   true,
			folderID: "",
			want:     true,
		},
		{
			name:     "lenient accepts anything",
			strict:   false,
			folderID: "never-seen",
			want:     true,
		},
		{
			name:       "strict accepts registered",
			strict:     true,
			registered: []string{"photos"},
			folderID:   "photos",
			want:       true,
		},
		{
			name:       "strict rejects unknown",
			strict:     true,
			registered: []string{"photos"},
			folderID:   "videos",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAccountant(tt.strict, zerolog.Nop())
			for _, id := range tt.registered {
				a.Register(id)
			}
			got, err := a.Exists(ctx, tt.folderID)
			if err != nil {
				t.Fatalf("Exists: %v", err)
			}
			if got != tt.want {
				t.Errorf("Exists(%q) = %v, want %v", tt.folderID, got, tt.want)
			}
		})
	}
}

func TestUsageAccounting(t *testing.T) {
	ctx := context.Background()
	a := NewAccountant(false, zerolog.Nop())

	a.OnItemAdded(ctx, "photos", 100)
	a.OnItemAdded(ctx, "photos", 50)
	a.OnItemAdded(ctx, "videos", 900)

	if u := a.UsageFor("photos"); u.ItemCount != 2 || u.TotalSize != 150 {
		t.Errorf("photos usage = %+v, want 2 items / 150 bytes", u)
	}
	if u := a.UsageFor("videos"); u.ItemCount != 1 || u.TotalSize != 900 {
		t.Errorf("videos usage = %+v, want 1 item / 900 bytes", u)
	}

	a.OnItemRemoved(ctx, "photos", 100)
	if u := a.UsageFor("photos"); u.ItemCount != 1 || u.TotalSize != 50 {
		t.Errorf("photos usage after removal = %+v, want 1 item / 50 bytes", u)
	}
}

func TestUsageFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	a := NewAccountant(false, zerolog.Nop())

	a.OnItemAdded(ctx, "docs", 10)
	a.OnItemRemoved(ctx, "docs", 25)
	a.OnItemRemoved(ctx, "docs", 25)

	if u := a.UsageFor("docs"); u.ItemCount != 0 || u.TotalSize != 0 {
		t.Errorf("usage = %+v, want zeros", u)
	}

	// removal from an untracked folder is a no-op
	a.OnItemRemoved(ctx, "ghost", 5)
	if u := a.UsageFor("ghost"); u.ItemCount != 0 || u.TotalSize != 0 {
		t.Errorf("ghost usage = %+v, want zeros", u)
	}
}

func TestRootFolderNotTracked(t *testing.T) {
	ctx := context.Background()
	a := NewAccountant(false, zerolog.Nop())

	a.OnItemAdded(ctx, "", 100)
	a.OnItemRemoved(ctx, "", 100)

	if u := a.UsageFor(""); u.ItemCount != 0 || u.TotalSize != 0 {
		t.Errorf("root usage = %+v, want zeros", u)
	}
}
