package mediaid

import (
	"strings"
	"testing"
)

func TestNewPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{name: "media", gen: NewMedia, prefix: PrefixMedia},
		{name: "upload", gen: NewUpload, prefix: PrefixUpload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.gen()
			if !strings.HasPrefix(id, tt.prefix) {
				t.Errorf("id %q missing prefix %q", id, tt.prefix)
			}
			if len(id) != len(tt.prefix)+26 {
				t.Errorf("id %q length = %d, want %d", id, len(id), len(tt.prefix)+26)
			}
			if id != strings.ToLower(id) {
				t.Errorf("id %q is not lowercase", id)
			}
			if !IsValid(tt.prefix, id) {
				t.Errorf("IsValid(%q, %q) = false", tt.prefix, id)
			}
		})
	}
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewMedia()
		if seen[id] {
			t.Fatalf("duplicate id %q after %d generations", id, i)
		}
		seen[id] = true
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "valid media id", value: NewMedia(), want: true},
		{name: "upload prefix", value: NewUpload(), want: false},
		{name: "no prefix", value: "01h2xcejqtf2nbrexx3vqjhp41", want: false},
		{name: "prefix with junk", value: "med_not-a-ulid", want: false},
		{name: "empty", value: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(PrefixMedia, tt.value); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	id := NewMedia()
	parsed, err := Parse(PrefixMedia, id)
	if err != nil {
		t.Fatalf("Parse(%q): %v", id, err)
	}
	if got := PrefixMedia + strings.ToLower(parsed.String()); got != id {
		t.Errorf("round trip = %q, want %q", got, id)
	}

	if _, err := Parse(PrefixMedia, "med_zzz"); err == nil {
		t.Error("Parse accepted malformed ULID")
	}
}
