package mediaid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes for the ID namespaces handed out by this service.
const (
	PrefixMedia  = "med_"
	PrefixUpload = "upl_"
)

var (
	entropyOnce sync.Once
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

// New returns a prefixed lowercase ULID string.
func New(prefix string) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return prefix + strings.ToLower(id.String())
}

// NewMedia returns a med_* ULID for catalog items.
func NewMedia() string {
	return New(PrefixMedia)
}

// NewUpload returns an upl_* ULID for chunked upload sessions.
func NewUpload() string {
	return New(PrefixUpload)
}

// IsValid reports whether the string is a ULID carrying the given prefix.
func IsValid(prefix, value string) bool {
	if !strings.HasPrefix(value, prefix) {
		return false
	}
	_, err := Parse(prefix, value)
	return err == nil
}

// Parse strips the prefix and returns the ULID.
func Parse(prefix, value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, prefix)
	return ulid.Parse(value)
}
