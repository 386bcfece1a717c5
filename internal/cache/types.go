package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when cache data cannot be decoded
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Level represents the cache tier.
type Level int

const (
	// LevelMemory is the in-memory LRU.
	LevelMemory Level = iota
	// LevelDisk is the persistent store.
	LevelDisk
)

// String returns the string representation of the cache level
func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds cache performance metrics.
type Stats struct {
	Capacity  int64 // Maximum capacity in bytes
	Size      int64 // Current size in bytes
	Items     int64
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// String renders the stats for humans, e.g. "3 items, 1.2 MB of 64 MB".
func (s Stats) String() string {
	return fmt.Sprintf("%s items, %s of %s, %d hits, %d misses",
		humanize.Comma(s.Items),
		humanize.Bytes(uint64(max(s.Size, 0))),     //nolint:gosec
		humanize.Bytes(uint64(max(s.Capacity, 0))), //nolint:gosec
		s.Hits, s.Misses)
}

// Entry describes a cached item.
type Entry struct {
	Key        string
	Size       int64
	Created    time.Time
	LastAccess time.Time
	Hits       int64
	Level      Level
}

// Key identifies a synthesized unit. Any field change yields different audio.
type Key struct {
	Text       string
	Model      string
	Rate       float64
	SampleRate int
}

// String returns a stable hex digest of the key.
func (k Key) String() string {
	data := strings.Join([]string{
		k.Text,
		k.Model,
		fmt.Sprintf("%.3f", k.Rate),
		fmt.Sprintf("%d", k.SampleRate),
	}, "\x00")
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// Config holds configuration for a Manager.
type Config struct {
	MemoryBytes int64
	DiskBytes   int64
	Dir         string // Directory for cache files
	Compress    bool
	// CompressionLevel is a zstd level (1-22). Zero means 3.
	CompressionLevel int
	// TTL expires disk entries on open and on Prune. Zero keeps them forever.
	TTL time.Duration
}

// Cache is implemented by every cache tier.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Size() int64
	Contains(key string) bool
	Stats() Stats
}
