package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const defaultCompressionLevel = 3

// Manager puts the memory tier in front of the disk tier. Disk hits are
// promoted to memory; writes go to memory at once and to disk in the
// background.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache // nil when Config.Dir is empty
	cfg    Config

	writes sync.WaitGroup

	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats aggregates hits across tiers.
type ManagerStats struct {
	MemoryHits int64
	DiskHits   int64
	Misses     int64
	Promotions int64
	Memory     Stats
	Disk       Stats
}

// NewManager creates a cache manager. An empty cfg.Dir gives a memory-only
// cache.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.MemoryBytes <= 0 {
		return nil, errors.New("memory capacity must be positive")
	}

	m := &Manager{
		memory: NewMemoryCache(cfg.MemoryBytes),
		cfg:    cfg,
	}

	if cfg.Dir != "" {
		level := 0
		if cfg.Compress {
			level = cfg.CompressionLevel
			if level <= 0 {
				level = defaultCompressionLevel
			}
		}
		disk, err := NewDiskCache(cfg.Dir, cfg.DiskBytes, level)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk cache: %w", err)
		}
		m.disk = disk
		if cfg.TTL > 0 {
			if n := disk.RemoveOlderThan(time.Now().Add(-cfg.TTL)); n > 0 {
				log.Debug("Expired cached audio", "entries", n)
			}
		}
	}

	return m, nil
}

// Get checks memory, then disk.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		m.count(func(s *ManagerStats) { s.MemoryHits++ })
		return data, true
	}

	if m.disk != nil {
		if data, ok := m.disk.Get(key); ok {
			m.count(func(s *ManagerStats) {
				s.DiskHits++
				s.Promotions++
			})
			_ = m.memory.Put(key, data)
			return data, true
		}
	}

	m.count(func(s *ManagerStats) { s.Misses++ })
	return nil, false
}

// Put stores value in memory and schedules the disk write.
func (m *Manager) Put(key string, value []byte) error {
	if err := m.memory.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
		return fmt.Errorf("memory cache: %w", err)
	}

	if m.disk != nil {
		m.writes.Add(1)
		go func() {
			defer m.writes.Done()
			if err := m.disk.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
				log.Warn("Could not write cached audio", "err", err)
			}
		}()
	}
	return nil
}

// Delete removes key from both tiers.
func (m *Manager) Delete(key string) error {
	m.writes.Wait()
	err := m.memory.Delete(key)
	if m.disk != nil {
		err = errors.Join(err, m.disk.Delete(key))
	}
	return err
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	m.writes.Wait()
	var errs []error
	if err := m.memory.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("memory clear: %w", err))
	}
	if m.disk != nil {
		if err := m.disk.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("disk clear: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Prune drops entries older than the configured TTL from both tiers.
func (m *Manager) Prune() int {
	if m.cfg.TTL <= 0 {
		return 0
	}
	n := m.memory.Prune(m.cfg.TTL)
	if m.disk != nil {
		n += m.disk.RemoveOlderThan(time.Now().Add(-m.cfg.TTL))
	}
	return n
}

// Stats returns aggregated statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	stats := m.stats
	m.mu.Unlock()

	stats.Memory = m.memory.Stats()
	if m.disk != nil {
		stats.Disk = m.disk.Stats()
	}
	return stats
}

// Flush waits for pending disk writes.
func (m *Manager) Flush() {
	m.writes.Wait()
}

// Close waits for pending writes and persists the disk index.
func (m *Manager) Close() error {
	m.writes.Wait()
	if m.disk == nil {
		return nil
	}
	if err := m.disk.Close(); err != nil {
		return fmt.Errorf("failed to close disk cache: %w", err)
	}
	return nil
}

func (m *Manager) count(fn func(*ManagerStats)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.stats)
}
