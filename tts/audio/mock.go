package audio

import (
	"sync"
	"time"

	"github.com/dgnsrekt/narrate/tts"
)

// MockPlayer implements Player without a device. Playback lasts for the
// buffer's duration scaled by Speed, or until Stop.
type MockPlayer struct {
	format Format

	mu      sync.Mutex
	speed   float64
	playErr error
	played  [][]byte
	volumes []float64
	stops   int
	stop    chan struct{}
	closed  bool
}

// NewMockPlayer creates a mock player for format. speed scales playback
// time; 0 finishes every buffer immediately.
func NewMockPlayer(format Format, speed float64) *MockPlayer {
	return &MockPlayer{format: format, speed: speed}
}

// Play implements Player.
func (m *MockPlayer) Play(pcm []byte, volume float64) (<-chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, tts.ErrPlayerClosed
	}
	if m.playErr != nil {
		return nil, m.playErr
	}
	m.stopLocked()

	m.played = append(m.played, pcm)
	m.volumes = append(m.volumes, volume)

	done := make(chan struct{})
	if m.speed <= 0 {
		close(done)
		return done, nil
	}

	stop := make(chan struct{})
	m.stop = stop
	d := time.Duration(float64(m.format.Duration(len(pcm))) * m.speed)
	go func() {
		defer close(done)
		select {
		case <-stop:
		case <-time.After(d):
		}
	}()
	return done, nil
}

// Stop implements Player.
func (m *MockPlayer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	return nil
}

func (m *MockPlayer) stopLocked() {
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
		m.stops++
	}
}

// Close implements Player.
func (m *MockPlayer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	m.closed = true
	return nil
}

// SetPlayError makes Play fail with err.
func (m *MockPlayer) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// Played returns every buffer passed to Play.
func (m *MockPlayer) Played() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.played...)
}

// Volumes returns the volume of every Play call.
func (m *MockPlayer) Volumes() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.volumes...)
}

// Stops returns how many playbacks were interrupted.
func (m *MockPlayer) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}
