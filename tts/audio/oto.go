package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"

	"github.com/dgnsrekt/narrate/tts"
)

// pollInterval is how often a playing buffer is checked for completion.
const pollInterval = 20 * time.Millisecond

// oto allows one context per process, so it is shared between players.
var (
	otoOnce   sync.Once
	otoCtx    *oto.Context
	otoFormat Format
	otoErr    error
)

func sharedContext(f Format) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if otoErr == nil {
			<-ready
			otoFormat = f
		}
	})
	if otoErr != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", otoErr)
	}
	if otoFormat != f {
		return nil, fmt.Errorf("%w: device already opened at %d Hz", tts.ErrInvalidAudioFormat, otoFormat.SampleRate)
	}
	return otoCtx, nil
}

// OtoPlayer plays PCM through the system audio device.
type OtoPlayer struct {
	format Format
	ctx    *oto.Context

	mu     sync.Mutex
	player *oto.Player
	data   []byte // kept alive while the device reads it
	stop   chan struct{}
	closed bool
}

// NewOtoPlayer opens the audio device for format.
func NewOtoPlayer(format Format) (*OtoPlayer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	ctx, err := sharedContext(format)
	if err != nil {
		return nil, err
	}
	return &OtoPlayer{format: format, ctx: ctx}, nil
}

// Format returns the PCM format the player expects.
func (p *OtoPlayer) Format() Format {
	return p.format
}

// Play implements Player.
func (p *OtoPlayer) Play(pcm []byte, volume float64) (<-chan struct{}, error) {
	if len(pcm) == 0 {
		return nil, errors.New("audio data is empty")
	}
	if len(pcm)%p.format.FrameSize() != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of frames", tts.ErrInvalidAudioFormat, len(pcm))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, tts.ErrPlayerClosed
	}
	p.stopLocked()

	p.data = pcm
	player := p.ctx.NewPlayer(bytes.NewReader(p.data))
	player.SetVolume(min(max(volume, 0), 1))
	player.Play()

	stop := make(chan struct{})
	done := make(chan struct{})
	p.player = player
	p.stop = stop

	go p.watch(player, stop, done)
	return done, nil
}

// watch closes done once player drains or stop is closed.
func (p *OtoPlayer) watch(player *oto.Player, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if player.IsPlaying() {
				continue
			}
			if err := player.Err(); err != nil {
				log.Warn("Audio playback failed", "err", err)
			}
			p.mu.Lock()
			if p.player == player {
				p.release()
			}
			p.mu.Unlock()
			return
		}
	}
}

// Stop implements Player.
func (p *OtoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *OtoPlayer) stopLocked() {
	if p.player == nil {
		return
	}
	p.player.Pause()
	close(p.stop)
	p.release()
}

// release closes the current oto player (lock held).
func (p *OtoPlayer) release() {
	p.player.Close() //nolint:errcheck
	p.player = nil
	p.stop = nil
	p.data = nil
}

// Close implements Player. The shared device stays open for the process.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.closed = true
	return nil
}
