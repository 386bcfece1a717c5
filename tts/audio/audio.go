// Package audio plays raw PCM produced by speech engines.
package audio

import (
	"fmt"
	"time"

	"github.com/dgnsrekt/narrate/tts"
)

// Format describes signed little-endian PCM.
type Format struct {
	SampleRate int // Hz
	Channels   int // 1 = mono, 2 = stereo
	BitDepth   int // only 16 is supported
}

// MonoFormat returns 16-bit mono PCM at the given rate, which is what Piper
// emits with --output-raw.
func MonoFormat(sampleRate int) Format {
	return Format{SampleRate: sampleRate, Channels: 1, BitDepth: 16}
}

// Validate checks the format is playable.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", tts.ErrInvalidAudioFormat, f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("%w: channels must be 1 (mono) or 2 (stereo), got %d", tts.ErrInvalidAudioFormat, f.Channels)
	}
	if f.BitDepth != 16 {
		return fmt.Errorf("%w: bit depth must be 16, got %d", tts.ErrInvalidAudioFormat, f.BitDepth)
	}
	return nil
}

// FrameSize returns the bytes per sample frame.
func (f Format) FrameSize() int {
	return f.Channels * f.BitDepth / 8
}

// Duration returns how long n bytes of PCM play for.
func (f Format) Duration(n int) time.Duration {
	frame := f.FrameSize()
	if frame == 0 || f.SampleRate == 0 {
		return 0
	}
	return time.Duration(n/frame) * time.Second / time.Duration(f.SampleRate)
}

// Offset returns the byte offset of d into a stream, aligned to a frame.
func (f Format) Offset(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	frames := int(d * time.Duration(f.SampleRate) / time.Second)
	return frames * f.FrameSize()
}

// Player plays one buffer at a time.
type Player interface {
	// Play starts pcm at volume (0..1), replacing anything already playing.
	// The returned channel is closed when playback ends or is stopped.
	Play(pcm []byte, volume float64) (<-chan struct{}, error)
	// Stop ends the current playback. It is a no-op when idle.
	Stop() error
	// Close stops playback and releases the device.
	Close() error
}
