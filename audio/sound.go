package audio

import (
	"math"

	"github.com/dviglo/dviglo-go/ref"
)

// Sound is an in-memory audio asset: mono signed 16-bit samples at a fixed
// rate. Stereo files are downmixed at load; spatialization and panning
// happen per-source at mix time, so a mono store loses nothing.
//
// Sample data is immutable after construction and may be read concurrently
// by the mixer without locking. The loop flags are load-time configuration:
// set them before the sound is handed to a playing source, they are not
// synchronized against the mixer.
type Sound struct {
	ref.RefCounted
	name       string
	data       []int16
	sampleRate int
	looped     bool
	loopStart  int
}

// NewSound wraps raw mono samples as a playable asset.
func NewSound(name string, sampleRate int, data []int16) *Sound {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &Sound{
		name:       name,
		data:       data,
		sampleRate: sampleRate,
	}
}

func (s *Sound) Name() string    { return s.name }
func (s *Sound) SampleRate() int { return s.sampleRate }
func (s *Sound) Samples() int    { return len(s.data) }

// Length returns the duration in seconds.
func (s *Sound) Length() float64 {
	return float64(len(s.data)) / float64(s.sampleRate)
}

// SetLooped makes playback wrap to the loop start instead of finishing.
// Configure before playback starts; not safe against a mixing voice.
func (s *Sound) SetLooped(looped bool) {
	s.looped = looped
}

func (s *Sound) IsLooped() bool { return s.looped }

// SetLoopStart sets the sample index playback wraps to. Out-of-range
// values are clamped. Configure before playback starts, like SetLooped.
func (s *Sound) SetLoopStart(sample int) {
	if sample < 0 {
		sample = 0
	}
	if sample >= len(s.data) {
		sample = 0
	}
	s.loopStart = sample
}

func (s *Sound) LoopStart() int { return s.loopStart }

// GenerateTone builds a sine wave asset, used by demos and tests.
func GenerateTone(name string, sampleRate int, freq float64, duration float64, amplitude float64) *Sound {
	n := int(float64(sampleRate) * duration)
	data := make([]int16, n)
	for i := range data {
		v := math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
		data[i] = int16(v * amplitude * 32767)
	}
	return NewSound(name, sampleRate, data)
}
