package audio

import (
	"github.com/dviglo/dviglo-go/core"
	"github.com/dviglo/dviglo-go/ref"
)

// SoundSource is one playing voice. It holds the playback cursor and the
// per-voice parameters (gain, panning, frequency) the mixer folds into the
// output.
//
// Thread-Safety: all mutable fields are guarded by the owning Audio's
// mutex. Public methods take the lock; methods with the Locked suffix are
// called by Audio with the lock already held, mix among them on the device
// pull goroutine.
type SoundSource struct {
	core.Object
	audio     *Audio
	soundType core.StringHash

	gain        float64
	attenuation float64
	panning     float64
	frequency   float64
	autoRemove  AutoRemoveMode

	sound        ref.Shared[*Sound]
	position     float64
	timePosition float64
	playing      bool

	// spatial hook, set by SoundSource3D to refresh attenuation and
	// panning before each update
	preUpdate func(timeStep float64)
}

// NewSoundSource creates a voice and registers it with the mixer.
func NewSoundSource(ctx *core.Context, a *Audio) *SoundSource {
	s := &SoundSource{
		audio:       a,
		soundType:   SoundEffect,
		gain:        1.0,
		attenuation: 1.0,
	}
	s.Object = core.MakeObject(ctx)
	a.AddSoundSource(s)
	return s
}

// Play starts playback of sound from the beginning, replacing whatever was
// playing. The source holds a strong reference to the sound until playback
// ends or Stop is called.
func (s *SoundSource) Play(sound *Sound) {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()

	s.sound.Reset()
	if sound == nil {
		s.playing = false
		return
	}
	s.sound = ref.NewShared(sound)
	s.position = 0
	s.timePosition = 0
	s.playing = true
}

// Stop ends playback and releases the sound. No finished event is sent for
// an explicit stop.
func (s *SoundSource) Stop() {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()

	s.sound.Reset()
	s.playing = false
	s.position = 0
	s.timePosition = 0
}

// SetSoundType assigns the mixing category used for master gain lookup and
// pause filtering.
func (s *SoundSource) SetSoundType(soundType core.StringHash) {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	s.soundType = soundType
}

func (s *SoundSource) SoundType() core.StringHash {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	return s.soundType
}

// SetGain sets the per-voice gain. Negative values clamp to zero.
func (s *SoundSource) SetGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	s.gain = gain
}

func (s *SoundSource) Gain() float64 {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	return s.gain
}

// SetPanning sets stereo position, -1 full left to 1 full right. Ignored
// by mono output.
func (s *SoundSource) SetPanning(panning float64) {
	if panning < -1 {
		panning = -1
	} else if panning > 1 {
		panning = 1
	}
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	s.panning = panning
}

func (s *SoundSource) Panning() float64 {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	return s.panning
}

// SetFrequency overrides the playback rate in Hz. Zero means play at the
// sound's native rate.
func (s *SoundSource) SetFrequency(freq float64) {
	if freq < 0 {
		freq = 0
	}
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	s.frequency = freq
}

func (s *SoundSource) Frequency() float64 {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	return s.frequency
}

// SetAutoRemoveMode controls unregistration once playback finishes.
func (s *SoundSource) SetAutoRemoveMode(mode AutoRemoveMode) {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	s.autoRemove = mode
}

func (s *SoundSource) AutoRemoveMode() AutoRemoveMode {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	return s.autoRemove
}

func (s *SoundSource) IsPlaying() bool {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	return s.playing && !s.sound.IsNull()
}

// TimePosition returns the playback position in seconds.
func (s *SoundSource) TimePosition() float64 {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	return s.timePosition
}

// SetPlayPosition seeks to a sample index in the current sound.
func (s *SoundSource) SetPlayPosition(sample int) {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()

	if s.sound.IsNull() {
		return
	}
	snd := s.sound.MustGet()
	if sample < 0 {
		sample = 0
	}
	if sample >= len(snd.data) {
		sample = 0
	}
	s.position = float64(sample)
	s.timePosition = s.position / float64(snd.sampleRate)
}

// Dispose unregisters the voice from the mixer before teardown completes,
// so a destroyed source cannot keep contributing to the mix, then releases
// the sound and detaches from the bus.
func (s *SoundSource) Dispose() {
	s.audio.RemoveSoundSource(s)
	s.audio.mu.Lock()
	s.sound.Reset()
	s.playing = false
	s.audio.mu.Unlock()
	s.Object.Dispose()
}

// updateLocked runs the per-frame bookkeeping: the spatial hook first,
// then end-of-playback detection. Returns true exactly once when playback
// has run out, so the caller can emit the finished notification.
func (s *SoundSource) updateLocked(timeStep float64) (finished bool) {
	if s.preUpdate != nil {
		s.preUpdate(timeStep)
	}
	if !s.playing && !s.sound.IsNull() {
		s.sound.Reset()
		return true
	}
	return false
}

// mixLocked adds this voice's next samples into dest, interleaved when
// stereo. samples is a frame count. Audio mutex held; runs on the device
// pull goroutine.
func (s *SoundSource) mixLocked(dest []int32, samples, mixRate int, stereo, interpolation bool) {
	if !s.playing || s.sound.IsNull() || mixRate <= 0 {
		return
	}
	if s.audio.isPausedLocked(s.soundType) {
		return
	}

	snd := s.sound.MustGet()
	data := snd.data
	if len(data) == 0 {
		s.playing = false
		return
	}

	freq := s.frequency
	if freq <= 0 {
		freq = float64(snd.sampleRate)
	}
	advance := freq / float64(mixRate)
	if advance <= 0 {
		// Cursor cannot move, nothing to contribute
		return
	}

	totalGain := s.gain * s.attenuation * s.audio.soundSourceMasterGainLocked(s.soundType)
	if totalGain <= 0 {
		s.advanceZeroVolume(snd, advance, samples)
		return
	}

	leftGain, rightGain := totalGain, totalGain
	if stereo {
		leftGain = totalGain * (1 - s.panning) * 0.5
		rightGain = totalGain * (1 + s.panning) * 0.5
	}

	pos := s.position
	for i := 0; i < samples; i++ {
		idx := int(pos)
		if idx >= len(data) {
			if !snd.looped {
				s.playing = false
				break
			}
			span := float64(len(data) - snd.loopStart)
			for pos >= float64(len(data)) {
				pos -= span
			}
			idx = int(pos)
		}

		var sample float64
		if interpolation {
			next := idx + 1
			if next >= len(data) {
				if snd.looped {
					next = snd.loopStart
				} else {
					next = idx
				}
			}
			frac := pos - float64(idx)
			sample = float64(data[idx]) + (float64(data[next])-float64(data[idx]))*frac
		} else {
			sample = float64(data[idx])
		}

		if stereo {
			dest[i*2] += int32(sample * leftGain)
			dest[i*2+1] += int32(sample * rightGain)
		} else {
			dest[i] += int32(sample * totalGain)
		}
		pos += advance
	}

	s.position = pos
	s.timePosition = pos / float64(snd.sampleRate)
}

// advanceZeroVolume moves the cursor without touching the output so a
// muted voice keeps time and still finishes.
func (s *SoundSource) advanceZeroVolume(snd *Sound, advance float64, samples int) {
	pos := s.position + advance*float64(samples)
	if pos >= float64(len(snd.data)) {
		if !snd.looped {
			s.playing = false
			pos = float64(len(snd.data))
		} else {
			span := float64(len(snd.data) - snd.loopStart)
			for pos >= float64(len(snd.data)) {
				pos -= span
			}
		}
	}
	s.position = pos
	s.timePosition = pos / float64(snd.sampleRate)
}
