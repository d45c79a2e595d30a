package audio

import (
	"encoding/binary"
	"math/bits"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dviglo/dviglo-go/core"
	"github.com/dviglo/dviglo-go/ref"
)

// Audio is the mixing subsystem. It owns the registered sound sources,
// the per-category master gains and the output device, and runs the
// additive mix on the device's pull goroutine.
//
// Thread-Safety:
//   - mu guards sources, listener, gains, pause set and the clip buffer
//   - the mix path locks per fragment, never for a whole device pull, so
//     the main goroutine is not starved by large reads
//   - playing is atomic so Play/Stop need no lock
type Audio struct {
	core.Object
	log *zap.Logger

	mu          sync.Mutex
	sources     []*SoundSource
	listener    ref.Weak[*SoundListener]
	masterGain  map[core.StringHash]float64
	pausedTypes map[core.StringHash]struct{}

	spec          DeviceSpec
	interpolation bool
	clipBuffer    []int32
	device        Device
	initialized   bool

	playing atomic.Bool
}

// NewAudio creates the subsystem against an output device backend and
// hooks it to the frame loop. No output happens until SetMode and Play.
func NewAudio(ctx *core.Context, dev Device) *Audio {
	a := &Audio{
		log:         ctx.Logger().Named("audio"),
		device:      dev,
		masterGain:  make(map[core.StringHash]float64),
		pausedTypes: make(map[core.StringHash]struct{}),
	}
	a.Object = core.MakeObject(ctx)
	a.SubscribeToEvent(core.EventRenderUpdate, a.handleRenderUpdate)
	return a
}

// SetMode (re)configures output: buffer length in milliseconds, mix rate
// in Hz, stereo and interpolation flags. Out-of-range values are clamped,
// the fragment size is rounded up to a power of two, and the device may
// further adjust the format; the spec actually in effect is the one
// reported by Spec.
func (a *Audio) SetMode(bufferLengthMS, mixRate int, stereo, interpolation bool) error {
	if bufferLengthMS < minBufferLengthMS {
		bufferLengthMS = minBufferLengthMS
	}
	if mixRate < minMixRate {
		mixRate = minMixRate
	} else if mixRate > maxMixRate {
		mixRate = maxMixRate
	}

	// Flip initialized under a short lock, then do device I/O unlocked:
	// the device pull goroutine takes its own lock around reads that end
	// up in MixOutput, so holding mu across Stop/Close inverts the order
	a.mu.Lock()
	wasInitialized := a.initialized
	a.initialized = false
	a.mu.Unlock()
	if wasInitialized {
		a.device.Stop()
		a.device.Close()
	}

	request := DeviceSpec{
		MixRate:         mixRate,
		Stereo:          stereo,
		FragmentSamples: nextPowerOfTwo(mixRate * bufferLengthMS / 1000),
	}

	negotiated, err := a.device.Open(request, &mixStream{audio: a})
	if err != nil {
		a.log.Error("Failed to open audio output", zap.Error(err))
		return err
	}

	a.mu.Lock()
	a.spec = negotiated
	a.interpolation = interpolation
	a.clipBuffer = make([]int32, negotiated.FragmentSamples*negotiated.channels())
	a.initialized = true
	a.mu.Unlock()

	a.log.Info("Set audio mode",
		zap.Int("mixRate", negotiated.MixRate),
		zap.Bool("stereo", negotiated.Stereo),
		zap.Int("fragmentSamples", negotiated.FragmentSamples),
		zap.Bool("interpolation", interpolation))

	if a.playing.Load() {
		a.device.Start()
	}
	return nil
}

// Spec returns the output format currently in effect.
func (a *Audio) Spec() DeviceSpec {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spec
}

// Play starts mixing. Fails if SetMode has not succeeded.
func (a *Audio) Play() error {
	a.mu.Lock()
	ok := a.initialized
	a.mu.Unlock()
	if !ok {
		a.log.Error("No audio mode set, cannot start playback")
		return ErrNotInitialized
	}
	a.playing.Store(true)
	// Catch-up pass so 3D gains are current before the first fragment
	a.Update(0)
	a.device.Start()
	return nil
}

// Stop halts mixing. Sources keep their positions; Play resumes them.
func (a *Audio) Stop() {
	a.playing.Store(false)
	a.device.Stop()
}

func (a *Audio) IsPlaying() bool {
	return a.playing.Load()
}

func (a *Audio) IsInitialized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initialized
}

// Release shuts the device down. The subsystem can be reconfigured with
// SetMode afterwards. Device I/O happens outside the mutex, same as
// SetMode.
func (a *Audio) Release() {
	a.Stop()
	a.mu.Lock()
	wasInitialized := a.initialized
	a.initialized = false
	a.clipBuffer = nil
	a.mu.Unlock()
	if wasInitialized {
		a.device.Close()
	}
}

// SetMasterGain sets the gain for one category. Negative values clamp to
// zero; values above one are allowed for boost.
func (a *Audio) SetMasterGain(soundType core.StringHash, gain float64) {
	if gain < 0 {
		gain = 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.masterGain[soundType] = gain
}

// MasterGain returns the gain for one category, 1.0 if never set.
func (a *Audio) MasterGain(soundType core.StringHash) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.masterGainLocked(soundType)
}

// SoundSourceMasterGain returns the composite gain a source of the given
// category mixes with: master category gain times its own category gain.
func (a *Audio) SoundSourceMasterGain(soundType core.StringHash) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.soundSourceMasterGainLocked(soundType)
}

func (a *Audio) masterGainLocked(soundType core.StringHash) float64 {
	if gain, ok := a.masterGain[soundType]; ok {
		return gain
	}
	return 1.0
}

func (a *Audio) soundSourceMasterGainLocked(soundType core.StringHash) float64 {
	return a.masterGainLocked(SoundMaster) * a.masterGainLocked(soundType)
}

// PauseSoundType silences a category: its sources neither contribute to
// the mix nor advance.
func (a *Audio) PauseSoundType(soundType core.StringHash) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pausedTypes[soundType] = struct{}{}
}

// ResumeSoundType lets a paused category play again from where it
// stopped, with a catch-up pass so stale spatial gains do not leak into
// the first resumed fragment.
func (a *Audio) ResumeSoundType(soundType core.StringHash) {
	a.mu.Lock()
	delete(a.pausedTypes, soundType)
	a.mu.Unlock()
	a.Update(0)
}

// ResumeAll clears every category pause.
func (a *Audio) ResumeAll() {
	a.mu.Lock()
	clear(a.pausedTypes)
	a.mu.Unlock()
	a.Update(0)
}

func (a *Audio) IsSoundTypePaused(soundType core.StringHash) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isPausedLocked(soundType)
}

func (a *Audio) isPausedLocked(soundType core.StringHash) bool {
	_, paused := a.pausedTypes[soundType]
	return paused
}

// SetListener assigns the listener used for spatialization. Held weakly:
// a destroyed listener silences 3D sources instead of dangling.
func (a *Audio) SetListener(l *SoundListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener.Reset()
	if l != nil {
		a.listener = ref.NewWeak(l)
	}
}

// Listener returns the current listener, or nil if unset or destroyed.
func (a *Audio) Listener() *SoundListener {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listenerLocked()
}

// listenerLocked reads the weak listener without taking ownership. Safe
// because listener destruction happens on the main goroutine, which is
// also the only caller.
func (a *Audio) listenerLocked() *SoundListener {
	return a.listener.Get()
}

// AddSoundSource registers a voice with the mixer.
func (a *Audio) AddSoundSource(s *SoundSource) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sources = append(a.sources, s)
}

// RemoveSoundSource unregisters a voice. Safe to call for a voice that was
// already auto-removed.
func (a *Audio) RemoveSoundSource(s *SoundSource) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.removeSoundSourceLocked(s)
}

func (a *Audio) removeSoundSourceLocked(s *SoundSource) {
	for i, candidate := range a.sources {
		if candidate == s {
			a.sources = append(a.sources[:i], a.sources[i+1:]...)
			return
		}
	}
}

// SoundSources returns a snapshot of the registered voices.
func (a *Audio) SoundSources() []*SoundSource {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*SoundSource, len(a.sources))
	copy(out, a.sources)
	return out
}

func (a *Audio) handleRenderUpdate(_ core.StringHash, data core.EventData) {
	timeStep, _ := data[core.ParamTimeStep].(float64)
	a.Update(timeStep)
}

// Update advances non-sample-accurate source state: spatialization
// parameters and end-of-playback detection. Runs on the main goroutine.
// Finished notifications are emitted after the mutex is released so
// handlers may freely call back into the subsystem.
func (a *Audio) Update(timeStep float64) {
	var finished []*SoundSource

	a.mu.Lock()
	// Reverse order so auto-removal cannot skip the next voice
	for i := len(a.sources) - 1; i >= 0; i-- {
		s := a.sources[i]
		if a.isPausedLocked(s.soundType) {
			continue
		}
		if s.updateLocked(timeStep) {
			finished = append(finished, s)
			if s.autoRemove == AutoRemoveSource {
				a.removeSoundSourceLocked(s)
			}
		}
	}
	a.mu.Unlock()

	for _, s := range finished {
		data := s.Context().EventDataMap()
		data[core.ParamSource] = s
		s.SendEvent(core.EventSoundFinished, data)
	}
}

// MixOutput renders interleaved signed 16-bit samples into dest, additive
// over all playing voices with clamping. Fragment-sized chunks keep each
// lock hold bounded. Silence when stopped or uninitialized.
func (a *Audio) MixOutput(dest []int16) {
	a.mu.Lock()
	if !a.initialized {
		a.mu.Unlock()
		for i := range dest {
			dest[i] = 0
		}
		return
	}
	spec := a.spec
	interp := a.interpolation
	a.mu.Unlock()

	channels := spec.channels()
	frames := len(dest) / channels
	offset := 0

	for frames > 0 {
		work := frames
		if work > spec.FragmentSamples {
			work = spec.FragmentSamples
		}
		n := work * channels

		a.mu.Lock()
		// Recheck: a concurrent Release or SetMode may have torn down or
		// resized the clip buffer between chunks
		if !a.initialized || n > len(a.clipBuffer) {
			a.mu.Unlock()
			for i := offset; i < len(dest); i++ {
				dest[i] = 0
			}
			return
		}
		clip := a.clipBuffer[:n]
		for i := range clip {
			clip[i] = 0
		}
		if a.playing.Load() {
			for _, s := range a.sources {
				s.mixLocked(clip, work, spec.MixRate, spec.Stereo, interp)
			}
		}
		for i, v := range clip {
			if v > 32767 {
				v = 32767
			} else if v < -32768 {
				v = -32768
			}
			dest[offset+i] = int16(v)
		}
		a.mu.Unlock()

		offset += n
		frames -= work
	}
}

// mixStream adapts MixOutput to the pull reader the device consumes.
type mixStream struct {
	audio   *Audio
	scratch []int16
}

func (m *mixStream) Read(p []byte) (int, error) {
	frameBytes := 2 * m.audio.Spec().channels()
	usable := len(p) - len(p)%frameBytes
	samples := usable / 2
	if samples == 0 {
		return 0, nil
	}

	if cap(m.scratch) < samples {
		m.scratch = make([]int16, samples)
	}
	buf := m.scratch[:samples]
	m.audio.MixOutput(buf)

	for i, v := range buf {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(v))
	}
	return samples * 2, nil
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
