package audio

import (
	"errors"

	"github.com/dviglo/dviglo-go/core"
)

// Built-in sound type categories. Categories are open-ended: any
// StringHash can be used as a sound type, these are the conventional ones.
var (
	SoundMaster = core.NewStringHash("Master")
	SoundEffect = core.NewStringHash("Effect")
	SoundMusic  = core.NewStringHash("Music")
	SoundVoice  = core.NewStringHash("Voice")
)

// Mixing constraints
const (
	// Shortest allowed output buffer. Anything below this underruns on
	// common hardware.
	minBufferLengthMS = 20

	minMixRate = 11025
	maxMixRate = 48000
)

// AutoRemoveMode controls what happens to a source once playback finishes
type AutoRemoveMode int

const (
	AutoRemoveDisabled AutoRemoveMode = iota
	AutoRemoveSource
)

// Sentinel errors
var (
	ErrDeviceOpen        = errors.New("audio device could not be opened")
	ErrNotInitialized    = errors.New("audio output not initialized")
	ErrUnknownFormat     = errors.New("unknown sound file format")
	ErrUnsupportedFormat = errors.New("unsupported sound data layout")
)
