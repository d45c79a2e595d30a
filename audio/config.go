package audio

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"

	"github.com/dviglo/dviglo-go/core"
)

// Options is the audio configuration block, loadable from TOML:
//
//	buffer_ms = 100
//	mix_rate = 44100
//	stereo = true
//	interpolation = true
//	master_gain = 1.0
//
//	[category_gain]
//	effect = 0.8
//	music = 0.5
type Options struct {
	BufferLengthMS int                `toml:"buffer_ms"`
	MixRate        int                `toml:"mix_rate"`
	Stereo         bool               `toml:"stereo"`
	Interpolation  bool               `toml:"interpolation"`
	MasterGain     float64            `toml:"master_gain"`
	CategoryGain   map[string]float64 `toml:"category_gain"`
}

// DefaultOptions returns the configuration used when no file is present.
func DefaultOptions() Options {
	return Options{
		BufferLengthMS: 100,
		MixRate:        44100,
		Stereo:         true,
		Interpolation:  true,
		MasterGain:     1.0,
	}
}

// LoadOptions reads TOML options from path, falling back to defaults when
// the file does not exist. Unknown keys are an error to catch typos.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	meta, err := toml.DecodeFile(path, &opts)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultOptions(), nil
		}
		return DefaultOptions(), fmt.Errorf("load audio options %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return DefaultOptions(), fmt.Errorf("load audio options %s: unknown key %q", path, undecoded[0].String())
	}
	return opts, nil
}

// Apply configures the subsystem from the options: output mode first, then
// the master and per-category gains.
func (o Options) Apply(a *Audio) error {
	if err := a.SetMode(o.BufferLengthMS, o.MixRate, o.Stereo, o.Interpolation); err != nil {
		return err
	}
	a.SetMasterGain(SoundMaster, o.MasterGain)
	// Case folding in the hash makes "music" and "Music" one category
	for name, gain := range o.CategoryGain {
		a.SetMasterGain(core.NewStringHash(name), gain)
	}
	return nil
}
