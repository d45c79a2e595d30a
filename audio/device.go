package audio

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
)

// DeviceSpec describes an output format request or negotiation result.
// FragmentSamples is in frames, not interleaved samples.
type DeviceSpec struct {
	MixRate         int
	Stereo          bool
	FragmentSamples int
}

func (s DeviceSpec) channels() int {
	if s.Stereo {
		return 2
	}
	return 1
}

// Device is the platform playback backend. Open hands the device a pull
// stream of interleaved signed 16-bit little-endian PCM and returns the
// spec the device actually accepted, which may differ from the request.
type Device interface {
	Open(spec DeviceSpec, stream io.Reader) (DeviceSpec, error)
	Start()
	Stop()
	Close() error
}

// otoDevice plays through the operating system mixer via oto. The oto
// player pulls from the stream on its own goroutine; that goroutine is the
// audio thread the mixer synchronizes against.
type otoDevice struct {
	ctx    *oto.Context
	player *oto.Player
}

// NewDevice returns the default output device backend.
func NewDevice() Device {
	return &otoDevice{}
}

func (d *otoDevice) Open(spec DeviceSpec, stream io.Reader) (DeviceSpec, error) {
	op := &oto.NewContextOptions{
		SampleRate:   spec.MixRate,
		ChannelCount: spec.channels(),
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(spec.FragmentSamples) * time.Second / time.Duration(spec.MixRate),
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return DeviceSpec{}, fmt.Errorf("%w: %v", ErrDeviceOpen, err)
	}
	<-ready

	d.ctx = ctx
	d.player = ctx.NewPlayer(stream)
	return spec, nil
}

func (d *otoDevice) Start() {
	if d.player != nil && !d.player.IsPlaying() {
		d.player.Play()
	}
}

func (d *otoDevice) Stop() {
	if d.player != nil && d.player.IsPlaying() {
		d.player.Pause()
	}
}

func (d *otoDevice) Close() error {
	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	return err
}
