package audio

import (
	"encoding/binary"
	"errors"
	"io"
)

// mockDevice stands in for the platform backend. pull drives the stream
// the way the real device's callback goroutine would.
type mockDevice struct {
	monoOnly bool
	spec     DeviceSpec
	stream   io.Reader
	started  int
	stopped  int
	closed   int
}

func (d *mockDevice) Open(spec DeviceSpec, stream io.Reader) (DeviceSpec, error) {
	if d.monoOnly {
		spec.Stereo = false
	}
	d.spec = spec
	d.stream = stream
	return spec, nil
}

func (d *mockDevice) Start()       { d.started++ }
func (d *mockDevice) Stop()        { d.stopped++ }
func (d *mockDevice) Close() error { d.closed++; return nil }

// pull reads frames from the mix stream and decodes them to samples.
func (d *mockDevice) pull(frames int) []int16 {
	raw := make([]byte, frames*2*d.spec.channels())
	read := 0
	for read < len(raw) {
		n, err := d.stream.Read(raw[read:])
		if err != nil || n == 0 {
			break
		}
		read += n
	}

	out := make([]int16, read/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return out
}

// failDevice refuses to open
type failDevice struct{}

func (failDevice) Open(DeviceSpec, io.Reader) (DeviceSpec, error) {
	return DeviceSpec{}, errors.New("device unavailable")
}
func (failDevice) Start()       {}
func (failDevice) Stop()        {}
func (failDevice) Close() error { return nil }

// constantSound builds a DC asset, which makes mix math exact in tests
func constantSound(samples int, value int16, sampleRate int) *Sound {
	data := make([]int16, samples)
	for i := range data {
		data[i] = value
	}
	return NewSound("constant", sampleRate, data)
}
