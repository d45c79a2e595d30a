package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// LoadSound reads a sound file, decoding by extension. All formats are
// reduced to mono 16-bit at the file's native rate; the mixer resamples at
// playback time.
func LoadSound(path string) (*Sound, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sound %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(name, f)
	case ".mp3":
		return decodeMP3(name, f)
	case ".ogg":
		return decodeOGG(name, f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

func decodeWAV(name string, f *os.File) (*Sound, error) {
	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", name, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}

	mono, err := monoFromBuffer(buf, int(d.BitDepth))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return NewSound(name, buf.Format.SampleRate, mono), nil
}

// monoFromBuffer reduces a decoded PCM buffer to mono 16-bit, trusting the
// buffer's own bit depth over the decoder header when it is set.
func monoFromBuffer(buf *gaudio.IntBuffer, fallbackDepth int) ([]int16, error) {
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = fallbackDepth
	}
	return monoFromInts(buf.Data, buf.Format.NumChannels, depth)
}

// monoFromInts rescales arbitrary-depth PCM to 16 bits and averages the
// channels of each frame.
func monoFromInts(data []int, channels, bitDepth int) ([]int16, error) {
	frames := len(data) / channels
	mono := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			v := data[i*channels+c]
			switch bitDepth {
			case 8:
				// 8-bit WAV is unsigned
				v = (v - 128) << 8
			case 16:
			case 24:
				v >>= 8
			case 32:
				v >>= 16
			default:
				return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, bitDepth)
			}
			sum += v
		}
		mono[i] = int16(sum / channels)
	}
	return mono, nil
}

func decodeMP3(name string, f *os.File) (*Sound, error) {
	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decode mp3 %s: %w", name, err)
	}

	// go-mp3 always emits 16-bit LE stereo
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("decode mp3 %s: %w", name, err)
	}

	frames := len(raw) / 4
	mono := make([]int16, frames)
	for i := 0; i < frames; i++ {
		l := int16(uint16(raw[i*4]) | uint16(raw[i*4+1])<<8)
		r := int16(uint16(raw[i*4+2]) | uint16(raw[i*4+3])<<8)
		mono[i] = int16((int(l) + int(r)) / 2)
	}
	return NewSound(name, d.SampleRate(), mono), nil
}

func decodeOGG(name string, f *os.File) (*Sound, error) {
	samples, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("decode ogg %s: %w", name, err)
	}
	if format.Channels < 1 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}

	frames := len(samples) / format.Channels
	mono := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < format.Channels; c++ {
			sum += samples[i*format.Channels+c]
		}
		v := sum / float32(format.Channels)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		mono[i] = int16(v * 32767)
	}
	return NewSound(name, format.SampleRate, mono), nil
}
