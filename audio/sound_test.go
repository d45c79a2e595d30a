package audio

import (
	"math"
	"testing"
)

func TestSoundProperties(t *testing.T) {
	s := NewSound("probe", 22050, make([]int16, 11025))
	if s.SampleRate() != 22050 || s.Samples() != 11025 {
		t.Errorf("Unexpected format: rate %d, samples %d", s.SampleRate(), s.Samples())
	}
	if s.Length() != 0.5 {
		t.Errorf("Expected 0.5s length, got %v", s.Length())
	}

	s.SetLoopStart(-5)
	if s.LoopStart() != 0 {
		t.Errorf("Negative loop start not clamped: %d", s.LoopStart())
	}
	s.SetLoopStart(20000)
	if s.LoopStart() != 0 {
		t.Errorf("Out-of-range loop start not clamped: %d", s.LoopStart())
	}
}

func TestGenerateTone(t *testing.T) {
	tone := GenerateTone("sine", 44100, 441, 0.1, 1.0)
	if tone.Samples() != 4410 {
		t.Fatalf("Expected 4410 samples, got %d", tone.Samples())
	}
	// 441Hz at 44100Hz has a 100-sample period starting at zero
	if tone.data[0] != 0 {
		t.Errorf("Expected zero crossing at start, got %d", tone.data[0])
	}
	if got := tone.data[25]; math.Abs(float64(got)-32767) > 1 {
		t.Errorf("Expected peak near quarter period, got %d", got)
	}
}

func TestMonoFromInts(t *testing.T) {
	tests := []struct {
		name     string
		data     []int
		channels int
		bitDepth int
		want     []int16
	}{
		{"Mono16", []int{100, -100}, 1, 16, []int16{100, -100}},
		{"Stereo16Downmix", []int{100, 300, -100, -300}, 2, 16, []int16{200, -200}},
		{"Unsigned8", []int{128, 255, 0}, 1, 8, []int16{0, 32512, -32768}},
		{"Depth24", []int{1 << 16, -(1 << 16)}, 1, 24, []int16{256, -256}},
		{"Depth32", []int{1 << 24, -(1 << 24)}, 1, 32, []int16{256, -256}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := monoFromInts(tt.data, tt.channels, tt.bitDepth)
			if err != nil {
				t.Fatalf("monoFromInts failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d frames, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Frame %d: expected %d, got %d", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestMonoFromIntsRejectsOddDepth(t *testing.T) {
	if _, err := monoFromInts([]int{1, 2}, 1, 12); err == nil {
		t.Error("Expected error for unsupported bit depth")
	}
}
