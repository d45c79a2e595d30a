package audio

import (
	"testing"

	"github.com/dviglo/dviglo-go/core"
)

// newTestAudio wires the subsystem to a mock device at the given rate with
// interpolation off, so sample values are exact.
func newTestAudio(t *testing.T, dev *mockDevice, mixRate int, stereo bool) (*core.Context, *Audio) {
	t.Helper()
	ctx := core.NewContext(nil)
	a := NewAudio(ctx, dev)
	if err := a.SetMode(100, mixRate, stereo, false); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	if err := a.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	return ctx, a
}

func TestSetModeClamping(t *testing.T) {
	tests := []struct {
		name        string
		mixRate     int
		wantMixRate int
	}{
		{"BelowMinimum", 8000, minMixRate},
		{"AboveMaximum", 96000, maxMixRate},
		{"InRange", 22050, 22050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := core.NewContext(nil)
			a := NewAudio(ctx, &mockDevice{})
			if err := a.SetMode(5, tt.mixRate, true, true); err != nil {
				t.Fatalf("SetMode failed: %v", err)
			}
			spec := a.Spec()
			if spec.MixRate != tt.wantMixRate {
				t.Errorf("Expected mix rate %d, got %d", tt.wantMixRate, spec.MixRate)
			}
			// 5ms request must be raised to the floor and rounded up
			minSamples := tt.wantMixRate * minBufferLengthMS / 1000
			if spec.FragmentSamples < minSamples {
				t.Errorf("Fragment %d below %dms floor", spec.FragmentSamples, minBufferLengthMS)
			}
			if spec.FragmentSamples&(spec.FragmentSamples-1) != 0 {
				t.Errorf("Fragment %d not a power of two", spec.FragmentSamples)
			}
		})
	}
}

func TestPlayWithoutMode(t *testing.T) {
	ctx := core.NewContext(nil)
	a := NewAudio(ctx, &mockDevice{})
	if err := a.Play(); err != ErrNotInitialized {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}

func TestSetModeDeviceFailure(t *testing.T) {
	ctx := core.NewContext(nil)
	a := NewAudio(ctx, failDevice{})
	if err := a.SetMode(100, 44100, true, true); err == nil {
		t.Fatal("Expected error from failing device")
	}
	if a.IsInitialized() {
		t.Error("Subsystem initialized despite device failure")
	}
}

// TestMonoFallback covers a device that cannot do stereo: the negotiated
// spec wins and panning has no effect on the mix.
func TestMonoFallback(t *testing.T) {
	dev := &mockDevice{monoOnly: true}
	ctx, a := newTestAudio(t, dev, 44100, true)

	if a.Spec().Stereo {
		t.Fatal("Expected negotiated mono spec")
	}

	s := NewSoundSource(ctx, a)
	s.SetPanning(1.0)
	s.Play(constantSound(44100, 1000, 44100))

	out := dev.pull(64)
	if len(out) != 64 {
		t.Fatalf("Expected 64 mono samples, got %d", len(out))
	}
	for i, v := range out {
		if v != 1000 {
			t.Fatalf("Sample %d: expected panning-free 1000, got %d", i, v)
		}
	}
}

func TestMixAdditiveWithClamp(t *testing.T) {
	dev := &mockDevice{monoOnly: true}
	ctx, a := newTestAudio(t, dev, 44100, false)

	s1 := NewSoundSource(ctx, a)
	s1.Play(constantSound(44100, 1000, 44100))
	s2 := NewSoundSource(ctx, a)
	s2.Play(constantSound(44100, 2000, 44100))

	out := dev.pull(16)
	for i, v := range out {
		if v != 3000 {
			t.Fatalf("Sample %d: expected additive 3000, got %d", i, v)
		}
	}

	// Push the sum past int16 range, output must clamp
	s3 := NewSoundSource(ctx, a)
	s3.Play(constantSound(44100, 32000, 44100))
	out = dev.pull(16)
	for i, v := range out {
		if v != 32767 {
			t.Fatalf("Sample %d: expected clamp to 32767, got %d", i, v)
		}
	}
}

func TestStereoPanning(t *testing.T) {
	dev := &mockDevice{}
	ctx, a := newTestAudio(t, dev, 44100, true)

	s := NewSoundSource(ctx, a)
	s.SetPanning(1.0) // full right
	s.Play(constantSound(44100, 1000, 44100))

	out := dev.pull(8)
	for i := 0; i < len(out); i += 2 {
		if out[i] != 0 {
			t.Fatalf("Left sample %d: expected 0 at full right pan, got %d", i, out[i])
		}
		if out[i+1] != 1000 {
			t.Fatalf("Right sample %d: expected 1000, got %d", i, out[i+1])
		}
	}

	s.SetPanning(0)
	out = dev.pull(8)
	for i := 0; i < len(out); i += 2 {
		if out[i] != 500 || out[i+1] != 500 {
			t.Fatalf("Center pan: expected 500/500, got %d/%d", out[i], out[i+1])
		}
	}
}

func TestMasterGainComposition(t *testing.T) {
	dev := &mockDevice{monoOnly: true}
	ctx, a := newTestAudio(t, dev, 44100, false)

	s := NewSoundSource(ctx, a)
	s.SetSoundType(SoundEffect)
	s.Play(constantSound(44100, 10000, 44100))

	a.SetMasterGain(SoundMaster, 0.5)
	a.SetMasterGain(SoundEffect, 0.5)

	if g := a.SoundSourceMasterGain(SoundEffect); g != 0.25 {
		t.Errorf("Expected composite gain 0.25, got %v", g)
	}
	out := dev.pull(8)
	for i, v := range out {
		if v != 2500 {
			t.Fatalf("Sample %d: expected 10000*0.25, got %d", i, v)
		}
	}

	// A category never configured mixes at master gain alone
	unknown := core.NewStringHash("Narration")
	if g := a.SoundSourceMasterGain(unknown); g != 0.5 {
		t.Errorf("Expected unknown category gain 0.5, got %v", g)
	}
}

// TestPauseResumeCategory covers the pause scenario: a paused category
// contributes silence, holds its position, and resumes where it stopped.
func TestPauseResumeCategory(t *testing.T) {
	dev := &mockDevice{monoOnly: true}
	ctx, a := newTestAudio(t, dev, 44100, false)

	sfx := core.NewStringHash("sfx")
	s := NewSoundSource(ctx, a)
	s.SetSoundType(sfx)
	snd := constantSound(44100, 1000, 44100)
	snd.SetLooped(true)
	s.Play(snd)

	other := NewSoundSource(ctx, a)
	other.Play(constantSound(44100, 200, 44100))

	dev.pull(32)
	posBefore := s.TimePosition()

	a.PauseSoundType(sfx)
	out := dev.pull(32)
	for i, v := range out {
		if v != 200 {
			t.Fatalf("Sample %d: expected only unpaused source (200), got %d", i, v)
		}
	}
	if s.TimePosition() != posBefore {
		t.Error("Paused source advanced")
	}
	a.Update(0.016)
	if !s.IsPlaying() {
		t.Error("Paused source was reaped by update")
	}

	a.ResumeSoundType(sfx)
	out = dev.pull(32)
	for i, v := range out {
		if v != 1200 {
			t.Fatalf("Sample %d after resume: expected 1200, got %d", i, v)
		}
	}
}

func TestStoppedOutputIsSilence(t *testing.T) {
	dev := &mockDevice{monoOnly: true}
	ctx, a := newTestAudio(t, dev, 44100, false)

	s := NewSoundSource(ctx, a)
	snd := constantSound(44100, 1000, 44100)
	snd.SetLooped(true)
	s.Play(snd)

	a.Stop()
	for i, v := range dev.pull(32) {
		if v != 0 {
			t.Fatalf("Sample %d: expected silence while stopped, got %d", i, v)
		}
	}
	pos := s.TimePosition()

	if err := a.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	dev.pull(32)
	if s.TimePosition() <= pos {
		t.Error("Source did not resume after Play")
	}
}

// TestToneContinuity covers the looping tone scenario: a sine at gain 0.5
// must come out sample-exact across fragment boundaries and the loop seam.
func TestToneContinuity(t *testing.T) {
	dev := &mockDevice{monoOnly: true}
	ctx, a := newTestAudio(t, dev, 44100, false)

	tone := GenerateTone("tone", 44100, 440, 0.01, 1.0) // 441 samples
	tone.SetLooped(true)

	s := NewSoundSource(ctx, a)
	s.SetGain(0.5)
	s.Play(tone)

	frag := a.Spec().FragmentSamples
	total := frag*2 + frag/2 // spans two fragment boundaries
	out := dev.pull(total)
	if len(out) != total {
		t.Fatalf("Expected %d samples, got %d", total, len(out))
	}

	for i, v := range out {
		want := int16(int32(float64(tone.data[i%tone.Samples()]) * 0.5))
		if v != want {
			t.Fatalf("Sample %d: expected %d, got %d", i, want, v)
		}
	}
}

func TestRenderUpdateDrivesUpdate(t *testing.T) {
	dev := &mockDevice{monoOnly: true}
	ctx, a := newTestAudio(t, dev, 44100, false)

	s := NewSoundSource(ctx, a)
	s.Play(constantSound(10, 1000, 44100))
	dev.pull(64) // exhausts the sound

	var finished bool
	probe := &testListener{Object: core.MakeObject(ctx)}
	probe.SubscribeToEvent(core.EventSoundFinished, func(_ core.StringHash, data core.EventData) {
		finished = data[core.ParamSource] == s
	})

	data := ctx.EventDataMap()
	data[core.ParamTimeStep] = 0.016
	ctx.SendBroadcast(core.EventRenderUpdate, data)

	if !finished {
		t.Error("RenderUpdate did not emit the finished notification")
	}
}

// testListener is a bare bus participant for event assertions
type testListener struct {
	core.Object
}
