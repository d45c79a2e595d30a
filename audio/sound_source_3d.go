package audio

import (
	"math"

	"github.com/dviglo/dviglo-go/core"
	"github.com/dviglo/dviglo-go/vmath"
)

// Spatialization defaults
const (
	defaultNearDistance  = 0.0
	defaultFarDistance   = 100.0
	defaultRolloffFactor = 2.0
	defaultConeAngle     = 360.0
)

// SoundSource3D is a voice positioned in space. Each frame it derives the
// base source's attenuation and panning from the distance and direction to
// the listener; the mix path itself is unchanged.
type SoundSource3D struct {
	SoundSource

	pos           vmath.Vec3
	direction     vmath.Vec3 // facing for cone directivity
	nearDistance  float64
	farDistance   float64
	rolloffFactor float64
	innerAngle    float64 // full cone aperture in degrees
	outerAngle    float64
}

// NewSoundSource3D creates a spatialized voice and registers it with the
// mixer. It is omnidirectional until a cone is configured.
func NewSoundSource3D(ctx *core.Context, a *Audio) *SoundSource3D {
	s := &SoundSource3D{
		nearDistance:  defaultNearDistance,
		farDistance:   defaultFarDistance,
		rolloffFactor: defaultRolloffFactor,
		innerAngle:    defaultConeAngle,
		outerAngle:    defaultConeAngle,
		direction:     vmath.Vec3{Z: 1},
	}
	s.SoundSource = SoundSource{
		audio:       a,
		soundType:   SoundEffect,
		gain:        1.0,
		attenuation: 1.0,
	}
	s.Object = core.MakeObject(ctx)
	s.preUpdate = s.updateSpatializationLocked
	a.AddSoundSource(&s.SoundSource)
	return s
}

// SetPosition moves the source in world space.
func (s *SoundSource3D) SetPosition(pos vmath.Vec3) {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	s.pos = pos
}

func (s *SoundSource3D) Position() vmath.Vec3 {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	return s.pos
}

// SetDirection sets the facing used for cone directivity.
func (s *SoundSource3D) SetDirection(dir vmath.Vec3) {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	s.direction = dir
}

// SetDistanceAttenuation configures the rolloff curve: full volume inside
// nearDistance, silent beyond farDistance, curvature set by rolloffFactor.
func (s *SoundSource3D) SetDistanceAttenuation(nearDistance, farDistance, rolloffFactor float64) {
	if nearDistance < 0 {
		nearDistance = 0
	}
	if farDistance < nearDistance {
		farDistance = nearDistance
	}
	if rolloffFactor < 1 {
		rolloffFactor = 1
	}
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	s.nearDistance = nearDistance
	s.farDistance = farDistance
	s.rolloffFactor = rolloffFactor
}

// SetAngleAttenuation configures the directivity cone. Angles are the full
// aperture in degrees: full volume inside innerAngle, silent outside
// outerAngle, linear ramp between. 360 disables the cone.
func (s *SoundSource3D) SetAngleAttenuation(innerAngle, outerAngle float64) {
	innerAngle = vmath.Clamp(innerAngle, 0, defaultConeAngle)
	outerAngle = vmath.Clamp(outerAngle, innerAngle, defaultConeAngle)
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	s.innerAngle = innerAngle
	s.outerAngle = outerAngle
}

// Attenuation returns the spatial gain factor computed by the last update.
func (s *SoundSource3D) Attenuation() float64 {
	s.audio.mu.Lock()
	defer s.audio.mu.Unlock()
	return s.attenuation
}

// updateSpatializationLocked recomputes attenuation and panning from the
// listener. Runs as the base source's preUpdate hook with the audio mutex
// held on the main goroutine.
func (s *SoundSource3D) updateSpatializationLocked(_ float64) {
	l := s.audio.listenerLocked()
	if l == nil {
		// Nothing to spatialize against
		s.attenuation = 0
		s.panning = 0
		return
	}

	relative := vmath.V3Sub(s.pos, l.Position)
	distance := vmath.Clamp(vmath.V3Mag(relative), s.nearDistance, s.farDistance)

	attenuation := 1.0
	interval := s.farDistance - s.nearDistance
	if interval > 0 {
		attenuation = math.Pow(1.0-(distance-s.nearDistance)/interval, s.rolloffFactor)
	}

	if s.innerAngle < defaultConeAngle {
		toListener := vmath.V3Scale(relative, -1)
		angle := vmath.V3Angle(s.direction, toListener)
		halfInner := s.innerAngle * 0.5
		halfOuter := s.outerAngle * 0.5
		switch {
		case angle > halfOuter:
			attenuation = 0
		case angle > halfInner && halfOuter > halfInner:
			attenuation *= vmath.Lerp(1, 0, (angle-halfInner)/(halfOuter-halfInner))
		}
	}

	s.attenuation = attenuation
	s.panning = vmath.V3Dot(l.Right, vmath.V3Normalize(relative))
}
