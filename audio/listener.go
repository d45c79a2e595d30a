package audio

import (
	"github.com/dviglo/dviglo-go/core"
	"github.com/dviglo/dviglo-go/vmath"
)

// SoundListener is the ear 3D sources spatialize against: a position and
// an orientation given by the right and forward axes.
//
// Fields are plain because the listener is main-goroutine state: spatial
// parameters are folded into each source during Update, the mixer itself
// never reads the listener.
type SoundListener struct {
	core.Object
	Position vmath.Vec3
	Right    vmath.Vec3
	Forward  vmath.Vec3
}

// NewSoundListener creates a listener at the origin facing +Z.
func NewSoundListener(ctx *core.Context) *SoundListener {
	l := &SoundListener{
		Right:   vmath.Vec3{X: 1},
		Forward: vmath.Vec3{Z: 1},
	}
	l.Object = core.MakeObject(ctx)
	return l
}
