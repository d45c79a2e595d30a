package core

// Built-in engine events. The set used by the engine itself is closed, but
// identities are hashed names so application events share the same space.
var (
	// EventBeginFrame opens a frame. Params: ParamFrameNumber, ParamTimeStep
	EventBeginFrame = NewStringHash("BeginFrame")

	// EventUpdate is the variable-timestep logic update. Params: ParamTimeStep
	EventUpdate = NewStringHash("Update")

	// EventPostUpdate runs after logic update. Params: ParamTimeStep
	EventPostUpdate = NewStringHash("PostUpdate")

	// EventRenderUpdate drives per-frame subsystem bookkeeping; the audio
	// subsystem advances non-sample-accurate source state from it.
	// Params: ParamTimeStep
	EventRenderUpdate = NewStringHash("RenderUpdate")

	// EventEndFrame closes a frame. Params: ParamFrameNumber
	EventEndFrame = NewStringHash("EndFrame")

	// EventSoundFinished signals a sound source reached the end of
	// non-looped playback. Params: ParamSource
	EventSoundFinished = NewStringHash("SoundFinished")
)

// Event parameter keys
var (
	ParamTimeStep    = NewStringHash("TimeStep")    // float64 seconds
	ParamFrameNumber = NewStringHash("FrameNumber") // int64
	ParamSource      = NewStringHash("Source")      // sending component
)

// EventData carries per-event parameters keyed by hashed name. Maps passed
// to SendEvent are only valid for the duration of the dispatch when they
// come from the context pool.
type EventData map[StringHash]any
