// Command audiodemo plays a tone orbiting the listener, exercising the
// mixer, spatialization and the frame event loop end to end.
package main

import (
	"flag"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dviglo/dviglo-go/audio"
	"github.com/dviglo/dviglo-go/core"
	"github.com/dviglo/dviglo-go/vmath"
)

var (
	configPath = flag.String("config", "audio.toml", "Audio options file")
	soundPath  = flag.String("sound", "", "Sound file to orbit (wav/mp3/ogg), default generated tone")
	duration   = flag.Duration("duration", 10*time.Second, "Playback duration")
	radius     = flag.Float64("radius", 20.0, "Orbit radius")
)

func main() {
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := core.NewContext(log)

	opts, err := audio.LoadOptions(*configPath)
	if err != nil {
		log.Fatal("Bad audio options", zap.Error(err))
	}

	a := audio.NewAudio(ctx, audio.NewDevice())
	if err := opts.Apply(a); err != nil {
		log.Fatal("Audio output unavailable", zap.Error(err))
	}
	defer a.Release()

	var snd *audio.Sound
	if *soundPath != "" {
		snd, err = audio.LoadSound(*soundPath)
		if err != nil {
			log.Fatal("Failed to load sound", zap.Error(err))
		}
	} else {
		snd = audio.GenerateTone("demo-tone", opts.MixRate, 440, 1.0, 0.4)
	}
	snd.SetLooped(true)

	listener := audio.NewSoundListener(ctx)
	a.SetListener(listener)

	source := audio.NewSoundSource3D(ctx, a)
	source.SetDistanceAttenuation(1, *radius*2, 2)
	source.Play(snd)

	if err := a.Play(); err != nil {
		log.Fatal("Playback failed", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Info("Orbiting", zap.String("sound", snd.Name()), zap.Duration("for", *duration))

	const frameTime = 16 * time.Millisecond
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	start := time.Now()
	var frame int64
	for elapsed := time.Duration(0); elapsed < *duration; elapsed = time.Since(start) {
		select {
		case <-sigCh:
			log.Info("Interrupted")
			return
		case <-ticker.C:
		}
		frame++

		// One revolution every 5 seconds
		angle := elapsed.Seconds() / 5 * 2 * math.Pi
		source.SetPosition(vmath.Vec3{
			X: math.Cos(angle) * *radius,
			Z: math.Sin(angle) * *radius,
		})

		ctx.DispatchPosted()

		data := ctx.EventDataMap()
		data[core.ParamFrameNumber] = frame
		data[core.ParamTimeStep] = frameTime.Seconds()
		ctx.SendBroadcast(core.EventBeginFrame, data)

		data = ctx.EventDataMap()
		data[core.ParamTimeStep] = frameTime.Seconds()
		ctx.SendBroadcast(core.EventUpdate, data)
		ctx.SendBroadcast(core.EventRenderUpdate, data)

		data = ctx.EventDataMap()
		data[core.ParamFrameNumber] = frame
		ctx.SendBroadcast(core.EventEndFrame, data)
	}

	log.Info("Done", zap.Int64("frames", frame))
}
