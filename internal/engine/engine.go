// Package engine is the top-level wiring that turns a graph.Patch into
// audible sound: it adapts the teacher's Player (player.go) — which
// wrapped a VoiceEngine/Sequencer pair in an audio.SampleSource and drove
// an audio.Player from it — to instead pull interleaved stereo samples
// from graph.Patch.TryAudioSample(), the root module's designated output
// port (§6 item 4).
package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/patchwerk/engine/internal/audio"
	"github.com/patchwerk/engine/internal/config"
	"github.com/patchwerk/engine/internal/graph"
	"github.com/patchwerk/engine/internal/logging"
	"github.com/patchwerk/engine/internal/messages"
)

// outputGain converts this engine's volts convention to the [-1, 1] range
// an audio device expects. There is no spec-fixed headroom constant, so
// this follows the common eurorack convention of treating +-5V as the
// nominal audio-rate swing.
const outputGain = 1.0 / 5.0

// Engine owns a live patch and the audio device backend it feeds.
type Engine struct {
	patch      *graph.Patch
	sampleRate int
	player     *audio.Player
	lockMiss   *logging.LockMissReporter
}

// New builds an Engine around an initially empty patch rooted at
// cfg.RootModuleID/cfg.RootModulePort.
func New(cfg config.Config) *Engine {
	patch := graph.NewPatch(cfg.SampleRate, cfg.RootModuleID, cfg.RootModulePort)
	return &Engine{
		patch:      patch,
		sampleRate: int(cfg.SampleRate),
		lockMiss:   logging.NewLockMissReporter(2 * time.Second),
	}
}

// Patch exposes the live patch for direct queries (e.g. a scripting
// console or cmd/scopeview reading a scope module's ring buffer).
func (e *Engine) Patch() *graph.Patch { return e.patch }

// ApplyPatchGraph runs the hot-patch swap (§4.3) and logs its outcome.
func (e *Engine) ApplyPatchGraph(desired graph.PatchGraph, reg graph.Registry) error {
	logging.Info("patch swap begin", "modules", len(desired.Modules))
	if err := e.patch.ApplyPatchGraph(desired, reg); err != nil {
		logging.Error("patch swap aborted", "err", err)
		return err
	}
	logging.Info("patch swap committed", "modules", len(desired.Modules))
	return nil
}

// Dispatch routes a tagged message (clock start/stop, MIDI, ...) into the
// patch (§6 item 3).
func (e *Engine) Dispatch(msg messages.Message) error {
	return e.patch.DispatchMessage(msg)
}

// Process implements audio.SampleSource: dst is an interleaved stereo
// float32 buffer. Each frame reads one polyphonic sample from the root
// output and writes it to both channels (or L/R from channels 0/1 if the
// root output is itself stereo-wide), scaled from volts and clamped to
// finite values per §4's "no output sample is non-finite" invariant.
func (e *Engine) Process(dst []float32) {
	for i := 0; i+1 < len(dst); i += 2 {
		buf := e.patch.TryAudioSample()
		l, r := stereoFrame(buf)
		dst[i] = sanitize(float32(l * outputGain))
		dst[i+1] = sanitize(float32(r * outputGain))
	}
	e.lockMiss.Observe(e.patch.LockMisses())
}

func stereoFrame(buf graph.PolyBuffer) (l, r float64) {
	if buf.Active >= 2 {
		return buf.Get(0), buf.Get(1)
	}
	v := buf.Get(0)
	return v, v
}

func sanitize(v float32) float32 {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0
	}
	return v
}

// Start opens the audio device backend and begins playback.
func (e *Engine) Start() error {
	if e.player != nil {
		return fmt.Errorf("engine: already started")
	}
	player, err := audio.NewPlayer(e.sampleRate, e)
	if err != nil {
		return err
	}
	e.player = player
	e.player.Play()
	return nil
}

// Stop closes the audio device backend.
func (e *Engine) Stop() error {
	if e.player == nil {
		return nil
	}
	err := e.player.Stop()
	e.player = nil
	return err
}

// LockMisses reports the scheduler's cumulative try-lock failure count.
func (e *Engine) LockMisses() uint64 { return e.patch.LockMisses() }
