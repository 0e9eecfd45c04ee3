// scopeview is a terminal dashboard (§6 item 4, tcell replacing the
// excluded GUI scope window): it runs a patch the same way patchctl does,
// then redraws one scope module's ring buffer as a waveform every frame.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/pflag"

	"github.com/patchwerk/engine/internal/config"
	"github.com/patchwerk/engine/internal/engine"
	"github.com/patchwerk/engine/internal/graph"
	"github.com/patchwerk/engine/internal/modules/clock"
	"github.com/patchwerk/engine/internal/modules/envelope"
	"github.com/patchwerk/engine/internal/modules/filter"
	"github.com/patchwerk/engine/internal/modules/mixer"
	"github.com/patchwerk/engine/internal/modules/oscillator"
	"github.com/patchwerk/engine/internal/modules/root"
	"github.com/patchwerk/engine/internal/modules/scope"
	"github.com/patchwerk/engine/internal/sequencermod"
)

var registry = graph.Registry{
	"oscillator": oscillator.New,
	"envelope":   envelope.New,
	"filter":     filter.New,
	"mixer":      mixer.New,
	"clock":      clock.New,
	"root":       root.New,
	"scope":      scope.New,
	"sequencer":  sequencermod.New,
}

const frameTime = time.Second / 30

func main() {
	configPath := pflag.String("config", "engine.toml", "path to engine.toml")
	patchPath := pflag.StringP("patch", "p", "", "path to a .synth patch-graph file (required)")
	scopeID := pflag.StringP("scope", "s", "scope", "module id of the scope to watch")
	channel := pflag.IntP("channel", "c", 0, "poly channel to display")
	pflag.Parse()

	if *patchPath == "" {
		fmt.Fprintln(os.Stderr, "scopeview: --patch is required")
		os.Exit(2)
	}

	cfg := config.Default()
	if loaded, err := config.Load(*configPath); err == nil {
		cfg = loaded
	}

	data, err := os.ReadFile(*patchPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scopeview: %v\n", err)
		os.Exit(1)
	}
	var pg graph.PatchGraph
	if err := json.Unmarshal(data, &pg); err != nil {
		fmt.Fprintf(os.Stderr, "scopeview: decode %s: %v\n", *patchPath, err)
		os.Exit(1)
	}

	e := engine.New(cfg)
	if err := e.ApplyPatchGraph(pg, registry); err != nil {
		fmt.Fprintf(os.Stderr, "scopeview: %v\n", err)
		os.Exit(1)
	}

	mod, ok := e.Patch().Lookup(*scopeID)
	if !ok {
		fmt.Fprintf(os.Stderr, "scopeview: no module named %q\n", *scopeID)
		os.Exit(1)
	}
	scopeMod, ok := mod.(*scope.Module)
	if !ok {
		fmt.Fprintf(os.Stderr, "scopeview: module %q is not a scope\n", *scopeID)
		os.Exit(1)
	}

	if err := e.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "scopeview: %v\n", err)
		os.Exit(1)
	}
	defer e.Stop()

	if err := run(scopeMod, *channel); err != nil {
		fmt.Fprintln(os.Stderr, "scopeview:", err)
		os.Exit(1)
	}
}

func run(scopeMod *scope.Module, channel int) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	defer screen.Fini()

	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorGreen))
	screen.Clear()

	quit := make(chan struct{})
	go pollInput(screen, quit)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			draw(screen, scopeMod, channel)
			screen.Show()
		case <-signals:
			return nil
		case <-quit:
			return nil
		}
	}
}

func pollInput(screen tcell.Screen, quit chan struct{}) {
	for {
		ev := screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				close(quit)
				return
			}
		case *tcell.EventResize:
			screen.Sync()
		case nil:
			return
		}
	}
}

func draw(screen tcell.Screen, scopeMod *scope.Module, channel int) {
	screen.Clear()
	width, height := screen.Size()

	samples := scopeMod.ChannelSnapshot(channel)
	title := fmt.Sprintf(" scope channel %d ", channel)
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	for i, ch := range title {
		screen.SetContent(i, 0, ch, nil, titleStyle)
	}

	if len(samples) == 0 || width <= 0 || height <= 2 {
		return
	}

	plotHeight := height - 2
	midline := plotHeight/2 + 1
	waveStyle := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	axisStyle := tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	for x := 0; x < width; x++ {
		screen.SetContent(x, midline, '-', nil, axisStyle)
	}

	// ±5 volts fills the plot's full height, matching the eurorack-style
	// audio range the engine's output stage assumes.
	const fullScaleVolts = 5.0
	for x := 0; x < width; x++ {
		idx := x * len(samples) / width
		v := samples[idx]
		if v > fullScaleVolts {
			v = fullScaleVolts
		}
		if v < -fullScaleVolts {
			v = -fullScaleVolts
		}
		y := midline - int(v/fullScaleVolts*float64(plotHeight/2))
		if y < 1 {
			y = 1
		}
		if y > height-1 {
			y = height - 1
		}
		screen.SetContent(x, y, '*', nil, waveStyle)
	}
}
