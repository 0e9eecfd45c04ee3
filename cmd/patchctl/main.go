// patchctl is a headless command-line player (§6): it loads a patch-graph
// file, an optional engine config, runs the engine for a fixed duration or
// until interrupted, and can dump the current patch's JSON description to
// the system clipboard for pasting into a bug report.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.design/x/clipboard"

	"github.com/patchwerk/engine/internal/config"
	"github.com/patchwerk/engine/internal/engine"
	"github.com/patchwerk/engine/internal/graph"
	"github.com/patchwerk/engine/internal/logging"
	"github.com/patchwerk/engine/internal/modules/clock"
	"github.com/patchwerk/engine/internal/modules/envelope"
	"github.com/patchwerk/engine/internal/modules/filter"
	"github.com/patchwerk/engine/internal/modules/mixer"
	"github.com/patchwerk/engine/internal/modules/oscillator"
	"github.com/patchwerk/engine/internal/modules/root"
	"github.com/patchwerk/engine/internal/modules/scope"
	"github.com/patchwerk/engine/internal/sequencermod"
)

var defaultRegistry = graph.Registry{
	"oscillator": oscillator.New,
	"envelope":   envelope.New,
	"filter":     filter.New,
	"mixer":      mixer.New,
	"clock":      clock.New,
	"root":       root.New,
	"scope":      scope.New,
	"sequencer":  sequencermod.New,
}

func main() {
	configPath := pflag.String("config", "engine.toml", "path to engine.toml")
	patchPath := pflag.StringP("patch", "p", "", "path to a .synth patch-graph file (required)")
	seconds := pflag.Float64("seconds", 5, "seconds to run (0 runs until interrupted)")
	stats := pflag.Bool("stats", false, "print lock-miss stats after running")
	dump := pflag.Bool("dump", false, "copy the patch graph's JSON description to the clipboard instead of running")
	pflag.Parse()

	if *patchPath == "" {
		fmt.Fprintln(os.Stderr, "patchctl: --patch is required")
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		if loaded, err := config.Load(*configPath); err == nil {
			cfg = loaded
		} else if _, statErr := os.Stat(*configPath); statErr == nil {
			fmt.Fprintf(os.Stderr, "patchctl: %v\n", err)
			os.Exit(1)
		}
	}

	data, err := os.ReadFile(*patchPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "patchctl: %v\n", err)
		os.Exit(1)
	}
	var pg graph.PatchGraph
	if err := json.Unmarshal(data, &pg); err != nil {
		fmt.Fprintf(os.Stderr, "patchctl: decode %s: %v\n", *patchPath, err)
		os.Exit(1)
	}

	if *dump {
		if err := dumpToClipboard(pg); err != nil {
			fmt.Fprintf(os.Stderr, "patchctl: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("patch graph copied to clipboard")
		return
	}

	e := engine.New(cfg)
	if err := e.ApplyPatchGraph(pg, defaultRegistry); err != nil {
		fmt.Fprintf(os.Stderr, "patchctl: %v\n", err)
		os.Exit(1)
	}

	if err := e.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "patchctl: %v\n", err)
		os.Exit(1)
	}
	logging.Info("patchctl started", "patch", *patchPath)

	if *seconds > 0 {
		time.Sleep(time.Duration(*seconds * float64(time.Second)))
	} else {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
	}

	if err := e.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "patchctl: %v\n", err)
	}

	if *stats {
		fmt.Printf("lock misses: %d\n", e.LockMisses())
	}
}

func dumpToClipboard(pg graph.PatchGraph) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	body, err := json.MarshalIndent(pg, "", "  ")
	if err != nil {
		return err
	}
	<-clipboard.Write(clipboard.FmtText, body)
	return nil
}
