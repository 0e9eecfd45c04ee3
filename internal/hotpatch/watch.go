// Package hotpatch watches a directory of patch-graph and pattern-text
// files and feeds each change through Patch.ApplyPatchGraph (§4.3), the
// file-backed control channel standing in for the excluded wire protocol
// (§1, §6). A ".synth" file is a complete PatchGraph (§6 item 1) in JSON;
// a ".mini" file is bare mini-notation text that replaces one sequencer
// module's "pattern" parameter, named by the file's base name.
package hotpatch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/patchwerk/engine/internal/graph"
	"github.com/patchwerk/engine/internal/logging"
)

// Applier is the subset of engine.Engine a Watcher needs: somewhere to
// send a freshly assembled PatchGraph.
type Applier interface {
	ApplyPatchGraph(desired graph.PatchGraph, reg graph.Registry) error
}

// Watcher tracks the last-applied PatchGraph and re-derives it on every
// file event, since ApplyPatchGraph's `desired` argument is always the
// complete wanted module set (§4.3 step 1: anything missing from it is
// deleted) — a single changed pattern file must be merged into the full
// graph before re-applying, not applied on its own.
type Watcher struct {
	mu      sync.Mutex
	dir     string
	current graph.PatchGraph
	reg     graph.Registry
	applier Applier

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// New starts watching dir for ".synth" and ".mini" files, seeded with an
// initial PatchGraph (typically loaded from the directory's base .synth
// file before New is called).
func New(dir string, initial graph.PatchGraph, reg graph.Registry, applier Applier) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hotpatch: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("hotpatch: watch %s: %w", dir, err)
	}
	w := &Watcher{
		dir:     dir,
		current: initial,
		reg:     reg,
		applier: applier,
		fsw:     fsw,
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := w.handle(ev.Name); err != nil {
				logging.Error("hotpatch: reload failed", "file", ev.Name, "err", err)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Error("hotpatch: watch error", "err", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".synth":
		return w.reloadGraph(path)
	case ".mini":
		return w.reloadPattern(path)
	default:
		return nil
	}
}

func (w *Watcher) reloadGraph(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var pg graph.PatchGraph
	if err := json.Unmarshal(data, &pg); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	w.mu.Lock()
	w.current = pg
	reg := w.reg
	applier := w.applier
	w.mu.Unlock()

	return applier.ApplyPatchGraph(pg, reg)
}

func (w *Watcher) reloadPattern(path string) error {
	moduleID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text := string(data)

	w.mu.Lock()
	found := false
	for i := range w.current.Modules {
		if w.current.Modules[i].ID != moduleID {
			continue
		}
		if w.current.Modules[i].Params == nil {
			w.current.Modules[i].Params = map[string]any{}
		}
		w.current.Modules[i].Params["pattern"] = text
		found = true
		break
	}
	pg := w.current
	reg := w.reg
	applier := w.applier
	w.mu.Unlock()

	if !found {
		return fmt.Errorf("no module %q in current patch graph for %s", moduleID, path)
	}
	return applier.ApplyPatchGraph(pg, reg)
}

// Close stops the watcher and releases the underlying fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
