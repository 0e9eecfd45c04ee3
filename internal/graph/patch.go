package graph

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/patchwerk/engine/internal/messages"
)

// ModuleHandle wraps a live module with a removal flag, standing in for the
// weak reference a cable caches at connect time (§3.5): the patch's module
// map holds the only strong reference, everything else — including every
// Signal pointed at this module — holds a *ModuleHandle that keeps working
// until removed flips, at which point reads fall back to a default instead
// of dereferencing stale state.
type ModuleHandle struct {
	mod     Module
	removed atomic.Bool
}

func (h *ModuleHandle) Module() Module { return h.mod }

// Patch is the unit of replacement (§3.8): id -> owned module, plus a
// precomputed message dispatch table. The audio thread reads it through
// TryAudioSample(lock-free on the hot path is not achievable with plain
// sync.RWMutex, so the "try lock" here maps to TryLock/TryRLock, matching
// §4.10/§5's try-lock discipline); the hot-patch applier is the only writer
// and holds the exclusive lock only for the swap phase.
type Patch struct {
	mu sync.RWMutex

	sampleRate float64
	rootID     string
	rootPort   string

	modules  map[string]*ModuleHandle
	order    []string // stable iteration order for determinism-insensitive scheduling
	dispatch map[messages.Tag][]*ModuleHandle

	lockMisses atomic.Uint64
}

// NewPatch creates an empty patch at a fixed sample rate (§5: "fixed at the
// start of the process"). rootID/rootPort name the module and port the
// engine reads for sample-buffer egress (§6 item 4).
func NewPatch(sampleRate float64, rootID, rootPort string) *Patch {
	return &Patch{
		sampleRate: sampleRate,
		rootID:     rootID,
		rootPort:   rootPort,
		modules:    make(map[string]*ModuleHandle),
		dispatch:   make(map[messages.Tag][]*ModuleHandle),
	}
}

func (p *Patch) SampleRate() float64 { return p.sampleRate }

func (p *Patch) lookup(id string) (*ModuleHandle, bool) {
	h, ok := p.modules[id]
	if !ok || h.removed.Load() {
		return nil, false
	}
	return h, true
}

// Lookup is the exported, locked form of lookup, for use by code that is
// not already holding p's write lock (e.g. a scripting console building a
// PatchGraph incrementally and wanting to inspect the live patch first).
func (p *Patch) Lookup(id string) (Module, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.lookup(id)
	if !ok {
		return nil, false
	}
	return h.mod, true
}

// updateAll runs Update on every live module (§5 step 1); order is
// unspecified by the spec and irrelevant to the observable output since
// every module reads only already-committed snapshots.
func (p *Patch) updateAll() {
	for _, id := range p.order {
		h := p.modules[id]
		if h.removed.Load() {
			continue
		}
		h.mod.Update(p)
	}
}

// tickAll runs Tick on every live module (§5 step 2), publishing the
// scratch state Update just wrote.
func (p *Patch) tickAll() {
	for _, id := range p.order {
		h := p.modules[id]
		if h.removed.Load() {
			continue
		}
		h.mod.Tick()
	}
}

// RunFrame executes one full sample's scheduling pass (§5): update every
// module, then tick every module, then read the root's output port.
func (p *Patch) RunFrame() (PolyBuffer, error) {
	p.updateAll()
	p.tickAll()
	root, ok := p.lookup(p.rootID)
	if !ok {
		return PolyBuffer{}, fmt.Errorf("patch root %q is not present", p.rootID)
	}
	return root.mod.GetPolySample(p.rootPort)
}

// TryAudioSample is the audio thread's entry point: it never blocks. On
// contention with an in-flight hot-patch swap it returns a silent buffer
// and records the miss instead of waiting (§4.10, §5).
func (p *Patch) TryAudioSample() PolyBuffer {
	if !p.mu.TryRLock() {
		p.lockMisses.Add(1)
		return PolyBuffer{Active: 1}
	}
	defer p.mu.RUnlock()
	out, err := p.RunFrame()
	if err != nil {
		return PolyBuffer{Active: 1}
	}
	return out
}

// LockMisses reports how many samples fell back to silence because the
// swap lock was held, the scheduler's one required health counter (§5).
func (p *Patch) LockMisses() uint64 {
	return p.lockMisses.Load()
}

// DispatchMessage routes msg to every module whose HandledMessageTags
// includes msg.Tag, per the precomputed table (§3.8, §6 item 3). Handler
// errors are collected, not short-circuited, so one misbehaving module
// does not stop delivery to the rest.
func (p *Patch) DispatchMessage(msg messages.Message) error {
	p.mu.RLock()
	targets := p.dispatch[msg.Tag]
	p.mu.RUnlock()

	var errs []error
	for _, h := range targets {
		if h.removed.Load() {
			continue
		}
		mh, ok := h.mod.(MessageHandler)
		if !ok {
			continue
		}
		if err := mh.HandleMessage(msg); err != nil {
			errs = append(errs, fmt.Errorf("module %q: %w", h.mod.ID(), err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	joined := errs[0]
	for _, e := range errs[1:] {
		joined = fmt.Errorf("%w; %w", joined, e)
	}
	return joined
}

// rebuildDispatchTable scans every live module for MessageHandler support
// and rebuilds p.dispatch (§4.3 step 7). Callers must hold the write lock.
func (p *Patch) rebuildDispatchTable() {
	table := make(map[messages.Tag][]*ModuleHandle)
	for _, id := range p.order {
		h := p.modules[id]
		if h.removed.Load() {
			continue
		}
		mh, ok := h.mod.(MessageHandler)
		if !ok {
			continue
		}
		for _, tag := range mh.HandledMessageTags() {
			table[tag] = append(table[tag], h)
		}
	}
	p.dispatch = table
}

// sortedOrder returns ids in sorted order, used to keep iteration
// deterministic across runs for debugging even though the spec says
// observable output must not depend on it.
func sortedOrder(ids map[string]*ModuleHandle) []string {
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
