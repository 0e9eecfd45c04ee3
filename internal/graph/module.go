package graph

import "github.com/patchwerk/engine/internal/messages"

// TimingMetrics holds a module's optional per-sample timing accumulators
// (§3.7): sample count, total nanoseconds, and the min/max single-sample
// cost seen since the last reset.
type TimingMetrics struct {
	Count   int64
	TotalNS int64
	MinNS   int64
	MaxNS   int64
}

// Record folds one sample's elapsed nanoseconds into the accumulator.
func (m *TimingMetrics) Record(elapsedNS int64) {
	if m.Count == 0 || elapsedNS < m.MinNS {
		m.MinNS = elapsedNS
	}
	if elapsedNS > m.MaxNS {
		m.MaxNS = elapsedNS
	}
	m.TotalNS += elapsedNS
	m.Count++
}

// Module is the capability every patch member exposes (§4.1). Update and
// Tick are the two halves of the scheduling contract in §5: Update reads
// connected modules' last-committed snapshots and writes to its own scratch
// state; Tick then atomically publishes that scratch state as the new
// snapshot. A module must never read anything it wrote during the same
// Update/Tick phase.
type Module interface {
	ID() string
	ModuleType() string

	// Update advances the module by one sample: it reads cables via their
	// already-resolved sources' GetPolySample, and any smoothed parameters
	// via their own Smoothers, then writes results to scratch state only.
	Update(p *Patch)

	// Tick commits the scratch state written by Update into the snapshot
	// GetPolySample reads. Called for every module only after Update has
	// been called for every module (§5 step 1/2).
	Tick()

	// GetPolySample returns the last committed snapshot for the named
	// output port. An unknown port name is a caller bug, not a runtime
	// condition, and may panic — validation (§7) rejects unknown ports
	// before the patch swap that would make this reachable.
	GetPolySample(port string) (PolyBuffer, error)

	// UpdateParams merges a parameter update expressed as an untyped JSON
	// object (§4.1, §6 item 1); invalid values are rejected with a
	// structured error rather than partially applied.
	UpdateParams(params map[string]any) error

	// Connect resolves every cable-typed parameter against p's id table,
	// populating the weak module-handle reference each Signal caches.
	Connect(p *Patch) error
}

// PatchUpdateHook is implemented by modules that need a notification after
// every module in a new patch has connected (§4.3 step 6).
type PatchUpdateHook interface {
	OnPatchUpdate()
}

// MessageHandler is implemented by modules that accept tagged messages
// (§4.1, §6 item 3). Patch.ApplyPatchGraph rebuilds the dispatch table by
// scanning HandledMessageTags after every swap.
type MessageHandler interface {
	HandledMessageTags() []messages.Tag
	HandleMessage(msg messages.Message) error
}

// TimingReporter is implemented by modules that accumulate per-sample
// timing metrics.
type TimingReporter interface {
	ResetTimingMetrics()
	GetTimingMetrics() TimingMetrics
}

// Constructor builds a module instance for a given stable id at a fixed
// sample rate (§6 item 2). Registered per module-type in a Patch's type
// table.
type Constructor func(id string, sampleRate float64) (Module, error)
