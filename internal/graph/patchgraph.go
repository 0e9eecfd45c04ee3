package graph

import (
	"fmt"

	"github.com/patchwerk/engine/internal/apperr"
)

// ModuleState is one entry of a desired PatchGraph (§4.3): a stable id, the
// module-type tag used to look up its Constructor, and an untyped
// parameter tree handed to UpdateParams.
type ModuleState struct {
	ID         string         `json:"id"`
	ModuleType string         `json:"module_type"`
	Params     map[string]any `json:"params,omitempty"`
}

// ScopeItem names what a Scope subscribes to; ModuleOutput is the only kind
// this engine implements (§6 item 4's scope ring buffers).
type ScopeItem struct {
	ModuleID string `json:"module_id"`
	Port     string `json:"port"`
}

// Scope is a named subscription a GUI or terminal viewer can read a ring
// buffer from (standing in for the excluded GUI streaming protocol).
type Scope struct {
	ID   string    `json:"id"`
	Item ScopeItem `json:"item"`
}

// ModuleIdRemap renames a module id across patch-graph versions, so a patch
// author can rename an id without the engine treating it as delete+create.
type ModuleIdRemap struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PatchGraph is the patch-graph ingress shape (§4.3, §6 item 1): a desired
// set of modules, optional scopes, and optional id remaps. The json tags
// also define the file shape internal/hotpatch watches for on disk.
type PatchGraph struct {
	Modules []ModuleState   `json:"modules"`
	Scopes  []Scope         `json:"scopes,omitempty"`
	Remaps  []ModuleIdRemap `json:"remaps,omitempty"`
}

// Registry maps a module-type tag to its Constructor (§6 item 2).
type Registry map[string]Constructor

// ApplyPatchGraph runs the seven-step patch construction algorithm (§4.3).
// Validation and construction happen against a staging copy of the module
// set; nothing is committed to p until every module in desired has
// constructed, accepted its parameters, and connected successfully. On any
// error the previous patch keeps running untouched.
func (p *Patch) ApplyPatchGraph(desired PatchGraph, reg Registry) error {
	desired = applyRemaps(desired)

	p.mu.Lock()
	defer p.mu.Unlock()

	desiredByID := make(map[string]ModuleState, len(desired.Modules))
	for _, m := range desired.Modules {
		desiredByID[m.ID] = m
	}

	var verrs apperr.ValidationErrors
	for _, m := range desired.Modules {
		if _, ok := reg[m.ModuleType]; !ok {
			verrs.Add(&apperr.ValidationError{ModuleID: m.ID, Field: "module_type", Err: fmt.Errorf("unknown module type %q", m.ModuleType)})
		}
	}
	if verrs.HasErrors() {
		return verrs.AsError()
	}

	// Step 1: compute delete / recreate / create sets against current ids.
	var toDelete []string
	var toRecreate []string
	for id, h := range p.modules {
		if h.removed.Load() {
			continue
		}
		if id == p.rootID {
			if _, stillDesired := desiredByID[id]; !stillDesired {
				continue // root is never deleted even if dropped from desired
			}
		}
		want, ok := desiredByID[id]
		if !ok {
			toDelete = append(toDelete, id)
			continue
		}
		if want.ModuleType != h.mod.ModuleType() {
			toRecreate = append(toRecreate, id)
		}
	}
	recreateSet := make(map[string]bool, len(toRecreate))
	for _, id := range toRecreate {
		recreateSet[id] = true
	}
	var toCreate []string
	for _, m := range desired.Modules {
		if _, exists := p.modules[m.ID]; !exists {
			toCreate = append(toCreate, m.ID)
		}
	}
	toCreate = append(toCreate, toRecreate...)

	// Stage: copy forward every kept handle, construct every new/recreated one.
	staged := make(map[string]*ModuleHandle, len(desiredByID))
	for id, h := range p.modules {
		if h.removed.Load() {
			continue
		}
		if contains(toDelete, id) || recreateSet[id] {
			continue
		}
		staged[id] = h
	}
	for _, id := range toCreate {
		m := desiredByID[id]
		ctor := reg[m.ModuleType]
		mod, err := ctor(id, p.sampleRate)
		if err != nil {
			return &apperr.ConstructionError{ModuleID: id, ModuleType: m.ModuleType, Err: err}
		}
		staged[id] = &ModuleHandle{mod: mod}
	}

	// Step 4: update_params for every module in desired (new and existing).
	for _, m := range desired.Modules {
		h := staged[m.ID]
		if err := h.mod.UpdateParams(m.Params); err != nil {
			return &apperr.ValidationError{ModuleID: m.ID, Field: "params", Err: err}
		}
	}

	// Build a scratch patch sharing the staged module set so Connect sees
	// the final shape (including modules created in this same swap) without
	// touching p's real state yet.
	scratch := &Patch{sampleRate: p.sampleRate, rootID: p.rootID, rootPort: p.rootPort, modules: staged}

	// Step 5: connect every module in desired.
	for _, m := range desired.Modules {
		h := staged[m.ID]
		if err := h.mod.Connect(scratch); err != nil {
			return &apperr.ConnectionError{ModuleID: m.ID}
		}
	}

	// Everything succeeded: mark deleted/recreated handles removed so any
	// Signal still caching a pointer to them reads its default from now on,
	// then commit the staged set.
	for _, id := range toDelete {
		p.modules[id].removed.Store(true)
	}
	for _, id := range toRecreate {
		p.modules[id].removed.Store(true)
	}
	p.modules = staged
	p.order = sortedOrder(p.modules)

	// Step 6: on_patch_update for every module.
	for _, id := range p.order {
		if hook, ok := p.modules[id].mod.(PatchUpdateHook); ok {
			hook.OnPatchUpdate()
		}
	}

	// Step 7: rebuild the message-dispatch table.
	p.rebuildDispatchTable()

	return nil
}

func applyRemaps(pg PatchGraph) PatchGraph {
	if len(pg.Remaps) == 0 {
		return pg
	}
	renamed := make(map[string]string, len(pg.Remaps))
	for _, r := range pg.Remaps {
		renamed[r.From] = r.To
	}
	out := pg
	out.Modules = make([]ModuleState, len(pg.Modules))
	for i, m := range pg.Modules {
		if to, ok := renamed[m.ID]; ok {
			m.ID = to
		}
		out.Modules[i] = m
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
