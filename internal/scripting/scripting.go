// Package scripting embeds a small Lua console (gopher-lua) that builds a
// graph.PatchGraph value programmatically — an alternate, scriptable
// ingress alongside mini-notation text and a static JSON patch file,
// exercising the same ApplyPatchGraph path (§4.3, §6 item 1).
package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/patchwerk/engine/internal/graph"
)

// Console runs Lua scripts against a fresh builder each time, so state
// from one script never leaks into the next.
type Console struct{}

func NewConsole() *Console { return &Console{} }

// builder accumulates module/cable/remap calls issued by a running script.
type builder struct {
	modules []graph.ModuleState
	byID    map[string]int
	remaps  []graph.ModuleIdRemap
}

func newBuilder() *builder {
	return &builder{byID: make(map[string]int)}
}

func (b *builder) addModule(id, moduleType string, params map[string]any) {
	if idx, ok := b.byID[id]; ok {
		b.modules[idx] = graph.ModuleState{ID: id, ModuleType: moduleType, Params: params}
		return
	}
	b.byID[id] = len(b.modules)
	b.modules = append(b.modules, graph.ModuleState{ID: id, ModuleType: moduleType, Params: params})
}

// Run executes script and returns the PatchGraph it built via
// add_module(id, type, params) and remap(from, to) calls. params is an
// ordinary Lua table; string/number/boolean/nil values and nested
// {module=, port=, channel=} cable tables are all understood.
func (c *Console) Run(script string) (graph.PatchGraph, error) {
	L := lua.NewState()
	defer L.Close()

	b := newBuilder()

	L.SetGlobal("add_module", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		moduleType := L.CheckString(2)
		var params map[string]any
		if L.GetTop() >= 3 {
			tbl := L.CheckTable(3)
			params = tableToParams(tbl)
		}
		b.addModule(id, moduleType, params)
		return 0
	}))

	L.SetGlobal("cable", L.NewFunction(func(L *lua.LState) int {
		module := L.CheckString(1)
		port := L.CheckString(2)
		channel := 0
		if L.GetTop() >= 3 {
			channel = int(L.CheckNumber(3))
		}
		tbl := L.NewTable()
		tbl.RawSetString("module", lua.LString(module))
		tbl.RawSetString("port", lua.LString(port))
		tbl.RawSetString("channel", lua.LNumber(channel))
		L.Push(tbl)
		return 1
	}))

	L.SetGlobal("remap", L.NewFunction(func(L *lua.LState) int {
		from := L.CheckString(1)
		to := L.CheckString(2)
		b.remaps = append(b.remaps, graph.ModuleIdRemap{From: from, To: to})
		return 0
	}))

	if err := L.DoString(script); err != nil {
		return graph.PatchGraph{}, fmt.Errorf("scripting: %w", err)
	}

	return graph.PatchGraph{Modules: b.modules, Remaps: b.remaps}, nil
}

// tableToParams converts a Lua table into a params map[string]any, the
// same shape UpdateParams expects from a decoded JSON patch file:
// strings, numbers, booleans pass through; a nested {module, port,
// channel} table becomes a map[string]any for graph.SignalFromAny.
func tableToParams(tbl *lua.LTable) map[string]any {
	out := make(map[string]any)
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		out[string(key)] = luaValueToAny(v)
	})
	return out
}

func luaValueToAny(v lua.LValue) any {
	switch x := v.(type) {
	case lua.LString:
		return string(x)
	case lua.LNumber:
		return float64(x)
	case lua.LBool:
		return bool(x)
	case *lua.LTable:
		// A cable table has string keys only; anything else is treated as
		// a nested params object the same way.
		return tableToParams(x)
	default:
		return nil
	}
}
