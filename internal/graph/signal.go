package graph

import (
	"encoding/json"
	"fmt"
)

// SignalKind discriminates the three shapes a parameter value can take
// (§3.5).
type SignalKind int

const (
	SignalDisconnected SignalKind = iota
	SignalVolts
	SignalCable
)

// Signal is a parameter value: a constant, a cable into another module's
// output port, or disconnected (reads as 0 or a parameter-specific
// default). A bare JSON number decodes as Volts; a JSON object with
// "module"/"port" decodes as a Cable, matching the original's custom serde
// shorthand.
type Signal struct {
	Kind    SignalKind
	Volts   float64
	Source  string // module id, only meaningful when Kind == SignalCable
	Port    string
	Channel int

	handle *ModuleHandle // populated by Resolve; nil until connected
}

// NewVolts builds a constant Signal.
func NewVolts(v float64) Signal {
	return Signal{Kind: SignalVolts, Volts: v}
}

// NewCable builds an unresolved cable Signal; call Resolve against a patch
// before reading it.
func NewCable(sourceID, port string, channel int) Signal {
	return Signal{Kind: SignalCable, Source: sourceID, Port: port, Channel: channel}
}

// Resolve looks sourceID up in p's id table and caches the weak handle
// reference (§3.5's "the weak reference is populated by the connect
// phase"). It is an error for a cable to reference an id absent from the
// new patch (§4.4, §7 ConnectionError) — callers surface that as a
// structured validation problem rather than crashing.
func (s *Signal) Resolve(p *Patch) error {
	if s.Kind != SignalCable {
		return nil
	}
	h, ok := p.lookup(s.Source)
	if !ok {
		return fmt.Errorf("cable references unknown module %q", s.Source)
	}
	s.handle = h
	return nil
}

// Value reads the signal's current sample. A cable whose source has since
// been removed from the patch (the weak reference no longer resolves)
// returns def instead of faulting the audio thread (§3.5, §4.4).
func (s Signal) Value(def float64) float64 {
	switch s.Kind {
	case SignalVolts:
		return s.Volts
	case SignalCable:
		if s.handle == nil || s.handle.removed.Load() {
			return def
		}
		pb, err := s.handle.mod.GetPolySample(s.Port)
		if err != nil {
			return def
		}
		return pb.Get(s.Channel)
	default:
		return def
	}
}

// Buffer reads the signal's full polyphonic source buffer, used by modules
// that implement the "takes from inputs" channel-count rule (§4.5) instead
// of reading a single fixed channel. A Volts signal reads as one active
// mono channel; Disconnected or an unresolved/removed cable returns def.
func (s Signal) Buffer(def PolyBuffer) PolyBuffer {
	switch s.Kind {
	case SignalVolts:
		return Mono(s.Volts)
	case SignalCable:
		if s.handle == nil || s.handle.removed.Load() {
			return def
		}
		pb, err := s.handle.mod.GetPolySample(s.Port)
		if err != nil {
			return def
		}
		return pb
	default:
		return def
	}
}

// UnmarshalJSON accepts a bare number (Volts) or an object shaped
// {"module": "...", "port": "...", "channel": N} (Cable); an absent value
// or JSON null decodes as Disconnected.
func (s *Signal) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Signal{Kind: SignalDisconnected}
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*s = NewVolts(num)
		return nil
	}
	var cable struct {
		Module  string `json:"module"`
		Port    string `json:"port"`
		Channel int    `json:"channel"`
	}
	if err := json.Unmarshal(data, &cable); err != nil {
		return fmt.Errorf("signal: %w", err)
	}
	if cable.Module == "" {
		return fmt.Errorf("signal: cable object missing \"module\"")
	}
	*s = NewCable(cable.Module, cable.Port, cable.Channel)
	return nil
}

// SignalFromAny decodes a Signal out of an UpdateParams value, which may
// already be a Signal (built programmatically, e.g. by the scripting
// console or tests), a bare number (Volts), or a
// {"module","port","channel"} map decoded from JSON (Cable). It is the
// common helper every concrete module's UpdateParams uses.
func SignalFromAny(v any) (Signal, error) {
	switch x := v.(type) {
	case Signal:
		return x, nil
	case float64:
		return NewVolts(x), nil
	case int:
		return NewVolts(float64(x)), nil
	case nil:
		return Signal{Kind: SignalDisconnected}, nil
	case map[string]any:
		module, _ := x["module"].(string)
		if module == "" {
			return Signal{}, fmt.Errorf("cable object missing \"module\"")
		}
		port, _ := x["port"].(string)
		channel := 0
		if c, ok := x["channel"].(float64); ok {
			channel = int(c)
		}
		return NewCable(module, port, channel), nil
	default:
		return Signal{}, fmt.Errorf("unsupported signal value %T", v)
	}
}

// FloatFromAny decodes a plain numeric parameter (not a cable), used for
// fixed configuration values a module never smooths or reads per-sample.
func FloatFromAny(v any, def float64) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	default:
		return def
	}
}

// IntFromAny decodes a plain integer-valued parameter.
func IntFromAny(v any, def int) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	default:
		return def
	}
}

// StringFromAny decodes a plain string parameter.
func StringFromAny(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func (s Signal) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SignalVolts:
		return json.Marshal(s.Volts)
	case SignalCable:
		return json.Marshal(struct {
			Module  string `json:"module"`
			Port    string `json:"port"`
			Channel int    `json:"channel"`
		}{s.Source, s.Port, s.Channel})
	default:
		return []byte("null"), nil
	}
}
