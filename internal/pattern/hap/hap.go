// Package hap implements the events a Pattern query produces.
package hap

import (
	"github.com/patchwerk/engine/internal/pattern/timespan"
)

// SourceSpan marks a range of mini-notation source text that produced a
// value, for editor highlighting.
type SourceSpan struct {
	Start, End int
}

// Context carries the source-text spans that contributed to a hap, so an
// editor can highlight every leaf that fed the currently-sounding event.
type Context struct {
	Spans []SourceSpan
}

// Merge unions two contexts, as required when two haps combine (app/bind).
func (c Context) Merge(o Context) Context {
	if len(c.Spans) == 0 {
		return o
	}
	if len(o.Spans) == 0 {
		return c
	}
	out := make([]SourceSpan, 0, len(c.Spans)+len(o.Spans))
	out = append(out, c.Spans...)
	out = append(out, o.Spans...)
	return Context{Spans: out}
}

// Hap is a single happening produced by querying a Pattern[T]: either a
// discrete event with a logical Whole extent, or a continuous sample with
// no Whole.
type Hap[T any] struct {
	Whole   *timespan.TimeSpan
	Part    timespan.TimeSpan
	Value   T
	Context Context
}

// Discrete constructs a hap with both a whole and part.
func Discrete[T any](whole, part timespan.TimeSpan, value T, ctx Context) Hap[T] {
	w := whole
	return Hap[T]{Whole: &w, Part: part, Value: value, Context: ctx}
}

// Continuous constructs a whole-less (signal) hap.
func Continuous[T any](part timespan.TimeSpan, value T, ctx Context) Hap[T] {
	return Hap[T]{Whole: nil, Part: part, Value: value, Context: ctx}
}

// IsDiscrete reports whether the hap carries a logical whole.
func (h Hap[T]) IsDiscrete() bool { return h.Whole != nil }

// HasOnset reports whether this hap's part begins exactly where its whole
// begins, i.e. whether the query caught the onset of the event rather than
// a continuation of it.
func (h Hap[T]) HasOnset() bool {
	if h.Whole == nil {
		return false
	}
	return h.Whole.Begin.Equal(h.Part.Begin)
}

// WithValue returns a copy of h with its value replaced, used by fmap.
func WithValue[T, U any](h Hap[T], v U) Hap[U] {
	return Hap[U]{Whole: h.Whole, Part: h.Part, Value: v, Context: h.Context}
}

// WithTime maps both the whole and the part of h through f, used by the
// temporal combinators (fast/slow/early/late/rev).
func (h Hap[T]) WithTime(f func(timespan.TimeSpan) timespan.TimeSpan) Hap[T] {
	out := h
	out.Part = f(h.Part)
	if h.Whole != nil {
		w := f(*h.Whole)
		out.Whole = &w
	}
	return out
}

// Equal is structural equality including the full context, honoring §4.6.
func Equal[T comparable](a, b Hap[T]) bool {
	if a.Value != b.Value {
		return false
	}
	if !a.Part.Equal(b.Part) {
		return false
	}
	if (a.Whole == nil) != (b.Whole == nil) {
		return false
	}
	if a.Whole != nil && !a.Whole.Equal(*b.Whole) {
		return false
	}
	if len(a.Context.Spans) != len(b.Context.Spans) {
		return false
	}
	for i := range a.Context.Spans {
		if a.Context.Spans[i] != b.Context.Spans[i] {
			return false
		}
	}
	return true
}
