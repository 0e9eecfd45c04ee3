// Package timespan implements the half-open time intervals over which
// patterns are queried and haps are reported.
package timespan

import "github.com/patchwerk/engine/internal/pattern/fraction"

// TimeSpan is the half-open interval [Begin, End) over exact rational time.
type TimeSpan struct {
	Begin, End fraction.Fraction
}

// New returns the span [begin, end). It does not itself validate
// begin <= end; callers that build spans from untrusted input should check.
func New(begin, end fraction.Fraction) TimeSpan {
	return TimeSpan{Begin: begin, End: end}
}

// Duration returns End - Begin.
func (s TimeSpan) Duration() fraction.Fraction {
	return s.End.Sub(s.Begin)
}

// Midpoint returns the point halfway between Begin and End.
func (s TimeSpan) Midpoint() fraction.Fraction {
	return s.Begin.Add(s.Duration().Div(fraction.New(2, 1)))
}

// WithTime maps both endpoints through f, e.g. for fast/slow/early/late.
func (s TimeSpan) WithTime(f func(fraction.Fraction) fraction.Fraction) TimeSpan {
	return TimeSpan{Begin: f(s.Begin), End: f(s.End)}
}

// SpanCycles splits s at every integer boundary strictly inside it and
// returns the resulting sub-spans in order. A zero-width span returns
// itself unchanged, per the data model: there is no interior to split.
func (s TimeSpan) SpanCycles() []TimeSpan {
	if s.Begin.Greater(s.End) {
		return nil
	}
	if s.Begin.Equal(s.End) {
		return []TimeSpan{s}
	}
	var out []TimeSpan
	begin := s.Begin
	for begin.Less(s.End) {
		nextSam := fraction.NextSam(begin)
		end := fraction.Min(nextSam, s.End)
		out = append(out, TimeSpan{Begin: begin, End: end})
		begin = end
	}
	return out
}

// Intersection returns the overlap of a and b plus whether it is non-empty,
// using the strictly half-open convention: a computed begin==end interval
// is empty unless a and b are the same single point (both zero-width and
// coincident).
func Intersection(a, b TimeSpan) (TimeSpan, bool) {
	begin := fraction.Max(a.Begin, b.Begin)
	end := fraction.Min(a.End, b.End)
	if begin.Greater(end) {
		return TimeSpan{}, false
	}
	if begin.Equal(end) {
		// Zero-width result: only valid when both inputs are the same point.
		if a.Begin.Equal(a.End) && b.Begin.Equal(b.End) && a.Begin.Equal(b.Begin) {
			return TimeSpan{Begin: begin, End: end}, true
		}
		return TimeSpan{}, false
	}
	return TimeSpan{Begin: begin, End: end}, true
}

// Contains reports whether s wholly contains o (s.Begin <= o.Begin and
// o.End <= s.End).
func (s TimeSpan) Contains(o TimeSpan) bool {
	return s.Begin.LessEq(o.Begin) && o.End.LessEq(s.End)
}

func (s TimeSpan) Equal(o TimeSpan) bool {
	return s.Begin.Equal(o.Begin) && s.End.Equal(o.End)
}
