package mini

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/patchwerk/engine/internal/pattern"
	"github.com/patchwerk/engine/internal/pattern/fraction"
	"github.com/patchwerk/engine/internal/pattern/hap"
)

// OperatorVariant selects how an operator's argument pattern combines its
// event structure with the primary pattern's, mirroring the original's
// OperatorVariant enum (§4.8's `in`/`out`/`squeeze`/`mix`).
type OperatorVariant int

const (
	VariantDefault OperatorVariant = iota
	VariantIn
	VariantOut
	VariantSqueeze
	VariantMix
)

func variantFromString(s string) OperatorVariant {
	switch strings.ToLower(s) {
	case "in", "inner":
		return VariantIn
	case "out", "outer":
		return VariantOut
	case "squeeze", "sq":
		return VariantSqueeze
	case "mix", "both":
		return VariantMix
	default:
		return VariantDefault
	}
}

// OperatorFunc applies a named operator to p given its raw argument text
// and requested variant.
type OperatorFunc[T any] func(p pattern.Pattern[T], arg string, variant OperatorVariant) (pattern.Pattern[T], error)

// OperatorRegistry looks up operators by name for the `$ name.variant(arg)`
// chain (§4.8), one per target value type T, mirroring the original's
// per-type OperatorRegistry.
type OperatorRegistry[T any] struct {
	ops map[string]OperatorFunc[T]
}

func NewOperatorRegistry[T any]() *OperatorRegistry[T] {
	return &OperatorRegistry[T]{ops: make(map[string]OperatorFunc[T])}
}

func (r *OperatorRegistry[T]) Register(name string, f OperatorFunc[T]) {
	r.ops[name] = f
}

func (r *OperatorRegistry[T]) Apply(name string, p pattern.Pattern[T], arg string, variant OperatorVariant) (pattern.Pattern[T], error) {
	f, ok := r.ops[name]
	if !ok {
		return p, fmt.Errorf("unknown operator %q", name)
	}
	return f(p, arg, variant)
}

func floatAtomDecoder(a AtomValue, _ hap.SourceSpan) (float64, error) {
	v, ok := a.ToF64()
	if !ok {
		return 0, fmt.Errorf("atom has no numeric reading")
	}
	return v, nil
}

// compileRate compiles an operator's argument text as a Pattern[float64],
// used by the structural rate operators and the arithmetic operators
// below; operator arguments are always numeric regardless of the primary
// pattern's own target type.
func compileRate(arg string) (pattern.Pattern[float64], error) {
	prog, err := Parse(arg)
	if err != nil {
		return pattern.Silence[float64](), err
	}
	return compileNode(prog.Base, Decoder[float64](floatAtomDecoder))
}

// rateStructural builds a rate-parameterized structural transform (fast,
// slow, early, late): the argument is itself a pattern, so the transform
// is re-applied per argument hap via Bind. Default/In take their
// structure from the transformed pattern itself; Out/Squeeze take it from
// the argument pattern (the two variants coincide here since there is no
// richer argument structure to squeeze into for a unary transform — a
// deliberate simplification over a full appLeft/appRight crossing).
func rateStructural[T any](transform func(pattern.Pattern[T], float64) pattern.Pattern[T]) OperatorFunc[T] {
	return func(p pattern.Pattern[T], arg string, variant OperatorVariant) (pattern.Pattern[T], error) {
		ratePat, err := compileRate(arg)
		if err != nil {
			return p, err
		}
		switch variant {
		case VariantOut, VariantSqueeze:
			return pattern.Bind(ratePat, func(r float64) pattern.Pattern[T] { return transform(p, r) }, pattern.JoinOuter), nil
		default:
			return pattern.Bind(ratePat, func(r float64) pattern.Pattern[T] { return transform(p, r) }, pattern.JoinInner), nil
		}
	}
}

// RegisterStructuralOperators registers the unary structural operators
// (fast, slow, early, late, rev, degrade) on reg; these are well-defined
// for any target type T.
func RegisterStructuralOperators[T any](reg *OperatorRegistry[T]) {
	reg.Register("fast", rateStructural(func(p pattern.Pattern[T], n float64) pattern.Pattern[T] {
		return pattern.Fast(p, floatFraction(n))
	}))
	reg.Register("slow", rateStructural(func(p pattern.Pattern[T], n float64) pattern.Pattern[T] {
		return pattern.Slow(p, floatFraction(n))
	}))
	reg.Register("early", rateStructural(func(p pattern.Pattern[T], n float64) pattern.Pattern[T] {
		return pattern.Early(p, floatFraction(n))
	}))
	reg.Register("late", rateStructural(func(p pattern.Pattern[T], n float64) pattern.Pattern[T] {
		return pattern.Late(p, floatFraction(n))
	}))
	reg.Register("rev", func(p pattern.Pattern[T], arg string, variant OperatorVariant) (pattern.Pattern[T], error) {
		return pattern.Rev(p), nil
	})
	reg.Register("degrade", func(p pattern.Pattern[T], arg string, variant OperatorVariant) (pattern.Pattern[T], error) {
		prob := 0.5
		if strings.TrimSpace(arg) != "" {
			v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
			if err != nil {
				return p, fmt.Errorf("degrade: %w", err)
			}
			prob = v
		}
		return pattern.DegradeBy(p, prob), nil
	})
}

// RegisterArithmeticOperators registers add/mul/range on a float64
// registry; these operate directly on the pattern's numeric values and so
// need a concrete numeric T, unlike the structural operators above.
func RegisterArithmeticOperators(reg *OperatorRegistry[float64]) {
	reg.Register("add", arithmetic(func(a, b float64) float64 { return a + b }))
	reg.Register("mul", arithmetic(func(a, b float64) float64 { return a * b }))
	reg.Register("range", func(p pattern.Pattern[float64], arg string, variant OperatorVariant) (pattern.Pattern[float64], error) {
		parts := strings.Split(arg, ",")
		if len(parts) != 2 {
			return p, fmt.Errorf("range: expected \"lo,hi\", got %q", arg)
		}
		lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return p, fmt.Errorf("range: %w", err)
		}
		hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return p, fmt.Errorf("range: %w", err)
		}
		return pattern.Fmap(p, func(v float64) float64 { return lo + v*(hi-lo) }), nil
	})
}

func arithmetic(combine func(a, b float64) float64) OperatorFunc[float64] {
	return func(p pattern.Pattern[float64], arg string, variant OperatorVariant) (pattern.Pattern[float64], error) {
		argPat, err := compileRate(arg)
		if err != nil {
			return p, err
		}
		switch variant {
		case VariantOut:
			return pattern.AppRight(p, argPat, combine), nil
		case VariantMix, VariantSqueeze:
			return pattern.AppBoth(p, argPat, combine), nil
		default:
			return pattern.AppLeft(p, argPat, combine), nil
		}
	}
}

func floatFraction(v float64) fraction.Fraction {
	return fraction.FromFloat(v)
}
