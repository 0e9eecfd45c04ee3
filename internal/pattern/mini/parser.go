package mini

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/patchwerk/engine/internal/pattern/hap"
)

// ParseError reports a mini-notation syntax problem together with the
// offending source span (§7: "for mini-notation, the source character
// range").
type ParseError struct {
	Message string
	Span    hap.SourceSpan
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mini-notation parse error at [%d,%d): %s", e.Span.Start, e.Span.End, e.Message)
}

const structuralChars = "[]<>{}(),|~$*/!?\"'"

type parser struct {
	src string
	pos int
}

// Parse parses src into a Program. It never panics on malformed input;
// every failure is returned as a *ParseError.
func Parse(src string) (prog Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*ParseError); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()
	p := &parser{src: src}
	p.skipWS()
	base := p.parseStack()
	var ops []OperatorCall
	for {
		p.skipWS()
		if !p.consumeByte('$') {
			break
		}
		ops = append(ops, p.parseOperatorCall())
	}
	p.skipWS()
	if p.pos != len(p.src) {
		p.fail(p.pos, p.pos+1, "unexpected trailing input %q", p.rest())
	}
	return Program{Base: base, Operators: ops}, nil
}

func (p *parser) rest() string {
	if p.pos >= len(p.src) {
		return ""
	}
	end := p.pos + 12
	if end > len(p.src) {
		end = len(p.src)
	}
	return p.src[p.pos:end]
}

func (p *parser) fail(start, end int, format string, args ...any) {
	panic(&ParseError{Message: fmt.Sprintf(format, args...), Span: hap.SourceSpan{Start: start, End: end}})
}

func (p *parser) skipWS() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func (p *parser) peekByte() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *parser) consumeByte(c byte) bool {
	if b, ok := p.peekByte(); ok && b == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectByte(c byte) {
	if !p.consumeByte(c) {
		p.fail(p.pos, p.pos+1, "expected %q", c)
	}
}

// parseStack := orChoice (',' orChoice)*
func (p *parser) parseStack() Node {
	start := p.pos
	first := p.parseOrChoice()
	children := []Node{first}
	for {
		p.skipWS()
		if !p.consumeByte(',') {
			break
		}
		p.skipWS()
		children = append(children, p.parseOrChoice())
	}
	if len(children) == 1 {
		return children[0]
	}
	return Node{Kind: NodeStack, Children: children, Span: hap.SourceSpan{Start: start, End: p.pos}}
}

// parseOrChoice := sequence ('|' sequence)*
func (p *parser) parseOrChoice() Node {
	start := p.pos
	first := p.parseSequence()
	children := []Node{first}
	for {
		p.skipWS()
		if !p.consumeByte('|') {
			break
		}
		p.skipWS()
		children = append(children, p.parseSequence())
	}
	if len(children) == 1 {
		return children[0]
	}
	return Node{Kind: NodeRandomChoice, Children: children, Span: hap.SourceSpan{Start: start, End: p.pos}}
}

// parseSequence := modified (ws+ modified)*, stopping at a structural
// delimiter belonging to an enclosing group (']' '>' '}' ',' '|' '$' or
// end of input).
func (p *parser) parseSequence() Node {
	start := p.pos
	var children []Node
	for {
		p.skipWS()
		if p.atSequenceEnd() {
			break
		}
		children = append(children, p.parseModified())
	}
	if len(children) == 0 {
		p.fail(start, p.pos, "expected a pattern")
	}
	if len(children) == 1 {
		return children[0]
	}
	return Node{Kind: NodeSequence, Children: children, Span: hap.SourceSpan{Start: start, End: p.pos}}
}

func (p *parser) atSequenceEnd() bool {
	b, ok := p.peekByte()
	if !ok {
		return true
	}
	switch b {
	case ']', '>', '}', ')', ',', '|', '$':
		return true
	}
	return false
}

// parseModified := term modifier*
func (p *parser) parseModified() Node {
	start := p.pos
	n := p.parseTerm()
	for {
		b, ok := p.peekByte()
		if !ok {
			break
		}
		base := n
		switch b {
		case '*':
			p.pos++
			n = Node{Kind: NodeFast, Base: &base, Factor: p.parseNumber(), Span: hap.SourceSpan{Start: start, End: p.pos}}
		case '/':
			p.pos++
			n = Node{Kind: NodeSlow, Base: &base, Factor: p.parseNumber(), Span: hap.SourceSpan{Start: start, End: p.pos}}
		case '!':
			p.pos++
			count := 2
			if cb, ok := p.peekByte(); ok && isDigit(cb) {
				count = int(p.parseNumber())
			}
			n = Node{Kind: NodeReplicate, Base: &base, ReplicateN: count, Span: hap.SourceSpan{Start: start, End: p.pos}}
		case '?':
			p.pos++
			prob := 0.5
			has := false
			if cb, ok := p.peekByte(); ok && (isDigit(cb) || cb == '.') {
				prob = p.parseNumber()
				has = true
			}
			n = Node{Kind: NodeDegrade, Base: &base, DegradeProb: prob, HasDegradeProb: has, Span: hap.SourceSpan{Start: start, End: p.pos}}
		case '(':
			p.pos++
			pulses := int(p.parseNumber())
			p.skipWS()
			p.expectByte(',')
			p.skipWS()
			steps := int(p.parseNumber())
			rotation := 0
			p.skipWS()
			if p.consumeByte(',') {
				p.skipWS()
				rotation = int(p.parseNumber())
				p.skipWS()
			}
			p.expectByte(')')
			n = Node{Kind: NodeEuclidean, Base: &base, EuclidPulses: pulses, EuclidSteps: steps, EuclidRotation: rotation, Span: hap.SourceSpan{Start: start, End: p.pos}}
		default:
			return n
		}
	}
	return n
}

func (p *parser) parseNumber() float64 {
	start := p.pos
	if b, ok := p.peekByte(); ok && (b == '-' || b == '+') {
		p.pos++
	}
	for {
		b, ok := p.peekByte()
		if !ok || !(isDigit(b) || b == '.') {
			break
		}
		p.pos++
	}
	if p.pos == start {
		p.fail(start, start+1, "expected a number")
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		p.fail(start, p.pos, "invalid number %q", p.src[start:p.pos])
	}
	return v
}

// parseTerm := atom | '~' | '[' stack ']' | '<' slowSeq '>' | '{' polymeter '}'
func (p *parser) parseTerm() Node {
	start := p.pos
	b, ok := p.peekByte()
	if !ok {
		p.fail(start, start+1, "unexpected end of input")
	}
	switch b {
	case '~':
		p.pos++
		return Node{Kind: NodeRest, Span: hap.SourceSpan{Start: start, End: p.pos}}
	case '[':
		p.pos++
		p.skipWS()
		inner := p.parseStack()
		p.skipWS()
		p.expectByte(']')
		inner.Span = hap.SourceSpan{Start: start, End: p.pos}
		return inner
	case '<':
		p.pos++
		p.skipWS()
		var children []Node
		for {
			p.skipWS()
			if b, ok := p.peekByte(); ok && b == '>' {
				break
			}
			children = append(children, p.parseModified())
		}
		p.expectByte('>')
		return Node{Kind: NodeSlowCat, Children: children, Span: hap.SourceSpan{Start: start, End: p.pos}}
	case '{':
		p.pos++
		p.skipWS()
		var alts []Node
		alts = append(alts, p.parseSequence())
		for {
			p.skipWS()
			if !p.consumeByte(',') {
				break
			}
			p.skipWS()
			alts = append(alts, p.parseSequence())
		}
		p.skipWS()
		p.expectByte('}')
		return Node{Kind: NodePolyMeter, Children: alts, Span: hap.SourceSpan{Start: start, End: p.pos}}
	case '"':
		p.pos++
		for {
			b, ok := p.peekByte()
			if !ok {
				p.fail(start, p.pos, "unterminated string")
			}
			p.pos++
			if b == '"' {
				break
			}
		}
		text := p.src[start:p.pos]
		return Node{Kind: NodeAtom, Atom: ParseAtom(text), Span: hap.SourceSpan{Start: start, End: p.pos}}
	default:
		tok := p.scanToken()
		if tok == "" {
			p.fail(start, start+1, "unexpected character %q", string(b))
		}
		return Node{Kind: NodeAtom, Atom: ParseAtom(tok), Span: hap.SourceSpan{Start: start, End: p.pos}}
	}
}

// scanToken consumes a contiguous run of non-whitespace, non-structural
// characters, e.g. "c4", "440hz", "bd", "3.5".
func (p *parser) scanToken() string {
	start := p.pos
	for p.pos < len(p.src) {
		b := p.src[p.pos]
		if isSpace(b) || strings.IndexByte(structuralChars, b) >= 0 {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

// parseOperatorCall parses `name[.variant](arg)` after the leading '$'
// has already been consumed.
func (p *parser) parseOperatorCall() OperatorCall {
	start := p.pos
	p.skipWS()
	name := p.scanIdent()
	if name == "" {
		p.fail(start, p.pos+1, "expected operator name after '$'")
	}
	variant := ""
	if p.consumeByte('.') {
		variant = p.scanIdent()
	}
	arg := ""
	if p.consumeByte('(') {
		argStart := p.pos
		depth := 1
		for p.pos < len(p.src) && depth > 0 {
			switch p.src[p.pos] {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth > 0 {
				p.pos++
			}
		}
		arg = p.src[argStart:p.pos]
		p.expectByte(')')
	}
	return OperatorCall{Name: name, Variant: variant, Arg: arg, Span: hap.SourceSpan{Start: start, End: p.pos}}
}

func (p *parser) scanIdent() string {
	start := p.pos
	for p.pos < len(p.src) {
		b := p.src[p.pos]
		if isSpace(b) || strings.IndexByte(structuralChars+".", b) >= 0 {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}
