package plotscript

import (
	"fmt"
	"math"
	"slices"
)

// ScriptError locates a problem in a plot script.
type ScriptError struct {
	Line, Col int
	Msg       string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("line %d col %d: %s", e.Line, e.Col, e.Msg)
}

type kind int

const (
	kNone kind = iota
	kNumber
	kString
	kArray
	kList
	kData
)

func (k kind) String() string {
	return [...]string{"None", "number", "string", "array", "list", "d"}[k]
}

type value struct {
	kind kind
	num  float64
	str  string
	arr  []float64
	list []value
}

var none = value{kind: kNone}

// Data is the column source a script indexes as d.
type Data interface {
	Len() int
	Ckeys() []string
	Column(i int) ([]float64, error)
	ColumnByKey(key string) ([]float64, error)
}

// functions callable from scripts, applied element-wise.
var functions = map[string]func(float64) float64{
	"sqrt":  math.Sqrt,
	"abs":   math.Abs,
	"log":   math.Log,
	"log10": math.Log10,
	"exp":   math.Exp,
	"sin":   math.Sin,
	"cos":   math.Cos,
}

type interp struct {
	toks []token
	pos  int
	data Data
	vars map[string]value
}

func (p *interp) peek() token { return p.toks[p.pos] }

func (p *interp) next() token {
	t := p.toks[p.pos]
	if t.kind != tkEOF {
		p.pos++
	}
	return t
}

func (p *interp) errorf(t token, format string, args ...interface{}) error {
	return &ScriptError{Line: t.line, Col: t.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *interp) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tkPunct && t.text == s
}

func (p *interp) expect(s string) error {
	t := p.next()
	if t.kind != tkPunct || t.text != s {
		return p.errorf(t, "expected %q, found %s", s, t)
	}
	return nil
}

// run executes every statement.
func (p *interp) run() error {
	for {
		t := p.peek()
		switch t.kind {
		case tkEOF:
			return nil
		case tkNewline:
			p.next()
			continue
		case tkIdent:
		default:
			return p.errorf(t, "expected an assignment, found %s", t)
		}
		name := p.next()
		if name.text == "d" {
			return p.errorf(name, "d cannot be reassigned")
		}
		if err := p.expect("="); err != nil {
			return err
		}
		v, err := p.expr()
		if err != nil {
			return err
		}
		p.vars[name.text] = v
		if end := p.peek(); end.kind != tkNewline && end.kind != tkEOF {
			return p.errorf(end, "unexpected %s after assignment", end)
		}
	}
}

func (p *interp) expr() (value, error) {
	left, err := p.term()
	if err != nil {
		return none, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		op := p.next()
		right, err := p.term()
		if err != nil {
			return none, err
		}
		if left, err = p.arith(op, left, right); err != nil {
			return none, err
		}
	}
	return left, nil
}

func (p *interp) term() (value, error) {
	left, err := p.unary()
	if err != nil {
		return none, err
	}
	for p.isPunct("*") || p.isPunct("/") {
		op := p.next()
		right, err := p.unary()
		if err != nil {
			return none, err
		}
		if left, err = p.arith(op, left, right); err != nil {
			return none, err
		}
	}
	return left, nil
}

func (p *interp) unary() (value, error) {
	if p.isPunct("-") {
		op := p.next()
		v, err := p.unary()
		if err != nil {
			return none, err
		}
		return p.arith(token{kind: tkPunct, text: "*", line: op.line, col: op.col}, value{kind: kNumber, num: -1}, v)
	}
	return p.postfix()
}

func (p *interp) postfix() (value, error) {
	v, err := p.primary()
	if err != nil {
		return none, err
	}
	for p.isPunct("[") {
		open := p.next()
		if v, err = p.index(open, v); err != nil {
			return none, err
		}
	}
	return v, nil
}

func (p *interp) primary() (value, error) {
	t := p.next()
	switch t.kind {
	case tkNumber:
		return value{kind: kNumber, num: t.num}, nil
	case tkString:
		return value{kind: kString, str: t.text}, nil
	case tkIdent:
		switch t.text {
		case "None":
			return none, nil
		case "d":
			return value{kind: kData}, nil
		}
		if fn, ok := functions[t.text]; ok {
			return p.call(t, fn)
		}
		v, ok := p.vars[t.text]
		if !ok {
			return none, p.errorf(t, "name %q is not defined", t.text)
		}
		return v, nil
	case tkPunct:
		switch t.text {
		case "(":
			items, trailing, err := p.items(")")
			if err != nil {
				return none, err
			}
			// (a) is a in parentheses, (a,) and () are tuples
			if len(items) == 1 && !trailing {
				return items[0], nil
			}
			return value{kind: kList, list: items}, nil
		case "[":
			items, _, err := p.items("]")
			if err != nil {
				return none, err
			}
			return value{kind: kList, list: items}, nil
		}
	}
	return none, p.errorf(t, "unexpected %s", t)
}

// items parses a comma separated sequence up to and including closer.
func (p *interp) items(closer string) ([]value, bool, error) {
	var out []value
	trailing := false
	for !p.isPunct(closer) {
		v, err := p.expr()
		if err != nil {
			return nil, false, err
		}
		out = append(out, v)
		trailing = false
		if !p.isPunct(",") {
			break
		}
		p.next()
		trailing = true
	}
	if err := p.expect(closer); err != nil {
		return nil, false, err
	}
	return out, trailing, nil
}

func (p *interp) call(name token, fn func(float64) float64) (value, error) {
	if err := p.expect("("); err != nil {
		return none, err
	}
	arg, err := p.expr()
	if err != nil {
		return none, err
	}
	if err := p.expect(")"); err != nil {
		return none, err
	}
	switch arg.kind {
	case kNumber:
		return value{kind: kNumber, num: fn(arg.num)}, nil
	case kArray:
		out := make([]float64, len(arg.arr))
		for i, x := range arg.arr {
			out[i] = fn(x)
		}
		return value{kind: kArray, arr: out}, nil
	}
	return none, p.errorf(name, "%s() needs a number or array, got %s", name.text, arg.kind)
}

// index handles d[i], d['key'], a[i], a[lo:hi] and list[i].
func (p *interp) index(open token, v value) (value, error) {
	var lo, hi *int
	slice := false

	if !p.isPunct(":") {
		k, err := p.expr()
		if err != nil {
			return none, err
		}
		if k.kind == kString {
			if err := p.expect("]"); err != nil {
				return none, err
			}
			if v.kind != kData {
				return none, p.errorf(open, "only d can be indexed by name")
			}
			col, err := p.data.ColumnByKey(k.str)
			if err != nil {
				return none, p.errorf(open, "%v", err)
			}
			return value{kind: kArray, arr: col}, nil
		}
		n, err := p.integer(open, k)
		if err != nil {
			return none, err
		}
		lo = &n
	}
	if p.isPunct(":") {
		p.next()
		slice = true
		if !p.isPunct("]") {
			k, err := p.expr()
			if err != nil {
				return none, err
			}
			n, err := p.integer(open, k)
			if err != nil {
				return none, err
			}
			hi = &n
		}
	}
	if err := p.expect("]"); err != nil {
		return none, err
	}

	switch v.kind {
	case kData:
		if slice {
			return none, p.errorf(open, "d cannot be sliced, index a column first")
		}
		i := *lo
		if i < 0 {
			i += p.data.Len()
		}
		col, err := p.data.Column(i)
		if err != nil {
			return none, p.errorf(open, "%v", err)
		}
		return value{kind: kArray, arr: col}, nil
	case kArray:
		if slice {
			a, b := bounds(lo, hi, len(v.arr))
			return value{kind: kArray, arr: slices.Clone(v.arr[a:b])}, nil
		}
		i := *lo
		if i < 0 {
			i += len(v.arr)
		}
		if i < 0 || i >= len(v.arr) {
			return none, p.errorf(open, "index %d out of range for %d values", *lo, len(v.arr))
		}
		return value{kind: kNumber, num: v.arr[i]}, nil
	case kList:
		if slice {
			a, b := bounds(lo, hi, len(v.list))
			return value{kind: kList, list: slices.Clone(v.list[a:b])}, nil
		}
		i := *lo
		if i < 0 {
			i += len(v.list)
		}
		if i < 0 || i >= len(v.list) {
			return none, p.errorf(open, "index %d out of range for %d items", *lo, len(v.list))
		}
		return v.list[i], nil
	}
	return none, p.errorf(open, "%s cannot be indexed", v.kind)
}

func (p *interp) integer(at token, v value) (int, error) {
	if v.kind != kNumber || v.num != math.Trunc(v.num) {
		return 0, p.errorf(at, "index must be an integer, got %s", v.kind)
	}
	return int(v.num), nil
}

// bounds clamps Python style slice bounds.
func bounds(lo, hi *int, n int) (int, int) {
	clamp := func(p *int, def int) int {
		if p == nil {
			return def
		}
		i := *p
		if i < 0 {
			i += n
		}
		return max(0, min(i, n))
	}
	a, b := clamp(lo, 0), clamp(hi, n)
	if b < a {
		b = a
	}
	return a, b
}

func (p *interp) arith(op token, a, b value) (value, error) {
	apply := func(x, y float64) float64 {
		switch op.text {
		case "+":
			return x + y
		case "-":
			return x - y
		case "*":
			return x * y
		default:
			return x / y
		}
	}
	switch {
	case a.kind == kNumber && b.kind == kNumber:
		return value{kind: kNumber, num: apply(a.num, b.num)}, nil
	case a.kind == kArray && b.kind == kNumber:
		out := make([]float64, len(a.arr))
		for i := range a.arr {
			out[i] = apply(a.arr[i], b.num)
		}
		return value{kind: kArray, arr: out}, nil
	case a.kind == kNumber && b.kind == kArray:
		out := make([]float64, len(b.arr))
		for i := range b.arr {
			out[i] = apply(a.num, b.arr[i])
		}
		return value{kind: kArray, arr: out}, nil
	case a.kind == kArray && b.kind == kArray:
		if len(a.arr) != len(b.arr) {
			return none, p.errorf(op, "operands have %d and %d values", len(a.arr), len(b.arr))
		}
		out := make([]float64, len(a.arr))
		for i := range a.arr {
			out[i] = apply(a.arr[i], b.arr[i])
		}
		return value{kind: kArray, arr: out}, nil
	case a.kind == kString && b.kind == kString && op.text == "+":
		return value{kind: kString, str: a.str + b.str}, nil
	}
	return none, p.errorf(op, "unsupported operands %s %s %s", a.kind, op.text, b.kind)
}
