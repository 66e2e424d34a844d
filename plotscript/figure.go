package plotscript

import (
	"fmt"
	"slices"
)

// Series is one curve to draw.
type Series struct {
	// X is nil when the array index is used as abscissa.
	X []float64
	Y []float64
	// EY holds y error bars, nil when absent.
	EY     []float64
	XLabel string
	YLabel string
}

// Figure is the result of running a plot script.
type Figure struct {
	Series []Series
}

// Eval runs script against data. The script must define y and may define
// x, ey, xlabels and ylabels; see Generate for examples.
func Eval(script string, data Data) (Figure, error) {
	toks, err := lex(script)
	if err != nil {
		return Figure{}, err
	}
	in := &interp{
		toks: toks,
		data: data,
		vars: map[string]value{
			"x":       none,
			"y":       none,
			"ex":      none,
			"ey":      none,
			"xlabels": {kind: kString, str: "x"},
			"ylabels": {kind: kString, str: "y"},
		},
	}
	if err := in.run(); err != nil {
		return Figure{}, err
	}
	return in.figure()
}

func (p *interp) figure() (Figure, error) {
	fail := func(format string, args ...interface{}) (Figure, error) {
		return Figure{}, &ScriptError{Msg: fmt.Sprintf(format, args...)}
	}

	ys, err := arrays("y", p.vars["y"], false)
	if err != nil {
		return Figure{}, err
	}
	n := len(ys)
	if n == 0 {
		return Figure{}, nil
	}

	xs, err := arrays("x", p.vars["x"], true)
	if err != nil {
		return Figure{}, err
	}
	if xs, err = broadcast("x", xs, n); err != nil {
		return Figure{}, err
	}

	eys, err := errorBars(p.vars["ey"], ys)
	if err != nil {
		return Figure{}, err
	}

	xl, err := labels("xlabels", p.vars["xlabels"], n)
	if err != nil {
		return Figure{}, err
	}
	yl, err := labels("ylabels", p.vars["ylabels"], n)
	if err != nil {
		return Figure{}, err
	}

	out := Figure{Series: make([]Series, n)}
	for i := range ys {
		if xs[i] != nil && len(xs[i]) != len(ys[i]) {
			return fail("x[%d] has %d values but y[%d] has %d", i, len(xs[i]), i, len(ys[i]))
		}
		if eys[i] != nil && len(eys[i]) != len(ys[i]) {
			return fail("ey[%d] has %d values but y[%d] has %d", i, len(eys[i]), i, len(ys[i]))
		}
		out.Series[i] = Series{X: xs[i], Y: ys[i], EY: eys[i], XLabel: xl[i], YLabel: yl[i]}
	}
	return out, nil
}

// arrays flattens an array or a list of arrays. None entries are kept as
// nil when allowNone is set.
func arrays(name string, v value, allowNone bool) ([][]float64, error) {
	one := func(v value) ([]float64, error) {
		switch v.kind {
		case kArray:
			return v.arr, nil
		case kNone:
			if allowNone {
				return nil, nil
			}
		}
		return nil, &ScriptError{Msg: fmt.Sprintf("%s must hold arrays, got %s", name, v.kind)}
	}
	switch v.kind {
	case kNone:
		if allowNone {
			return [][]float64{nil}, nil
		}
		return nil, &ScriptError{Msg: fmt.Sprintf("%s is not defined", name)}
	case kList:
		out := make([][]float64, 0, len(v.list))
		for _, item := range v.list {
			a, err := one(item)
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		}
		return out, nil
	}
	a, err := one(v)
	if err != nil {
		return nil, err
	}
	return [][]float64{a}, nil
}

func broadcast(name string, xs [][]float64, n int) ([][]float64, error) {
	switch len(xs) {
	case n:
		return xs, nil
	case 1:
		out := make([][]float64, n)
		for i := range out {
			out[i] = xs[0]
		}
		return out, nil
	case 0:
		return make([][]float64, n), nil
	}
	return nil, &ScriptError{Msg: fmt.Sprintf("%s has %d entries for %d y data sets", name, len(xs), n)}
}

// errorBars accepts None, a number, an array, or a list of those.
func errorBars(v value, ys [][]float64) ([][]float64, error) {
	expand := func(v value, y []float64) ([]float64, error) {
		switch v.kind {
		case kNone:
			return nil, nil
		case kNumber:
			out := make([]float64, len(y))
			for i := range out {
				out[i] = v.num
			}
			return out, nil
		case kArray:
			return slices.Clone(v.arr), nil
		}
		return nil, &ScriptError{Msg: fmt.Sprintf("ey must be numbers or arrays, got %s", v.kind)}
	}

	items := []value{v}
	if v.kind == kList {
		items = v.list
	}
	if len(items) == 1 && len(ys) > 1 {
		items = slices.Repeat(items, len(ys))
	}
	if len(items) != len(ys) {
		return nil, &ScriptError{Msg: fmt.Sprintf("ey has %d entries for %d y data sets", len(items), len(ys))}
	}
	out := make([][]float64, len(ys))
	for i := range ys {
		e, err := expand(items[i], ys[i])
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func labels(name string, v value, n int) ([]string, error) {
	var ss []string
	switch v.kind {
	case kString:
		ss = []string{v.str}
	case kNone:
		ss = []string{""}
	case kList:
		for _, item := range v.list {
			if item.kind != kString {
				return nil, &ScriptError{Msg: fmt.Sprintf("%s must be strings, got %s", name, item.kind)}
			}
			ss = append(ss, item.str)
		}
	default:
		return nil, &ScriptError{Msg: fmt.Sprintf("%s must be strings, got %s", name, v.kind)}
	}
	out := make([]string, n)
	for i := range out {
		switch {
		case i < len(ss):
			out[i] = ss[i]
		case len(ss) > 0:
			out[i] = ss[len(ss)-1]
		}
	}
	return out, nil
}
