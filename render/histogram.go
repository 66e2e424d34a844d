package render

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Hist is a histogram with len(Edges) == len(Counts)+1.
type Hist struct {
	Edges  []float64
	Counts []float64
}

// Centers returns the midpoint of every bin.
func (h Hist) Centers() []float64 {
	out := make([]float64, len(h.Counts))
	for i := range out {
		out[i] = (h.Edges[i] + h.Edges[i+1]) / 2
	}
	return out
}

// Total returns the number of values binned.
func (h Hist) Total() float64 {
	return floats.Sum(h.Counts)
}

// MaxBins bounds the bin count; wider data gets wider bins.
const MaxBins = 10000

// Histogram bins values into unit-width bins spanning min to max, the last
// bin including max. Non-finite values are ignored. When every value is
// equal a single bin centred on it is returned.
func Histogram(values []float64) Hist {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return Hist{}
	}
	slices.Sort(xs)
	lo, hi := xs[0], xs[len(xs)-1]

	var edges []float64
	switch span := hi - lo; {
	case span == 0:
		edges = []float64{lo - 0.5, lo + 0.5}
	case span < 1:
		edges = []float64{lo, hi}
	case span >= MaxBins:
		edges = linspace(lo, hi, MaxBins+1)
	default:
		edges = linspace(lo, hi, int(math.Floor(span))+1)
	}

	dividers := slices.Clone(edges)
	last := len(dividers) - 1
	dividers[last] = math.Nextafter(math.Max(dividers[last], hi), math.Inf(1))

	counts := make([]float64, len(edges)-1)
	stat.Histogram(counts, dividers, xs, nil)
	return Hist{Edges: edges, Counts: counts}
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := hi/float64(n-1) - lo/float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
