package pcit1

import (
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Simulated count statistics and counter width.
const (
	simMean       = 50
	simSigma      = 8
	maxIteration  = 65535
	maxSimPerRead = 9
)

// simulator stands in for the instrument when no port is available.
type simulator struct {
	n    int
	rng  *rand.Rand
	dist distuv.Normal
}

func newSimulator(seed uint64) *simulator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewSource(seed)
	return &simulator{
		rng:  rand.New(src),
		dist: distuv.Normal{Mu: simMean, Sigma: simSigma, Src: src},
	}
}

// next advances the 16-bit iteration counter, which sticks at
// maxIteration, and draws a count.
func (s *simulator) next() Reading {
	if s.n < maxIteration {
		s.n++
	}
	c := int(math.Round(s.dist.Rand()))
	if c < 0 {
		c = 0
	}
	return Reading{Iteration: s.n, Count: c}
}

// burst returns between 1 and maxSimPerRead readings.
func (s *simulator) burst() []Reading {
	k := 1 + s.rng.Intn(maxSimPerRead)
	out := make([]Reading, k)
	for i := range out {
		out[i] = s.next()
	}
	return out
}
