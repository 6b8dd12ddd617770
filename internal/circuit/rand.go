package circuit

import "math/rand"

// Rand is a seedable uniform [0,1) source, injected so half-open probe
// admission is reproducible in tests.
type Rand interface {
	Float64() float64
}

// systemRand wraps math/rand's package-level source.
type systemRand struct{}

// Float64 returns a pseudo-random number in [0,1).
func (systemRand) Float64() float64 { return rand.Float64() }

// SystemRand is the production Rand backed by math/rand.
var SystemRand Rand = systemRand{}
