// Package dropper holds the datagram loss models used by the channel
// simulator.
package dropper

import (
	"math/rand"
)

// Decider decides, one datagram at a time, whether it is lost.
type Decider interface {
	Drop() bool
}

// Never is the lossless Decider.
type Never struct{}

func (Never) Drop() bool { return false }

// Bernoulli implements a simple u<p drop decision.
type Bernoulli struct {
	p   float64
	rng *rand.Rand
}

func New(p float64, rng *rand.Rand) *Bernoulli { return &Bernoulli{p: p, rng: rng} }

func (b *Bernoulli) Drop() bool {
	if b.p <= 0 {
		return false
	}
	if b.p >= 1 {
		return true
	}
	return b.rng.Float64() < b.p
}

// Burst is a two-state Gilbert model: every datagram sent in the bad state
// is lost, none in the good state.
type Burst struct {
	toBad  float64
	toGood float64
	bad    bool
	rng    *rand.Rand
}

// NewBurst returns a Burst whose long run loss rate is loss and whose loss
// runs average meanBurst datagrams.
func NewBurst(loss, meanBurst float64, rng *rand.Rand) *Burst {
	if meanBurst < 1 {
		meanBurst = 1
	}
	b := &Burst{toGood: 1 / meanBurst, rng: rng}
	switch {
	case loss <= 0:
		b.toBad = 0
	case loss >= 1:
		b.toBad, b.toGood = 1, 0
	default:
		b.toBad = loss * b.toGood / (1 - loss)
	}
	return b
}

func (b *Burst) Drop() bool {
	if b.bad {
		if b.rng.Float64() < b.toGood {
			b.bad = false
		}
	} else if b.rng.Float64() < b.toBad {
		b.bad = true
	}
	return b.bad
}
