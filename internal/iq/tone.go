package iq

import "math"

// Tone generates a complex sinusoid at a baseband offset, keeping phase
// across calls.
type Tone struct {
	Freq      float64 // Hz, may be negative
	Rate      float64 // samples per second
	Amplitude float64 // 0..1 of full scale

	phase float64
}

// Fill writes len(dst)/SampleSize samples into dst.
func (t *Tone) Fill(dst []byte) {
	step := 2 * math.Pi * t.Freq / t.Rate
	n := len(dst) / SampleSize
	I := make([]float64, n)
	Q := make([]float64, n)
	for k := 0; k < n; k++ {
		I[k] = t.Amplitude * math.Cos(t.phase)
		Q[k] = t.Amplitude * math.Sin(t.phase)
		t.phase = math.Mod(t.phase+step, 2*math.Pi)
	}
	_, _ = Interleave(dst, I, Q)
}
