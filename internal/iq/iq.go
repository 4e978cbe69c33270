// Package iq converts the interleaved signed 16-bit I/Q samples carried in
// superframes and measures them.
package iq

import (
	"encoding/binary"
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// SampleSize is the byte width of one int16 I + int16 Q sample.
const SampleSize = 4

var errOddBuffer = errors.New("iq: buffer length not multiple of 4")

// Deinterleave converts an interleaved int16 LE I/Q buffer into I and Q
// slices normalised to -1..+1.
func Deinterleave(buf []byte) ([]float64, []float64, error) {
	if len(buf)%SampleSize != 0 {
		return nil, nil, errOddBuffer
	}
	n := len(buf) / SampleSize
	I := make([]float64, n)
	Q := make([]float64, n)
	for k := 0; k < n; k++ {
		off := k * SampleSize
		I[k] = float64(int16(binary.LittleEndian.Uint16(buf[off:]))) / math.MaxInt16
		Q[k] = float64(int16(binary.LittleEndian.Uint16(buf[off+2:]))) / math.MaxInt16
	}
	return I, Q, nil
}

// Interleave writes I/Q values, clipped to -1..+1, as int16 LE pairs into
// dst and returns the bytes written.
func Interleave(dst []byte, I, Q []float64) (int, error) {
	if len(I) != len(Q) {
		return 0, errors.New("iq: I/Q length mismatch")
	}
	if len(dst) < len(I)*SampleSize {
		return 0, errors.New("iq: destination too small")
	}
	for k := range I {
		off := k * SampleSize
		binary.LittleEndian.PutUint16(dst[off:], uint16(toInt16(I[k])))
		binary.LittleEndian.PutUint16(dst[off+2:], uint16(toInt16(Q[k])))
	}
	return len(I) * SampleSize, nil
}

func toInt16(v float64) int16 {
	return int16(math.Round(max(min(v, 1), -1) * math.MaxInt16))
}

// AppendCF32 appends buf converted to interleaved float32 LE I/Q, the
// layout most SDR tools call cf32.
func AppendCF32(dst, buf []byte) ([]byte, error) {
	if len(buf)%SampleSize != 0 {
		return dst, errOddBuffer
	}
	for off := 0; off < len(buf); off += 2 {
		v := float32(int16(binary.LittleEndian.Uint16(buf[off:]))) / math.MaxInt16
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst, nil
}

// PowerDBFS returns the mean power of a buffer relative to full scale.
func PowerDBFS(buf []byte) (float64, error) {
	I, Q, err := Deinterleave(buf)
	if err != nil {
		return 0, err
	}
	if len(I) == 0 {
		return math.Inf(-1), nil
	}
	p := (floats.Dot(I, I) + floats.Dot(Q, Q)) / float64(len(I))
	if p == 0 {
		return math.Inf(-1), nil
	}
	return 10 * math.Log10(p), nil
}

// PeakFrequency returns the baseband offset in Hz of the strongest spectral
// line in buf sampled at rate.
func PeakFrequency(buf []byte, rate float64) (float64, error) {
	I, Q, err := Deinterleave(buf)
	if err != nil {
		return 0, err
	}
	n := len(I)
	if n == 0 {
		return 0, errors.New("iq: no samples")
	}
	seq := make([]complex128, n)
	for k := range seq {
		seq[k] = complex(I[k], Q[k])
	}
	coeff := fourier.NewCmplxFFT(n).Coefficients(nil, seq)
	mag := make([]float64, n)
	for k, c := range coeff {
		mag[k] = cmplx.Abs(c)
	}
	bin := floats.MaxIdx(mag)
	if bin > n/2 {
		bin -= n
	}
	return float64(bin) * rate / float64(n), nil
}
