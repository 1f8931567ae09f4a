package ft8

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

/*
 * Noise Floor Baseline
 * Fits a low-order polynomial to the lower envelope of the averaged
 * spectrum. Signals sit above the envelope, so the fit tracks the noise
 * floor across the passband.
 */

const (
	baselineSegments   = 10
	baselinePercentile = 10
	baselineTerms      = 5
)

// fitBaseline returns the noise-floor estimate in dB for each bin of the
// averaged power spectrum.
func fitBaseline(savg []float64) []float64 {
	npts := len(savg)
	sbase := make([]float64, npts)
	if npts < baselineSegments {
		return sbase
	}

	sdb := make([]float64, npts)
	for i, p := range savg {
		if p > 0 {
			sdb[i] = 10.0 * math.Log10(p)
		} else {
			sdb[i] = -120.0
		}
	}

	// Collect the lower-envelope points: per segment, everything at or
	// below the 10th percentile.
	i0 := npts / 2
	nlen := npts / baselineSegments
	var xs, ys []float64
	for n := 0; n < baselineSegments; n++ {
		ja := n * nlen
		jb := ja + nlen - 1
		if jb >= npts {
			jb = npts - 1
		}
		base := percentile(sdb[ja:jb+1], baselinePercentile)
		for i := ja; i <= jb; i++ {
			if sdb[i] <= base {
				xs = append(xs, float64(i-i0))
				ys = append(ys, sdb[i])
			}
		}
	}

	coeffs := polyfit(xs, ys, baselineTerms)
	for i := range sbase {
		t := float64(i - i0)
		v := 0.0
		for j := len(coeffs) - 1; j >= 0; j-- {
			v = v*t + coeffs[j]
		}
		sbase[i] = v + 0.65
	}
	return sbase
}

// percentile returns the npct-th percentile of data without modifying it.
func percentile(data []float64, npct int) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	idx := len(sorted) * npct / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// polyfit least-squares fits a polynomial of nterms coefficients to the
// points, returning [a0, a1, ...] lowest order first.
func polyfit(x, y []float64, nterms int) []float64 {
	if len(x) < nterms || len(x) != len(y) {
		return make([]float64, nterms)
	}

	// Vandermonde design matrix; QR least squares via mat.Solve.
	a := mat.NewDense(len(x), nterms, nil)
	for i, xi := range x {
		v := 1.0
		for j := 0; j < nterms; j++ {
			a.Set(i, j, v)
			v *= xi
		}
	}
	b := mat.NewVecDense(len(y), y)

	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		return make([]float64, nterms)
	}

	coeffs := make([]float64, nterms)
	for j := range coeffs {
		coeffs[j] = c.AtVec(j)
	}
	return coeffs
}
