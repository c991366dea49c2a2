package arima

import (
	"fmt"
	"math"
)

// Estimate is a forecast mean with its standard error.
type Estimate struct {
	Mean   float64
	StdErr float64
}

// Forecast returns h out-of-sample estimates on the original scale.
func (m *Model) Forecast(h int) ([]Estimate, error) {
	if h < 1 {
		return nil, fmt.Errorf("arima: forecast horizon must be positive, got %d", h)
	}

	means := make([]float64, h)
	a := m.state
	for i := 0; i < h; i++ {
		means[i] = a[0]
		a = m.ss.step(a)
	}
	for k := len(m.tails) - 1; k >= 0; k-- {
		acc := m.tails[k]
		for i := range means {
			acc += means[i]
			means[i] = acc
		}
	}

	psi := psiWeights(m.AR, m.MA, m.Order.D, h)
	out := make([]Estimate, h)
	var cum float64
	for i := 0; i < h; i++ {
		cum += psi[i] * psi[i]
		out[i] = Estimate{Mean: means[i], StdErr: math.Sqrt(m.Sigma2 * cum)}
	}
	return out, nil
}

// psiWeights returns the first n MA(infinity) weights of the integrated
// process phi(B)(1-B)^d y = theta(B) e.
func psiWeights(ar, ma []float64, d, n int) []float64 {
	poly := make([]float64, len(ar)+1)
	poly[0] = 1
	for i, phi := range ar {
		poly[i+1] = -phi
	}
	for k := 0; k < d; k++ {
		next := make([]float64, len(poly)+1)
		for i, c := range poly {
			next[i] += c
			next[i+1] -= c
		}
		poly = next
	}

	psi := make([]float64, n)
	for j := 0; j < n; j++ {
		if j == 0 {
			psi[0] = 1
			continue
		}
		var v float64
		if j <= len(ma) {
			v = ma[j-1]
		}
		for i := 1; i < len(poly) && i <= j; i++ {
			v -= poly[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}
