package arima

import "math"

// constrainStationary maps an unconstrained vector onto the coefficients of a
// stationary AR polynomial. Each element becomes a partial autocorrelation in
// (-1, 1) and the Durbin-Levinson recursion turns those into coefficients.
func constrainStationary(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	prev := make([]float64, n)
	cur := make([]float64, n)
	for k := 0; k < n; k++ {
		r := x[k] / math.Sqrt(1+x[k]*x[k])
		for j := 0; j < k; j++ {
			cur[j] = prev[j] - r*prev[k-1-j]
		}
		cur[k] = r
		copy(prev, cur)
	}
	return cur
}

func clampPACF(r float64) float64 {
	const limit = 0.98
	switch {
	case math.IsNaN(r):
		return 0
	case r > limit:
		return limit
	case r < -limit:
		return -limit
	}
	return r
}

// constrainParams splits x into stationary AR and invertible MA coefficients.
func constrainParams(x []float64, p, q int) (ar, ma []float64) {
	ar = constrainStationary(x[:p])
	ma = constrainStationary(x[p : p+q])
	for i := range ma {
		ma[i] = -ma[i]
	}
	return ar, ma
}
