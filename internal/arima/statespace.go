package arima

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var errFilter = errors.New("arima: kalman filter breakdown")

// stateSpace is the Harvey form of a zero-mean ARMA(p,q) process with unit
// innovation variance. State dimension is r = max(p, q+1).
type stateSpace struct {
	r  int
	t  []float64 // transition, row-major r x r
	rv []float64 // selection vector (1, theta_1, ..., theta_{r-1})
}

func newStateSpace(ar, ma []float64) *stateSpace {
	r := len(ar)
	if len(ma)+1 > r {
		r = len(ma) + 1
	}
	ss := &stateSpace{r: r, t: make([]float64, r*r), rv: make([]float64, r)}
	for i, phi := range ar {
		ss.t[i*r] = phi
	}
	for i := 0; i < r-1; i++ {
		ss.t[i*r+i+1] = 1
	}
	ss.rv[0] = 1
	for j, theta := range ma {
		ss.rv[j+1] = theta
	}
	return ss
}

// initialCovariance solves P = T P T' + R R' for the unconditional state
// covariance.
func (ss *stateSpace) initialCovariance() ([]float64, error) {
	r := ss.r
	n := r * r
	t := mat.NewDense(r, r, append([]float64(nil), ss.t...))

	var kron mat.Dense
	kron.Kronecker(t, t)

	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	var a mat.Dense
	a.Sub(mat.NewDiagDense(n, ones), &kron)

	b := mat.NewVecDense(n, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			b.SetVec(i*r+j, ss.rv[i]*ss.rv[j])
		}
	}

	var x mat.VecDense
	if err := x.SolveVec(&a, b); err != nil {
		return nil, err
	}
	p := make([]float64, n)
	for i := range p {
		p[i] = x.AtVec(i)
		if math.IsNaN(p[i]) || math.IsInf(p[i], 0) {
			return nil, errFilter
		}
	}
	return p, nil
}

type filterResult struct {
	n       int
	sumLogF float64
	sumSq   float64
	// state and cov are the one-step-ahead prediction for the observation
	// after the last one.
	state []float64
	cov   []float64
}

// sigma2 is the concentrated innovation variance.
func (f filterResult) sigma2() float64 {
	return f.sumSq / float64(f.n)
}

// logLikelihood is the exact Gaussian log-likelihood with sigma2 concentrated
// out.
func (f filterResult) logLikelihood() float64 {
	n := float64(f.n)
	return -0.5*n*(math.Log(2*math.Pi)+math.Log(f.sigma2())+1) - 0.5*f.sumLogF
}

func (ss *stateSpace) filter(w []float64) (filterResult, error) {
	r := ss.r
	p, err := ss.initialCovariance()
	if err != nil {
		return filterResult{}, err
	}
	a := make([]float64, r)
	na := make([]float64, r)
	tp := make([]float64, r*r)
	np := make([]float64, r*r)
	k := make([]float64, r)

	res := filterResult{n: len(w)}
	for _, obs := range w {
		f := p[0]
		if !(f > 0) || math.IsInf(f, 0) {
			return filterResult{}, errFilter
		}
		v := obs - a[0]
		res.sumLogF += math.Log(f)
		res.sumSq += v * v / f

		for i := 0; i < r; i++ {
			for j := 0; j < r; j++ {
				var s float64
				for l := 0; l < r; l++ {
					s += ss.t[i*r+l] * p[l*r+j]
				}
				tp[i*r+j] = s
			}
		}
		for i := 0; i < r; i++ {
			k[i] = tp[i*r] / f
		}
		for i := 0; i < r; i++ {
			var s float64
			for l := 0; l < r; l++ {
				s += ss.t[i*r+l] * a[l]
			}
			na[i] = s + k[i]*v
		}
		for i := 0; i < r; i++ {
			for j := 0; j < r; j++ {
				var s float64
				for l := 0; l < r; l++ {
					s += tp[i*r+l] * ss.t[j*r+l]
				}
				np[i*r+j] = s - k[i]*k[j]*f + ss.rv[i]*ss.rv[j]
			}
		}
		a, na = na, a
		p, np = np, p
	}
	res.state = append([]float64(nil), a...)
	res.cov = append([]float64(nil), p...)
	return res, nil
}

// step advances a state one period with no new observation.
func (ss *stateSpace) step(a []float64) []float64 {
	r := ss.r
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		var s float64
		for l := 0; l < r; l++ {
			s += ss.t[i*r+l] * a[l]
		}
		out[i] = s
	}
	return out
}
