// Package arima fits ARIMA(p,d,q) models by exact maximum likelihood and
// produces point forecasts with standard errors.
//
// The ARMA part carries no constant term. The likelihood of the differenced
// series is evaluated with a Kalman filter started from the stationary state
// covariance, and the innovation variance is concentrated out so the
// optimizer only searches over the AR and MA coefficients.
package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"trafficcast/internal/domain"
)

var (
	ErrInvalidOrder     = errors.New("arima: invalid order")
	ErrInsufficientData = errors.New("arima: insufficient data")
	ErrSingular         = errors.New("arima: singular series")
	ErrNonConvergence   = errors.New("arima: likelihood optimization did not converge")
)

// Model is a fitted ARIMA model ready to forecast.
type Model struct {
	Order         domain.Order
	AR            []float64
	MA            []float64
	Sigma2        float64
	LogLikelihood float64
	AIC           float64
	NObs          int
	Status        optimize.Status

	ss *stateSpace
	// tails[k] is the last value of the series differenced k times.
	tails []float64
	state []float64
}

// Fit estimates an ARIMA model of the given order on y, treating the values
// as evenly spaced observations.
func Fit(y []float64, order domain.Order) (*Model, error) {
	if order.P < 0 || order.D < 0 || order.Q < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrder, order)
	}
	if need := order.MinObservations(); len(y) < need {
		return nil, fmt.Errorf("%w: order %s needs at least %d observations, got %d", ErrInsufficientData, order, need, len(y))
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: observation %d is not finite", ErrSingular, i)
		}
	}

	w, tails := difference(y, order.D)
	if isZero(w) {
		return nil, fmt.Errorf("%w: series has no variation after %d difference(s)", ErrSingular, order.D)
	}

	p, q := order.P, order.Q
	objective := func(x []float64) float64 {
		ar, ma := constrainParams(x, p, q)
		res, err := newStateSpace(ar, ma).filter(w)
		if err != nil {
			return math.Inf(1)
		}
		ll := res.logLikelihood()
		if math.IsNaN(ll) || math.IsInf(ll, 0) {
			return math.Inf(1)
		}
		return -ll / float64(len(w))
	}

	x := startParams(w, p, q)
	status := optimize.Success
	if len(x) > 0 {
		if math.IsInf(objective(x), 1) {
			return nil, fmt.Errorf("%w: likelihood undefined at starting values", ErrNonConvergence)
		}
		result, err := optimize.Minimize(optimize.Problem{Func: objective}, x, &optimize.Settings{
			MajorIterations: 5000,
			FuncEvaluations: 20000,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-10,
				Relative:   1e-10,
				Iterations: 100,
			},
		}, &optimize.NelderMead{SimplexSize: 0.5})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNonConvergence, err)
		}
		if result.Status.Early() || math.IsInf(result.F, 0) || math.IsNaN(result.F) {
			return nil, fmt.Errorf("%w: optimizer stopped with status %s", ErrNonConvergence, result.Status)
		}
		x = result.X
		status = result.Status
	}

	ar, ma := constrainParams(x, p, q)
	ss := newStateSpace(ar, ma)
	res, err := ss.filter(w)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNonConvergence, err)
	}
	sigma2 := res.sigma2()
	if !(sigma2 > 0) || math.IsInf(sigma2, 0) {
		return nil, fmt.Errorf("%w: innovation variance is %g", ErrSingular, sigma2)
	}
	ll := res.logLikelihood()

	return &Model{
		Order:         order,
		AR:            ar,
		MA:            ma,
		Sigma2:        sigma2,
		LogLikelihood: ll,
		AIC:           -2*ll + 2*float64(p+q+1),
		NObs:          len(y),
		Status:        status,
		ss:            ss,
		tails:         tails,
		state:         res.state,
	}, nil
}

// difference applies d first differences and returns the result together with
// the last value of every intermediate level, needed to integrate forecasts.
func difference(y []float64, d int) ([]float64, []float64) {
	cur := append([]float64(nil), y...)
	tails := make([]float64, d)
	for k := 0; k < d; k++ {
		tails[k] = cur[len(cur)-1]
		next := make([]float64, len(cur)-1)
		for i := 1; i < len(cur); i++ {
			next[i-1] = cur[i] - cur[i-1]
		}
		cur = next
	}
	return cur, tails
}

func isZero(w []float64) bool {
	for _, v := range w {
		if v != 0 {
			return false
		}
	}
	return true
}

// startParams seeds the AR terms from the sample partial autocorrelations and
// the MA terms at zero.
func startParams(w []float64, p, q int) []float64 {
	x := make([]float64, p+q)
	if p == 0 {
		return x
	}
	pacf := samplePACF(w, p)
	for i, r := range pacf {
		r = clampPACF(r * 0.9)
		x[i] = r / math.Sqrt(1-r*r)
	}
	return x
}

// samplePACF runs Durbin-Levinson over the uncentred sample autocorrelations.
func samplePACF(w []float64, lags int) []float64 {
	var c0 float64
	for _, v := range w {
		c0 += v * v
	}
	rho := make([]float64, lags+1)
	rho[0] = 1
	for k := 1; k <= lags; k++ {
		if k >= len(w) || c0 == 0 {
			break
		}
		var s float64
		for t := k; t < len(w); t++ {
			s += w[t] * w[t-k]
		}
		rho[k] = s / c0
	}

	out := make([]float64, lags)
	phi := make([]float64, lags+1)
	prev := make([]float64, lags+1)
	v := 1.0
	for k := 1; k <= lags; k++ {
		num := rho[k]
		for j := 1; j < k; j++ {
			num -= prev[j] * rho[k-j]
		}
		if v <= 0 {
			break
		}
		phi[k] = num / v
		for j := 1; j < k; j++ {
			phi[j] = prev[j] - phi[k]*prev[k-j]
		}
		v *= 1 - phi[k]*phi[k]
		out[k-1] = phi[k]
		copy(prev, phi)
	}
	return out
}
