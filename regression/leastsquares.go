package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrLenMismatch            = errors.New("times and values have different lengths")
	ErrInsufficientSamples    = errors.New("number of samples must be greater than one plus the polynomial order")
	ErrNegativeOrder          = errors.New("polynomial order must not be negative")
	ErrSingularDesign         = errors.New("design matrix is singular")
	ErrInvalidConfidenceLevel = errors.New("confidence level must be between 0 and 1 exclusive")
)

// LeastSquares fits an order-k polynomial to a set of time/value samples with
// ordinary least squares, x(t) = b0 + b1*t + ... + bk*t^k. The fit is computed
// once at construction along with the residual statistics needed for the
// Student-t confidence and prediction intervals.
type LeastSquares struct {
	order   int
	weights []float64

	covar     *mat.Dense
	variances []float64

	rmse  float64
	noise float64
	dof   int
}

// NewLeastSquares fits a polynomial of the requested order to the input
// samples. The number of samples must be strictly greater than order+1 so the
// residual statistics are defined.
func NewLeastSquares(times, values []float64, order int) (*LeastSquares, error) {
	if order < 0 {
		return nil, fmt.Errorf("got order %d, %w", order, ErrNegativeOrder)
	}
	if len(times) != len(values) {
		return nil, fmt.Errorf("times has length %d, but values has length %d, %w", len(times), len(values), ErrLenMismatch)
	}

	n := len(values)
	k := order + 1
	if n <= k {
		return nil, fmt.Errorf("got %d samples for order %d, %w", n, order, ErrInsufficientSamples)
	}

	x := Vandermonde(times, order)
	y := mat.NewDense(n, 1, nil)
	for i, v := range values {
		y.Set(i, 0, v)
	}

	// Minimum-norm pseudo-inverse solve for numerical robustness.
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, ErrSingularDesign
	}
	sv := svd.Values(nil)
	rank := 0
	for _, v := range sv {
		if v > 1e-12*sv[0] {
			rank++
		}
	}
	if rank == 0 {
		return nil, ErrSingularDesign
	}

	var sol mat.Dense
	svd.SolveTo(&sol, y, rank)

	weights := make([]float64, k)
	for i := 0; i < k; i++ {
		weights[i] = sol.At(i, 0)
	}

	var ssr float64
	for i, p := range EvalPoly(weights, times) {
		r := values[i] - p
		ssr += r * r
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var covar mat.Dense
	if err := covar.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("normal matrix is not invertible, %w", ErrSingularDesign)
	}

	noise := ssr / float64(n-k)
	covar.Scale(noise, &covar)

	variances := make([]float64, k)
	for i := 0; i < k; i++ {
		variances[i] = covar.At(i, i)
	}

	return &LeastSquares{
		order:     order,
		weights:   weights,
		covar:     &covar,
		variances: variances,
		rmse:      math.Sqrt(ssr / float64(n)),
		noise:     noise,
		dof:       n - k,
	}, nil
}

// Order returns the order of the fitted polynomial.
func (ls *LeastSquares) Order() int {
	return ls.order
}

// Weights returns a copy of the fitted polynomial coefficients, lowest order
// first.
func (ls *LeastSquares) Weights() []float64 {
	w := make([]float64, len(ls.weights))
	copy(w, ls.weights)
	return w
}

// RMSE returns the root-mean-squared error of the fit residuals.
func (ls *LeastSquares) RMSE() float64 {
	return ls.rmse
}

// NoiseVariance returns the estimated residual noise variance, SSR/(N-K).
func (ls *LeastSquares) NoiseVariance() float64 {
	return ls.noise
}

// StandardError returns the standard error of the fit, the square root of the
// estimated noise variance.
func (ls *LeastSquares) StandardError() float64 {
	return math.Sqrt(ls.noise)
}

// WeightVariance returns a copy of the per-weight variances, the diagonal of
// the scaled covariance matrix.
func (ls *LeastSquares) WeightVariance() []float64 {
	v := make([]float64, len(ls.variances))
	copy(v, ls.variances)
	return v
}

// Value evaluates the fitted polynomial at the requested times.
func (ls *LeastSquares) Value(times []float64) []float64 {
	return EvalPoly(ls.weights, times)
}

// ValueAt is a single-point convenience wrapper around Value.
func (ls *LeastSquares) ValueAt(t float64) float64 {
	return EvalPoly(ls.weights, []float64{t})[0]
}

// Slope evaluates the analytic derivative of the fitted polynomial at the
// requested times.
func (ls *LeastSquares) Slope(times []float64) []float64 {
	return EvalPoly(Derivative(ls.weights), times)
}

// SlopeAt is a single-point convenience wrapper around Slope.
func (ls *LeastSquares) SlopeAt(t float64) float64 {
	return EvalPoly(Derivative(ls.weights), []float64{t})[0]
}

func (ls *LeastSquares) tCritical(alpha float64) (float64, error) {
	if alpha <= 0.0 || alpha >= 1.0 {
		return 0.0, fmt.Errorf("got %f, %w", alpha, ErrInvalidConfidenceLevel)
	}
	t := distuv.StudentsT{Mu: 0.0, Sigma: 1.0, Nu: float64(ls.dof)}
	return t.Quantile((1.0 + alpha) / 2.0), nil
}

// Confidence computes the two-sided Student-t confidence half-width for each
// fitted weight. The upper and lower limits on a weight are found by adding
// and subtracting the returned value.
func (ls *LeastSquares) Confidence(alpha float64) ([]float64, error) {
	c, err := ls.tCritical(alpha)
	if err != nil {
		return nil, err
	}
	ci := make([]float64, len(ls.variances))
	for i, v := range ls.variances {
		ci[i] = c * math.Sqrt(v)
	}
	return ci, nil
}

// ConfidenceFit computes the half-width of the mean-response confidence band
// at the requested times. Adding and subtracting the result from the fitted
// values gives the pencil of plausible regression curves.
func (ls *LeastSquares) ConfidenceFit(times []float64, alpha float64) ([]float64, error) {
	c, err := ls.tCritical(alpha)
	if err != nil {
		return nil, err
	}
	ci := make([]float64, len(times))
	for i, v := range ls.fitVariance(times) {
		ci[i] = c * math.Sqrt(v)
	}
	return ci, nil
}

// PredictionFit computes the half-width of the individual-observation
// prediction band at the requested times. The band contains the confidence
// band since it adds the residual noise variance before taking the square
// root.
func (ls *LeastSquares) PredictionFit(times []float64, alpha float64) ([]float64, error) {
	c, err := ls.tCritical(alpha)
	if err != nil {
		return nil, err
	}
	pi := make([]float64, len(times))
	for i, v := range ls.fitVariance(times) {
		pi[i] = c * math.Sqrt(ls.noise+v)
	}
	return pi, nil
}

// fitVariance returns diag(T Sigma T') where T is the Vandermonde row basis
// of the requested times.
func (ls *LeastSquares) fitVariance(times []float64) []float64 {
	tn := Vandermonde(times, ls.order)

	var tmp, prod mat.Dense
	tmp.Mul(tn, ls.covar)
	prod.Mul(&tmp, tn.T())

	v := make([]float64, len(times))
	for i := range times {
		v[i] = prod.At(i, i)
	}
	return v
}
