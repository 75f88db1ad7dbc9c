package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// EvalPoly evaluates a polynomial with the given weights, lowest order first,
// at each of the requested times. Empty weights evaluate to zero everywhere.
func EvalPoly(weights, times []float64) []float64 {
	res := make([]float64, len(times))
	for i, t := range times {
		var acc float64
		for j := len(weights) - 1; j >= 0; j-- {
			acc = acc*t + weights[j]
		}
		res[i] = acc
	}
	return res
}

// Derivative computes the weights of the analytic derivative of a polynomial.
// Since d/dt t^i = i*t^(i-1), the derivative of b0 + b1*t + ... + bk*t^k has
// weights i*bi for i >= 1, one order lower than the input.
func Derivative(weights []float64) []float64 {
	if len(weights) <= 1 {
		return nil
	}
	d := make([]float64, len(weights)-1)
	for i := 1; i < len(weights); i++ {
		d[i-1] = float64(i) * weights[i]
	}
	return d
}

// Vandermonde builds the N x (order+1) design matrix whose rows are
// [1, t, t^2, ..., t^order] for each input time.
func Vandermonde(times []float64, order int) *mat.Dense {
	k := order + 1
	x := mat.NewDense(len(times), k, nil)
	for i, t := range times {
		for j := 0; j < k; j++ {
			x.Set(i, j, math.Pow(t, float64(j)))
		}
	}
	return x
}
