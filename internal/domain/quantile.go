package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext"
)

const (
	quantileMaxIterations = 200
	quantileTolerance     = 1e-12 // relative to min(p, 1-p)
	quantileStepTolerance = 1e-15 // relative to x
)

// BetaQuantile inverts the regularized incomplete beta function: it returns x
// with I_x(alpha, beta) = p. It runs Newton steps on the CDF and falls back to
// bisection whenever a step leaves the current bracket, so every iteration
// shrinks the bracket. Failure to converge is reported as
// ErrNumericalInstability rather than returning an unconverged point.
func BetaQuantile(alpha, beta, p float64) (float64, error) {
	if !(alpha > 0) || !(beta > 0) || math.IsInf(alpha, 0) || math.IsInf(beta, 0) {
		return 0, fmt.Errorf("%w: beta parameters (%v, %v) out of domain", ErrNumericalInstability, alpha, beta)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("%w: probability %v outside [0, 1]", ErrNumericalInstability, p)
	}
	if p == 0 {
		return 0, nil
	}
	if p == 1 {
		return 1, nil
	}
	// Upper tail: I_x(a, b) = 1 - I_{1-x}(b, a), solved as a lower tail so
	// the tolerance stays relative to the small probability.
	if p > 0.5 {
		x, err := lowerTailQuantile(beta, alpha, 1-p)
		if err != nil {
			return 0, err
		}
		return 1 - x, nil
	}
	return lowerTailQuantile(alpha, beta, p)
}

// lowerTailQuantile solves I_x(alpha, beta) = p for p <= 0.5.
func lowerTailQuantile(alpha, beta, p float64) (float64, error) {
	lbeta := logBeta(alpha, beta)
	lo, hi := 0.0, 1.0
	x := alpha / (alpha + beta)
	// For small x, I_x(a, b) ~ x^a / (a B(a, b)).
	if guess := math.Exp((math.Log(p) + math.Log(alpha) + lbeta) / alpha); guess > 0 && guess < x {
		x = guess
	}
	tol := quantileTolerance * p

	for i := 0; i < quantileMaxIterations; i++ {
		f := mathext.RegIncBeta(alpha, beta, x) - p
		if math.Abs(f) <= tol {
			return x, nil
		}
		if f < 0 {
			lo = x
		} else {
			hi = x
		}
		if hi-lo <= quantileStepTolerance*hi {
			return (lo + hi) / 2, nil
		}

		next := math.NaN()
		if pdf := betaPDF(alpha, beta, lbeta, x); pdf > 0 && !math.IsInf(pdf, 0) {
			next = x - f/pdf
		}
		if math.IsNaN(next) || next <= lo || next >= hi {
			next = (lo + hi) / 2
		} else if math.Abs(next-x) <= quantileStepTolerance*x {
			return next, nil
		}
		x = next
	}

	return 0, fmt.Errorf("%w: beta quantile (%v, %v, p=%v) did not converge in %d iterations",
		ErrNumericalInstability, alpha, beta, p, quantileMaxIterations)
}

func logBeta(a, b float64) float64 {
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	lab, _ := math.Lgamma(a + b)
	return la + lb - lab
}

func betaPDF(a, b, lbeta, x float64) float64 {
	if x <= 0 || x >= 1 {
		return 0
	}
	return math.Exp((a-1)*math.Log(x) + (b-1)*math.Log1p(-x) - lbeta)
}
