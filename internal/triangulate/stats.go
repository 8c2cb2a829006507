package triangulate

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

// Summarize fits an ordinary least-squares line through the matched pairs,
// treating the professional value as the independent variable x and the
// volunteer value as the dependent variable y. The p-value is the two-sided
// test of slope = 0 on a Student's t distribution with n-2 degrees of
// freedom, and StdErr is the standard error of the slope estimate.
//
// Returns ErrInsufficientData when fewer than two pairs exist and
// ErrZeroVariance when all professional values are identical.
func Summarize(pairs model.MatchResult) (model.RegressionSummary, error) {
	n := len(pairs)
	if n < 2 {
		return model.RegressionSummary{}, eris.Wrapf(ErrInsufficientData, "got %d pair(s)", n)
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range pairs {
		xs[i] = pairs[i].Professional.Value
		ys[i] = pairs[i].Volunteer.Value
	}

	varX := stat.Variance(xs, nil)
	varY := stat.Variance(ys, nil)
	if varX == 0 {
		return model.RegressionSummary{}, eris.Wrapf(ErrZeroVariance, "all %d professional values equal %g", n, xs[0])
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	// Degenerate y leaves correlation 0/0; define it as uncorrelated.
	r := 0.0
	if varY > 0 {
		r = stat.Correlation(xs, ys, nil)
	}
	// Exact colinear data can land a hair outside [-1, 1].
	r = math.Max(-1, math.Min(1, r))

	summary := model.RegressionSummary{
		N:         n,
		Slope:     slope,
		Intercept: intercept,
		RSquared:  r * r,
	}

	if n == 2 {
		// Two points determine the line exactly; the slope test is
		// degenerate with zero residual degrees of freedom.
		if ys[0] == ys[1] {
			summary.PValue = 1.0
		} else {
			summary.PValue = 0.0
		}
		summary.StdErr = 0.0
		return summary, nil
	}

	df := float64(n - 2)
	// tiny keeps the t statistic finite when |r| == 1.
	const tiny = 1e-20
	t := r * math.Sqrt(df/((1.0-r+tiny)*(1.0+r+tiny)))

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	summary.PValue = 2 * tDist.Survival(math.Abs(t))
	summary.StdErr = math.Sqrt((1 - r*r) * varY / varX / df)

	return summary, nil
}
