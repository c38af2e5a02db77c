package cmd

import (
	"math"

	"github.com/pkg/errors"

	"github.com/fitpack/dream/param"
	"github.com/fitpack/dream/sampler"
)

// demoTarget is a named test problem: a log-probability plus the parameter
// space it lives in.
type demoTarget struct {
	Target sampler.Target
	Space  *param.Space
}

// newDemoTarget returns one of the built-in test problems over the given
// dimension count.
func newDemoTarget(name string, dims int) (*demoTarget, error) {
	if dims < 1 {
		return nil, errors.Errorf("Invalid dimension count %d", dims)
	}

	params := make([]*param.Param, dims)
	for d := range params {
		params[d] = param.Uniform("", -10, 10)
	}
	space, err := param.NewSpace(params)
	if err != nil {
		return nil, err
	}

	switch name {
	case "gaussian":
		return &demoTarget{Space: space, Target: gaussianTarget}, nil
	case "rosenbrock":
		if dims < 2 {
			return nil, errors.Errorf("rosenbrock requires at least 2 dims")
		}
		return &demoTarget{Space: space, Target: rosenbrockTarget}, nil
	case "mixture":
		return &demoTarget{Space: space, Target: mixtureTarget}, nil
	}

	return nil, errors.Errorf("Unknown target %s (want gaussian, rosenbrock, or mixture)", name)
}

// gaussianTarget is a standard normal mode at the origin.
func gaussianTarget(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	return -0.5 * s
}

// rosenbrockTarget is the banana-valley density, a classic hard case for
// isotropic proposals.
func rosenbrockTarget(x []float64) float64 {
	s := 0.0
	for d := 0; d+1 < len(x); d++ {
		a := x[d+1] - x[d]*x[d]
		b := 1 - x[d]
		s += 100*a*a + b*b
	}
	return -s / 20.0
}

// mixtureTarget is two well-separated normal modes at -5 and +5 along each
// axis, exercising the non-adaptive full-size jumps.
func mixtureTarget(x []float64) float64 {
	s1, s2 := 0.0, 0.0
	for _, v := range x {
		d1 := v + 5
		d2 := v - 5
		s1 += d1 * d1
		s2 += d2 * d2
	}
	// log(exp(-s1/2) + exp(-s2/2)) computed stably
	a := -0.5 * s1
	b := -0.5 * s2
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}
