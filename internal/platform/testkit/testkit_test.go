package testkit

import (
	"math"
	"testing"
)

func TestMustPanic(t *testing.T) {
	t.Parallel()
	MustPanic(t, func() { panic("boom") })
}

func TestMustNotPanic(t *testing.T) {
	t.Parallel()
	MustNotPanic(t, func() {})
}

func TestMustContain(t *testing.T) {
	t.Parallel()
	MustContain(t, "alpha beta gamma", "beta")
}

func TestMustEqualFloat(t *testing.T) {
	t.Parallel()
	MustEqualFloat(t, "sum", 0.1+0.2, 0.3, Tolerance)
	MustEqualFloat(t, "nan", math.NaN(), math.NaN(), Tolerance)
}

func TestMustEqualFloats(t *testing.T) {
	t.Parallel()
	MustEqualFloats(t, "row", []float64{0.5, 1.0 / 3}, []float64{0.5, 0.333}, 1e-3)
}
