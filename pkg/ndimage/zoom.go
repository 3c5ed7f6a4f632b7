package ndimage

import (
	"fmt"
	"math"

	"niftivol/internal/models"
)

// Pole of the cubic B-spline prefilter, sqrt(3) - 2
var splinePole = math.Sqrt(3) - 2

// ZoomShape returns the output shape produced by zooming shape by factors.
// A single factor applies to every axis.
func ZoomShape(shape []int, factors []float64) ([]int, error) {
	f, err := expandFactors(factors, len(shape))
	if err != nil {
		return nil, err
	}

	out := make([]int, len(shape))
	for i, n := range shape {
		m := math.RoundToEven(float64(n) * f[i])
		if math.IsNaN(m) || math.IsInf(m, 0) || m < 1 {
			return nil, fmt.Errorf("%w: factor %g on axis %d of length %d gives an empty axis",
				ErrInvalidZoom, f[i], i, n)
		}
		out[i] = int(m)
	}
	return out, nil
}

func expandFactors(factors []float64, ndim int) ([]float64, error) {
	switch len(factors) {
	case 1:
		f := make([]float64, ndim)
		for i := range f {
			f[i] = factors[0]
		}
		return f, nil
	case ndim:
		return factors, nil
	default:
		return nil, fmt.Errorf("%w: %d factors for %d axes", ErrInvalidZoom, len(factors), ndim)
	}
}

// Zoom resamples data of the given shape by factors using cubic B-spline
// interpolation with mirror boundaries. Output coordinates map onto the input
// so that the first and last samples of each axis line up.
func Zoom(data []float64, shape []int, factors []float64) ([]float64, []int, error) {
	if len(data) != models.NumElements(shape) {
		return nil, nil, fmt.Errorf("%w: data length does not match shape", ErrShapeMismatch)
	}

	outShape, err := ZoomShape(shape, factors)
	if err != nil {
		return nil, nil, err
	}

	// The tensor-product spline is separable, so each axis is filtered and
	// resampled independently.
	cur := append([]float64(nil), data...)
	curShape := append([]int(nil), shape...)
	for axis := range shape {
		cur = zoomAxis(cur, curShape, axis, outShape[axis])
		curShape[axis] = outShape[axis]
	}

	return cur, outShape, nil
}

// zoomAxis resamples every line of data along axis to length m
func zoomAxis(data []float64, shape []int, axis, m int) []float64 {
	n := shape[axis]

	outShape := append([]int(nil), shape...)
	outShape[axis] = m
	out := make([]float64, models.NumElements(outShape))

	inStride := models.Strides(shape)[axis]
	outStride := models.Strides(outShape)[axis]

	// Lines are addressed by their (inner, outer) position around axis
	inner := inStride
	outer := len(data) / (n * inStride)

	scale := 1.0
	if m > 1 {
		scale = float64(n-1) / float64(m-1)
	}

	line := make([]float64, n)
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*n*inStride + in
			for k := 0; k < n; k++ {
				line[k] = data[base+k*inStride]
			}
			splineFilter(line)

			outBase := o*m*outStride + in
			for k := 0; k < m; k++ {
				out[outBase+k*outStride] = splineValue(line, float64(k)*scale)
			}
		}
	}

	return out
}

// splineFilter converts samples into cubic B-spline coefficients in place,
// assuming mirror-symmetric extension of the signal.
func splineFilter(c []float64) {
	n := len(c)
	if n < 2 {
		return
	}
	z := splinePole
	lambda := (1 - z) * (1 - 1/z)
	for i := range c {
		c[i] *= lambda
	}

	c[0] = causalInit(c, z)
	for k := 1; k < n; k++ {
		c[k] += z * c[k-1]
	}

	c[n-1] = (z / (z*z - 1)) * (z*c[n-2] + c[n-1])
	for k := n - 2; k >= 0; k-- {
		c[k] = z * (c[k+1] - c[k])
	}
}

// causalInit computes the exact initial causal coefficient for mirror
// boundaries.
func causalInit(c []float64, z float64) float64 {
	n := len(c)
	zn := z
	iz := 1 / z
	z2n := math.Pow(z, float64(n-1))
	sum := c[0] + z2n*c[n-1]
	z2n *= z2n * iz
	for k := 1; k < n-1; k++ {
		sum += (zn + z2n) * c[k]
		zn *= z
		z2n *= iz
	}
	return sum / (1 - zn*zn)
}

// splineValue evaluates the cubic spline with coefficients c at x
func splineValue(c []float64, x float64) float64 {
	n := len(c)
	if n == 1 {
		return c[0]
	}

	i := int(math.Floor(x))
	t := x - float64(i)
	t2 := t * t
	t3 := t2 * t
	w := [4]float64{
		(1 - t) * (1 - t) * (1 - t) / 6,
		(4 - 6*t2 + 3*t3) / 6,
		(1 + 3*t + 3*t2 - 3*t3) / 6,
		t3 / 6,
	}

	var v float64
	for j := 0; j < 4; j++ {
		v += w[j] * c[mirrorIndex(i-1+j, n)]
	}
	return v
}

// mirrorIndex folds k into [0, n) by whole-sample mirroring
func mirrorIndex(k, n int) int {
	if n == 1 {
		return 0
	}
	period := 2*n - 2
	if k < 0 {
		k = -k
	}
	k %= period
	if k >= n {
		k = period - k
	}
	return k
}
