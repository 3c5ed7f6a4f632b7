// Package ndimage provides element-wise and resampling operations on dense
// volumes stored as flat slices in NIfTI order (first axis varies fastest).
package ndimage

import (
	"errors"
	"math"
)

var (
	// ErrShapeMismatch is returned when two arrays cannot be broadcast together
	ErrShapeMismatch = errors.New("operands could not be broadcast together")

	// ErrInvalidZoom is returned for zoom factors that cannot produce a volume
	ErrInvalidZoom = errors.New("invalid zoom factor")
)

// NanToNum replaces NaN with 0, +Inf with big and -Inf with -big, in place.
// Finite values are left untouched.
func NanToNum(data []float64, big float64) {
	for i, v := range data {
		switch {
		case math.IsNaN(v):
			data[i] = 0
		case math.IsInf(v, 1):
			data[i] = big
		case math.IsInf(v, -1):
			data[i] = -big
		}
	}
}

// Around rounds every value to the nearest integer in place, halves to even
func Around(data []float64) {
	for i, v := range data {
		data[i] = math.RoundToEven(v)
	}
}
