package ndimage

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"niftivol/internal/models"
)

// broadcastStrides computes strides for reading src as if it had dstShape.
// Axes are aligned from the right; axes that src lacks or has with length 1
// get stride 0.
func broadcastStrides(srcShape, dstShape []int) ([]int, error) {
	if len(srcShape) > len(dstShape) {
		return nil, fmt.Errorf("%w: shape %v into %v", ErrShapeMismatch, srcShape, dstShape)
	}

	srcStrides := models.Strides(srcShape)
	strides := make([]int, len(dstShape))
	offset := len(dstShape) - len(srcShape)

	for i := range dstShape {
		j := i - offset
		switch {
		case j < 0:
			strides[i] = 0
		case srcShape[j] == dstShape[i]:
			strides[i] = srcStrides[j]
		case srcShape[j] == 1:
			strides[i] = 0
		default:
			return nil, fmt.Errorf("%w: shape %v into %v", ErrShapeMismatch, srcShape, dstShape)
		}
	}

	return strides, nil
}

// Multiply multiplies dst element-wise by src in place. src must broadcast to
// dstShape; dst is never reshaped.
func Multiply(dst []float64, dstShape []int, src []float64, srcShape []int) error {
	if len(dst) != models.NumElements(dstShape) || len(src) != models.NumElements(srcShape) {
		return fmt.Errorf("%w: data length does not match shape", ErrShapeMismatch)
	}

	strides, err := broadcastStrides(srcShape, dstShape)
	if err != nil {
		return err
	}

	if len(src) == len(dst) && len(srcShape) == len(dstShape) {
		floats.Mul(dst, src)
		return nil
	}

	coords := make([]int, len(dstShape))
	srcIdx := 0
	for i := range dst {
		dst[i] *= src[srcIdx]

		// Advance the odometer, first axis fastest
		for ax := 0; ax < len(dstShape); ax++ {
			coords[ax]++
			srcIdx += strides[ax]
			if coords[ax] < dstShape[ax] {
				break
			}
			srcIdx -= strides[ax] * coords[ax]
			coords[ax] = 0
		}
	}

	return nil
}
