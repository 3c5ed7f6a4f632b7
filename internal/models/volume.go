package models

import (
	"fmt"
)

// Volume represents a dense volumetric image held in memory
type Volume struct {
	// Shape holds the length of each axis in x, y, z[, t] order
	Shape []int

	// Data is the voxel data as a 1D array in NIfTI order (x varies fastest)
	Data []float64

	// VoxelSize is the physical size of each voxel as recorded in the file
	// header. It is informational only and never written back.
	VoxelSize struct {
		X, Y, Z float64
	}

	// Precision is the bit width of the floating-point type the stored voxels
	// decode to: 64 for float64 files, 32 otherwise. Zero means unknown.
	Precision int
}

// NewVolume allocates a zero-filled volume with the given shape
func NewVolume(shape ...int) *Volume {
	s := make([]int, len(shape))
	copy(s, shape)
	return &Volume{
		Shape: s,
		Data:  make([]float64, NumElements(s)),
	}
}

// FromData wraps data in a volume after checking it matches the shape
func FromData(data []float64, shape ...int) (*Volume, error) {
	if n := NumElements(shape); n != len(data) {
		return nil, fmt.Errorf("shape %v holds %d voxels, got %d values", shape, n, len(data))
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return &Volume{Shape: s, Data: data}, nil
}

// NumElements returns the number of voxels described by shape.
// An empty shape describes a scalar.
func NumElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Strides returns the flat-index step of each axis for NIfTI ordering
func Strides(shape []int) []int {
	strides := make([]int, len(shape))
	step := 1
	for i, d := range shape {
		strides[i] = step
		step *= d
	}
	return strides
}

// NDim returns the number of axes
func (v *Volume) NDim() int {
	return len(v.Shape)
}

// Len returns the number of voxels
func (v *Volume) Len() int {
	return len(v.Data)
}

// Index converts per-axis coordinates into a flat index
func (v *Volume) Index(coords ...int) int {
	idx := 0
	step := 1
	for i, c := range coords {
		idx += c * step
		step *= v.Shape[i]
	}
	return idx
}

// At returns the voxel at the given coordinates
func (v *Volume) At(coords ...int) float64 {
	return v.Data[v.Index(coords...)]
}

// Set stores a voxel value at the given coordinates
func (v *Volume) Set(value float64, coords ...int) {
	v.Data[v.Index(coords...)] = value
}

// Clone returns a deep copy of the volume
func (v *Volume) Clone() *Volume {
	c := &Volume{
		Shape:     append([]int(nil), v.Shape...),
		Data:      append([]float64(nil), v.Data...),
		VoxelSize: v.VoxelSize,
		Precision: v.Precision,
	}
	return c
}

// SameShape reports whether both volumes have identical shapes
func (v *Volume) SameShape(other *Volume) bool {
	if len(v.Shape) != len(other.Shape) {
		return false
	}
	for i := range v.Shape {
		if v.Shape[i] != other.Shape[i] {
			return false
		}
	}
	return true
}
