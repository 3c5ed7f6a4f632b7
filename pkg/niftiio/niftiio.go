// Package niftiio loads NIfTI volumes into memory with optional cleanup,
// masking and resampling, and saves in-memory volumes back to disk.
package niftiio

import (
	"fmt"
	"math"

	"niftivol/internal/models"
	"niftivol/pkg/ndimage"
	"niftivol/pkg/nifti"
)

// LoadOptions controls the post-processing applied by LoadNifti. Steps run in
// a fixed order: NaN removal, masking, zoom.
type LoadOptions struct {
	// Mask is multiplied into the volume element-wise. Its shape must
	// broadcast to the volume's shape.
	Mask *models.Volume

	// Zoom resamples the volume with cubic spline interpolation and rounds the
	// result to whole numbers. A single factor applies to every axis.
	Zoom []float64

	// RemoveNaN replaces NaN with 0 and infinities with the largest finite
	// value of the same sign: float64 for float64 files, float32 otherwise.
	RemoveNaN bool
}

// SaveOptions controls how SaveNiftiWithOptions encodes voxels
type SaveOptions struct {
	Datatype nifti.Datatype
}

// LoadNifti reads the volume at path and applies opts. A nil opts returns the
// voxels as stored.
func LoadNifti(path string, opts *LoadOptions) (*models.Volume, error) {
	vol, err := nifti.Read(path)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		return vol, nil
	}

	if opts.RemoveNaN {
		ndimage.NanToNum(vol.Data, finiteBound(vol))
	}

	if opts.Mask != nil {
		if err := ndimage.Multiply(vol.Data, vol.Shape, opts.Mask.Data, opts.Mask.Shape); err != nil {
			return nil, fmt.Errorf("failed to apply mask: %w", err)
		}
	}

	if opts.Zoom != nil {
		data, shape, err := ndimage.Zoom(vol.Data, vol.Shape, opts.Zoom)
		if err != nil {
			return nil, fmt.Errorf("failed to zoom volume: %w", err)
		}
		ndimage.Around(data)
		vol.Data = data
		vol.Shape = shape
	}

	return vol, nil
}

// finiteBound is the largest finite value of the type vol was stored as
func finiteBound(vol *models.Volume) float64 {
	if vol.Precision == 64 {
		return math.MaxFloat64
	}
	return math.MaxFloat32
}

// SaveNifti writes vol to path as float32 voxels with an identity affine,
// replacing any existing file.
func SaveNifti(path string, vol *models.Volume) error {
	return SaveNiftiWithOptions(path, vol, SaveOptions{Datatype: nifti.Float32})
}

// SaveNiftiWithOptions is SaveNifti with a selectable voxel datatype
func SaveNiftiWithOptions(path string, vol *models.Volume, opts SaveOptions) error {
	if opts.Datatype == 0 {
		opts.Datatype = nifti.Float32
	}
	return nifti.WriteFile(path, vol, opts.Datatype)
}
