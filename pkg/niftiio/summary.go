package niftiio

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"niftivol/internal/models"
)

// Summary describes the value distribution of a volume
type Summary struct {
	Shape     []int
	Voxels    int
	NaN       int
	Inf       int
	Min, Max  float64
	Mean, Std float64
}

// Summarize computes statistics over the finite voxels of vol and counts the
// non-finite ones. Min, Max, Mean and Std are NaN when no voxel is finite.
func Summarize(vol *models.Volume) Summary {
	s := Summary{
		Shape:  append([]int(nil), vol.Shape...),
		Voxels: len(vol.Data),
	}

	finite := make([]float64, 0, len(vol.Data))
	for _, v := range vol.Data {
		switch {
		case math.IsNaN(v):
			s.NaN++
		case math.IsInf(v, 0):
			s.Inf++
		default:
			finite = append(finite, v)
		}
	}

	if len(finite) == 0 {
		s.Min, s.Max, s.Mean, s.Std = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}

	s.Min = floats.Min(finite)
	s.Max = floats.Max(finite)
	if len(finite) == 1 {
		s.Mean, s.Std = finite[0], 0
		return s
	}
	s.Mean, s.Std = stat.MeanStdDev(finite, nil)
	return s
}
