package visualization

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"niftivol/internal/models"
)

// Viewer extracts 2D slices from a volume for inspection
type Viewer struct {
	// volumeData holds the first time point of the volume
	volumeData []float64

	// dimensions of the volume
	width  int
	height int
	depth  int

	// maxIntensity maps to full white
	maxIntensity float64
}

// NewViewer creates a viewer over the first time point of vol. Volumes with
// fewer than three axes are treated as having length 1 on the missing axes.
func NewViewer(vol *models.Volume) *Viewer {
	dims := [3]int{1, 1, 1}
	for i := 0; i < len(vol.Shape) && i < 3; i++ {
		dims[i] = vol.Shape[i]
	}
	n := dims[0] * dims[1] * dims[2]
	data := vol.Data
	if len(data) > n {
		data = data[:n]
	}

	v := &Viewer{
		volumeData: data,
		width:      dims[0],
		height:     dims[1],
		depth:      dims[2],
	}
	if len(data) > 0 {
		v.maxIntensity = floats.Max(data)
	}
	return v
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.Gray16

	switch axis {
	case "x", "X":
		// YZ plane
		if position >= v.width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.width)
		}

		img = image.NewGray16(image.Rect(0, 0, v.depth, v.height))
		for y := 0; y < v.height; y++ {
			for z := 0; z < v.depth; z++ {
				idx := z*v.width*v.height + y*v.width + position
				img.SetGray16(z, y, color.Gray16{Y: v.scale(v.volumeData[idx])})
			}
		}

	case "y", "Y":
		// XZ plane
		if position >= v.height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.height)
		}

		img = image.NewGray16(image.Rect(0, 0, v.width, v.depth))
		for z := 0; z < v.depth; z++ {
			for x := 0; x < v.width; x++ {
				idx := z*v.width*v.height + position*v.width + x
				img.SetGray16(x, z, color.Gray16{Y: v.scale(v.volumeData[idx])})
			}
		}

	case "z", "Z":
		// XY plane
		if position >= v.depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.depth)
		}

		img = image.NewGray16(image.Rect(0, 0, v.width, v.height))
		for y := 0; y < v.height; y++ {
			for x := 0; x < v.width; x++ {
				idx := position*v.width*v.height + y*v.width + x
				img.SetGray16(x, y, color.Gray16{Y: v.scale(v.volumeData[idx])})
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// scale maps intensity onto 16-bit gray relative to the volume maximum.
// Negative and non-finite values render black.
func (v *Viewer) scale(intensity float64) uint16 {
	if intensity <= 0 || math.IsNaN(intensity) || !(v.maxIntensity > 0) || math.IsInf(v.maxIntensity, 0) {
		return 0
	}
	if intensity >= v.maxIntensity {
		return math.MaxUint16
	}
	return uint16(float64(math.MaxUint16) * intensity / v.maxIntensity)
}

// SaveSlice saves an extracted slice as a PNG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	fw := bufio.NewWriter(file)
	if err := png.Encode(fw, img); err != nil {
		return err
	}
	return fw.Flush()
}

// SaveSliceSequence extracts and saves every slice along the specified axis
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.width
	case "y", "Y":
		maxPos = v.height
	case "z", "Z":
		maxPos = v.depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
