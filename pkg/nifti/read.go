package nifti

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	hnifti "github.com/henghuang/nifti"

	"niftivol/internal/models"
)

// Read loads the volume stored at path. The header is decoded and validated
// here before any voxel is touched. Little-endian uint8, uint16 and float32
// voxels come from the henghuang/nifti decoder; every other supported
// datatype, and any big-endian file, is decoded in this package. Values are
// mapped through scl_slope and scl_inter when the slope is set. Up to four
// axes are supported.
func Read(path string) (*models.Volume, error) {
	s, err := openStream(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	h := s.header
	if h.Dim[0] > 4 {
		return nil, fmt.Errorf("%s: %d axes not supported (maximum 4)", path, h.Dim[0])
	}

	vol := models.NewVolume(h.Shape()...)
	if decodedByLibrary(path, h, s.order) {
		err = safelyDecodeVoxels(path, vol)
	} else {
		err = decodeVoxels(s, vol)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if h.Scaled() {
		slope, inter := float64(h.SclSlope), float64(h.SclInter)
		for i, v := range vol.Data {
			vol.Data[i] = v*slope + inter
		}
	}

	vol.Precision = 32
	if h.Datatype == Float64 {
		vol.Precision = 64
	}
	vol.VoxelSize.X = float64(h.Pixdim[1])
	vol.VoxelSize.Y = float64(h.Pixdim[2])
	vol.VoxelSize.Z = float64(h.Pixdim[3])

	return vol, nil
}

// decodedByLibrary reports whether henghuang/nifti returns exact values for
// this file. It reads little-endian data only, picks a decoder from bitpix
// alone and treats every 32-bit type as float32.
func decodedByLibrary(path string, h *Header, order binary.ByteOrder) bool {
	if order != binary.LittleEndian {
		return false
	}
	// the library only recognises a lowercase suffix
	if isGzip(path) && !strings.HasSuffix(path, ".gz") {
		return false
	}
	switch h.Datatype {
	case Uint8, Uint16, Float32:
		return true
	default:
		return false
	}
}

// safelyDecodeVoxels consumes panics emitted by the nifti library, which are
// inappropriate and must be captured in order to turn them into recoverable
// errors.
func safelyDecodeVoxels(path string, vol *models.Volume) (err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("failed to decode voxels: %v", panicErr)
		}
	}()

	var img hnifti.Nifti1Image
	img.LoadImage(path, true)

	dims := [4]int{1, 1, 1, 1}
	copy(dims[:], vol.Shape)

	i := 0
	for t := 0; t < dims[3]; t++ {
		for z := 0; z < dims[2]; z++ {
			for y := 0; y < dims[1]; y++ {
				for x := 0; x < dims[0]; x++ {
					vol.Data[i] = float64(img.GetAt(x, y, z, t))
					i++
				}
			}
		}
	}

	return nil
}

// decodeVoxels reads the voxel block that follows the header in s
func decodeVoxels(s *stream, vol *models.Volume) error {
	h := s.header
	skip := int64(h.VoxOffset) - HeaderSize
	if _, err := io.CopyN(io.Discard, s, skip); err != nil {
		return fmt.Errorf("failed to reach voxel data: %w", err)
	}

	size := int(h.Bitpix / 8)
	raw := make([]byte, size*len(vol.Data))
	if _, err := io.ReadFull(s, raw); err != nil {
		return fmt.Errorf("failed to read %d voxels: %w", len(vol.Data), err)
	}

	convert := voxelDecoder(h.Datatype, s.order)
	for i := range vol.Data {
		vol.Data[i] = convert(raw[i*size : (i+1)*size])
	}
	return nil
}

func voxelDecoder(dtype Datatype, order binary.ByteOrder) func([]byte) float64 {
	switch dtype {
	case Uint8:
		return func(b []byte) float64 { return float64(b[0]) }
	case Int8:
		return func(b []byte) float64 { return float64(int8(b[0])) }
	case Int16:
		return func(b []byte) float64 { return float64(int16(order.Uint16(b))) }
	case Uint16:
		return func(b []byte) float64 { return float64(order.Uint16(b)) }
	case Int32:
		return func(b []byte) float64 { return float64(int32(order.Uint32(b))) }
	case Uint32:
		return func(b []byte) float64 { return float64(order.Uint32(b)) }
	case Int64:
		return func(b []byte) float64 { return float64(int64(order.Uint64(b))) }
	case Uint64:
		return func(b []byte) float64 { return float64(order.Uint64(b)) }
	case Float32:
		return func(b []byte) float64 { return float64(math.Float32frombits(order.Uint32(b))) }
	default:
		return func(b []byte) float64 { return math.Float64frombits(order.Uint64(b)) }
	}
}
