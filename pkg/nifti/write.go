package nifti

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/gzip"

	"niftivol/internal/models"
)

// Write encodes vol as a single-file NIfTI-1 stream with an identity affine.
// Voxels are written little-endian in the requested datatype.
func Write(w io.Writer, vol *models.Volume, dtype Datatype) error {
	if models.NumElements(vol.Shape) != len(vol.Data) {
		return fmt.Errorf("volume shape %v does not match %d voxels", vol.Shape, len(vol.Data))
	}

	h, err := NewHeader(vol.Shape, dtype)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	// No extensions follow
	if _, err := bw.Write([]byte{0, 0, 0, 0}); err != nil {
		return fmt.Errorf("failed to write extension flag: %w", err)
	}

	var buf [8]byte
	for _, v := range vol.Data {
		var b []byte
		switch dtype {
		case Float32:
			binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(float32(v)))
			b = buf[:4]
		case Float64:
			binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(v))
			b = buf[:8]
		}
		if _, err := bw.Write(b); err != nil {
			return fmt.Errorf("failed to write voxel data: %w", err)
		}
	}

	return bw.Flush()
}

// WriteFile writes vol to path, creating or truncating the file. Paths ending
// in .gz are gzip-compressed.
func WriteFile(path string, vol *models.Volume, dtype Datatype) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if !isGzip(path) {
		return Write(file, vol, dtype)
	}

	gw := gzip.NewWriter(file)
	if err := Write(gw, vol, dtype); err != nil {
		return err
	}
	return gw.Close()
}
