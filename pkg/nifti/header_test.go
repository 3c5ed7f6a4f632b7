package nifti

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niftivol/internal/models"
)

func TestHeaderEncodedSize(t *testing.T) {
	assert.Equal(t, HeaderSize, binary.Size(Header{}))
}

func TestNewHeaderIdentityAffine(t *testing.T) {
	h, err := NewHeader([]int{4, 5, 6}, Float32)
	require.NoError(t, err)

	assert.Equal(t, [8]int16{3, 4, 5, 6, 1, 1, 1, 1}, h.Dim)
	assert.Equal(t, int16(XformAligned), h.SformCode)
	assert.Equal(t, int16(XformUnknown), h.QformCode)
	assert.Equal(t, [4]float32{1, 0, 0, 0}, h.SrowX)
	assert.Equal(t, [4]float32{0, 1, 0, 0}, h.SrowY)
	assert.Equal(t, [4]float32{0, 0, 1, 0}, h.SrowZ)
	assert.Equal(t, float32(1), h.Pixdim[1])
	assert.Equal(t, float32(VoxOffset), h.VoxOffset)
	assert.Equal(t, int16(32), h.Bitpix)
	assert.Equal(t, []int{4, 5, 6}, h.Shape())
	require.NoError(t, h.Validate())
}

func TestNewHeaderRejects(t *testing.T) {
	_, err := NewHeader(nil, Float32)
	assert.True(t, errors.Is(err, ErrInvalidHeader))

	_, err = NewHeader([]int{1, 2, 3, 4, 5, 6, 7, 8}, Float32)
	assert.True(t, errors.Is(err, ErrInvalidHeader))

	_, err = NewHeader([]int{0, 2}, Float32)
	assert.True(t, errors.Is(err, ErrInvalidHeader))

	_, err = NewHeader([]int{2, 2}, Datatype(2))
	assert.Error(t, err)
}

func TestWriteLayout(t *testing.T) {
	vol, err := models.FromData([]float64{1, 2, 3, 4, 5, 6}, 1, 2, 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, vol, Float32))
	raw := buf.Bytes()

	require.Len(t, raw, VoxOffset+6*4)
	assert.Equal(t, uint32(HeaderSize), binary.LittleEndian.Uint32(raw[:4]))
	assert.Equal(t, []byte("n+1\x00"), raw[344:348])
	assert.Equal(t, []byte{0, 0, 0, 0}, raw[348:352])
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(raw[352:356])))
	assert.Equal(t, float32(6), math.Float32frombits(binary.LittleEndian.Uint32(raw[372:376])))

	buf.Reset()
	require.NoError(t, Write(&buf, vol, Float64))
	require.Len(t, buf.Bytes(), VoxOffset+6*8)
	assert.Equal(t, 6.0, math.Float64frombits(binary.LittleEndian.Uint64(buf.Bytes()[392:400])))
}

func TestWriteShapeMismatch(t *testing.T) {
	vol := &models.Volume{Shape: []int{2, 2}, Data: []float64{1, 2, 3}}
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, vol, Float32))
}

func TestDecodeHeaderRoundTrip(t *testing.T) {
	vol := models.NewVolume(3, 2, 2, 5)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, vol, Float64))

	h, order, err := DecodeHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, binary.LittleEndian, order)
	assert.Equal(t, []int{3, 2, 2, 5}, h.Shape())
	assert.Equal(t, Float64, h.Datatype)
	assert.Equal(t, float32(1), h.SclSlope)
}

func TestDecodeHeaderBigEndian(t *testing.T) {
	h, err := NewHeader([]int{7, 8}, Float32)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, h))

	got, order, err := DecodeHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, binary.BigEndian, order)
	assert.Equal(t, []int{7, 8}, got.Shape())
}

func TestDecodeHeaderInvalid(t *testing.T) {
	_, _, err := DecodeHeader(bytes.NewReader([]byte("short")))
	assert.True(t, errors.Is(err, ErrInvalidHeader))

	h, err := NewHeader([]int{2}, Float32)
	require.NoError(t, err)
	h.Magic = [4]byte{'x', 'x', 'x', 0}
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, h))
	_, _, err = DecodeHeader(&buf)
	assert.True(t, errors.Is(err, ErrInvalidHeader))

	junk := make([]byte, HeaderSize)
	_, _, err = DecodeHeader(bytes.NewReader(junk))
	assert.True(t, errors.Is(err, ErrInvalidHeader))
}

func TestReadHeaderGzip(t *testing.T) {
	dir := t.TempDir()
	vol := models.NewVolume(4, 4, 4)

	for _, name := range []string{"vol.nii", "vol.nii.gz"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, vol, Float32))

		h, err := ReadHeader(path)
		require.NoError(t, err, name)
		assert.Equal(t, []int{4, 4, 4}, h.Shape(), name)
	}

	// The compressed file must not be a plain NIfTI stream
	raw, err := os.ReadFile(filepath.Join(dir, "vol.nii.gz"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, raw[:2])
}

func TestReadHeaderMissingFile(t *testing.T) {
	_, err := ReadHeader(filepath.Join(t.TempDir(), "missing.nii"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseDatatype(t *testing.T) {
	for name, want := range map[string]Datatype{
		"":        Float32,
		"float32": Float32,
		"FLOAT64": Float64,
		"double":  Float64,
	} {
		got, err := ParseDatatype(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseDatatype("int8")
	assert.Error(t, err)
	assert.Equal(t, "float32", Float32.String())
}
