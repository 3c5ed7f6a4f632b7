// Package nifti reads and writes single-file NIfTI-1 volumes.
//
// Common little-endian voxel types are decoded by github.com/henghuang/nifti.
// Header decoding, the remaining datatypes and all encoding are done here so
// the exact layout read from and written to disk is under our control.
package nifti

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const (
	// HeaderSize is the value of sizeof_hdr for NIfTI-1
	HeaderSize = 348

	// VoxOffset is where voxel data starts in a single-file image with no
	// extensions: the header plus four extension flag bytes.
	VoxOffset = 352
)

// Datatype is a NIfTI-1 datatype code
type Datatype int16

const (
	Uint8   Datatype = 2
	Int16   Datatype = 4
	Int32   Datatype = 8
	Float32 Datatype = 16
	Float64 Datatype = 64
	Int8    Datatype = 256
	Uint16  Datatype = 512
	Uint32  Datatype = 768
	Int64   Datatype = 1024
	Uint64  Datatype = 1280
)

var datatypeNames = map[Datatype]string{
	Uint8:   "uint8",
	Int16:   "int16",
	Int32:   "int32",
	Float32: "float32",
	Float64: "float64",
	Int8:    "int8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
}

// Bitpix returns the number of bits per voxel, or 0 for datatypes this
// package cannot decode
func (d Datatype) Bitpix() int16 {
	switch d {
	case Uint8, Int8:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32, Float32:
		return 32
	case Int64, Uint64, Float64:
		return 64
	default:
		return 0
	}
}

func (d Datatype) String() string {
	if name, ok := datatypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("datatype(%d)", int16(d))
}

// ParseDatatype maps a name such as "float32" to its code
func ParseDatatype(name string) (Datatype, error) {
	switch strings.ToLower(name) {
	case "", "float32", "float":
		return Float32, nil
	case "float64", "double":
		return Float64, nil
	default:
		return 0, fmt.Errorf("unsupported datatype %q (must be float32 or float64)", name)
	}
}

// Transform codes for qform_code and sform_code
const (
	XformUnknown   = 0
	XformScanner   = 1
	XformAligned   = 2
	XformTalairach = 3
	XformMNI152    = 4
)

// ErrInvalidHeader is returned when a file does not carry a NIfTI-1 header
var ErrInvalidHeader = errors.New("invalid NIfTI-1 header")

var magicSingleFile = [4]byte{'n', '+', '1', 0}

// Header mirrors the 348-byte NIfTI-1 header field for field
type Header struct {
	SizeofHdr    int32
	LegacyType   [10]byte
	DbName       [18]byte
	Extents      int32
	SessionError int16
	Regular      byte
	DimInfo      byte

	Dim        [8]int16
	IntentP1   float32
	IntentP2   float32
	IntentP3   float32
	IntentCode int16
	Datatype   Datatype
	Bitpix     int16
	SliceStart int16
	Pixdim     [8]float32
	VoxOffset  float32
	SclSlope   float32
	SclInter   float32
	SliceEnd   int16
	SliceCode  byte
	XyztUnits  byte
	CalMax     float32
	CalMin     float32
	SliceDur   float32
	Toffset    float32
	Glmax      int32
	Glmin      int32

	Descrip   [80]byte
	AuxFile   [24]byte
	QformCode int16
	SformCode int16
	QuaternB  float32
	QuaternC  float32
	QuaternD  float32
	QoffsetX  float32
	QoffsetY  float32
	QoffsetZ  float32
	SrowX     [4]float32
	SrowY     [4]float32
	SrowZ     [4]float32

	IntentName [16]byte
	Magic      [4]byte
}

// NewHeader builds a header for a volume of the given shape whose affine is
// the 4x4 identity: voxel coordinates equal array indices.
func NewHeader(shape []int, dtype Datatype) (*Header, error) {
	if len(shape) < 1 || len(shape) > 7 {
		return nil, fmt.Errorf("%w: %d axes (must be 1 to 7)", ErrInvalidHeader, len(shape))
	}
	if dtype != Float32 && dtype != Float64 {
		return nil, fmt.Errorf("unsupported datatype %v for writing", dtype)
	}

	h := &Header{
		SizeofHdr: HeaderSize,
		Regular:   'r',
		Datatype:  dtype,
		Bitpix:    dtype.Bitpix(),
		VoxOffset: VoxOffset,
		SclSlope:  1,
		QformCode: XformUnknown,
		SformCode: XformAligned,
		SrowX:     [4]float32{1, 0, 0, 0},
		SrowY:     [4]float32{0, 1, 0, 0},
		SrowZ:     [4]float32{0, 0, 1, 0},
		Magic:     magicSingleFile,
	}

	h.Dim[0] = int16(len(shape))
	for i := 1; i < 8; i++ {
		h.Dim[i] = 1
		h.Pixdim[i] = 1
	}
	for i, n := range shape {
		if n < 1 || n > 32767 {
			return nil, fmt.Errorf("%w: axis %d has length %d", ErrInvalidHeader, i, n)
		}
		h.Dim[i+1] = int16(n)
	}
	// qfac
	h.Pixdim[0] = 1

	return h, nil
}

// Shape returns the axis lengths declared by dim
func (h *Header) Shape() []int {
	n := int(h.Dim[0])
	shape := make([]int, n)
	for i := 0; i < n; i++ {
		shape[i] = int(h.Dim[i+1])
	}
	return shape
}

// Validate checks the fields this package relies on
func (h *Header) Validate() error {
	if h.SizeofHdr != HeaderSize {
		return fmt.Errorf("%w: sizeof_hdr is %d", ErrInvalidHeader, h.SizeofHdr)
	}
	if h.Magic != magicSingleFile {
		return fmt.Errorf("%w: magic %q", ErrInvalidHeader, h.Magic[:3])
	}
	if h.Dim[0] < 1 || h.Dim[0] > 7 {
		return fmt.Errorf("%w: dim[0] is %d", ErrInvalidHeader, h.Dim[0])
	}
	for i := 1; i <= int(h.Dim[0]); i++ {
		if h.Dim[i] < 1 {
			return fmt.Errorf("%w: dim[%d] is %d", ErrInvalidHeader, i, h.Dim[i])
		}
	}
	if h.Datatype.Bitpix() == 0 {
		return fmt.Errorf("%w: unsupported datatype %v", ErrInvalidHeader, h.Datatype)
	}
	if h.Bitpix != h.Datatype.Bitpix() {
		return fmt.Errorf("%w: bitpix %d does not match datatype %v", ErrInvalidHeader, h.Bitpix, h.Datatype)
	}
	if h.VoxOffset < HeaderSize {
		return fmt.Errorf("%w: vox_offset %g inside header", ErrInvalidHeader, h.VoxOffset)
	}
	return nil
}

// Scaled reports whether voxel values must be mapped through scl_slope and
// scl_inter. A zero or non-finite slope means no scaling.
func (h *Header) Scaled() bool {
	slope := float64(h.SclSlope)
	if slope == 0 || math.IsNaN(slope) || math.IsInf(slope, 0) {
		return false
	}
	return slope != 1 || h.SclInter != 0
}

// DecodeHeader reads a header from r, detecting its byte order
func DecodeHeader(r io.Reader) (*Header, binary.ByteOrder, error) {
	raw := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if binary.LittleEndian.Uint32(raw[:4]) != HeaderSize {
		order = binary.BigEndian
	}

	h := &Header{}
	if err := binary.Read(bytes.NewReader(raw), order, h); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if err := h.Validate(); err != nil {
		return nil, nil, err
	}

	return h, order, nil
}

// ReadHeader decodes the header of the file at path. Files ending in .gz
// are decompressed transparently.
func ReadHeader(path string) (*Header, error) {
	s, err := openStream(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.header, nil
}

// stream is an open image positioned just after its header
type stream struct {
	io.Reader
	header  *Header
	order   binary.ByteOrder
	closers []io.Closer
}

func openStream(path string) (*stream, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s := &stream{Reader: file, closers: []io.Closer{file}}

	if isGzip(path) {
		gr, err := gzip.NewReader(file)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		s.Reader = gr
		s.closers = append(s.closers, gr)
	}

	s.header, s.order, err = DecodeHeader(s.Reader)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Close releases the decompressor and the file, innermost first
func (s *stream) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func isGzip(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Description returns the descrip field as a string
func (h *Header) Description() string {
	return cstring(h.Descrip[:])
}
