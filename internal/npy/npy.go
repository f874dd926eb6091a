// Package npy reads and writes dense row-major float64 matrices in the NumPy .npy layout:
// a magic prefix, a length-prefixed ASCII header describing dtype and shape, then the raw
// little-endian payload.
package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperjump/mitsumori/internal/models"
)

const float64Size = 8

var (
	magic = []byte("\x93NUMPY")

	shapePattern   = regexp.MustCompile(`'shape':\s*\(\s*(\d+)\s*,\s*(\d+)\s*,?\s*\)`)
	descrPattern   = regexp.MustCompile(`'descr':\s*'([^']*)'`)
	fortranPattern = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
)

// Array is a rows × cols matrix stored row-major in Data.
type Array struct {
	Rows int
	Cols int
	Data []float64
}

// New returns an Array over data, which must hold exactly rows*cols values.
func New(rows, cols int, data []float64) (*Array, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid shape (%d, %d)", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("data length %d does not match shape (%d, %d)", len(data), rows, cols)
	}
	return &Array{Rows: rows, Cols: cols, Data: data}, nil
}

// FromRows copies a rectangular slice of rows into a new Array.
func FromRows(rows [][]float64) (*Array, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(r), cols)
		}
		data = append(data, r...)
	}
	return New(len(rows), cols, data)
}

// Row returns row i as a view into Data.
func (a *Array) Row(i int) []float64 {
	return a.Data[i*a.Cols : (i+1)*a.Cols : (i+1)*a.Cols]
}

// Load reads and parses the .npy file at path.
func Load(path string) (*Array, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read array file: %w", err)
	}
	arr, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return arr, nil
}

// Parse decodes a complete .npy byte stream. Every structural problem is reported
// as models.ErrCorruptArtifact.
func Parse(data []byte) (*Array, error) {
	if len(data) < len(magic)+4 || !bytes.Equal(data[:len(magic)], magic) {
		return nil, corrupt("missing .npy magic")
	}
	var headerLen, offset int
	switch major := data[6]; major {
	case 1:
		headerLen = int(binary.LittleEndian.Uint16(data[8:10]))
		offset = 10
	case 2, 3:
		if len(data) < 12 {
			return nil, corrupt("truncated header length")
		}
		headerLen = int(binary.LittleEndian.Uint32(data[8:12]))
		offset = 12
	default:
		return nil, corrupt("unsupported format version %d", major)
	}
	if headerLen > len(data)-offset {
		return nil, corrupt("truncated header: need %d bytes, have %d", headerLen, len(data)-offset)
	}
	header := string(data[offset : offset+headerLen])

	m := shapePattern.FindStringSubmatch(header)
	if m == nil {
		return nil, corrupt("cannot find 2-D shape in header %q", strings.TrimSpace(header))
	}
	rows, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, corrupt("bad row count %q", m[1])
	}
	cols, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, corrupt("bad column count %q", m[2])
	}
	if rows <= 0 || cols <= 0 {
		return nil, corrupt("non-positive shape (%d, %d)", rows, cols)
	}
	if d := descrPattern.FindStringSubmatch(header); d != nil && d[1] != "<f8" {
		return nil, corrupt("unsupported dtype %q, want <f8", d[1])
	}
	if f := fortranPattern.FindStringSubmatch(header); f != nil && f[1] == "True" {
		return nil, corrupt("fortran-ordered arrays are not supported")
	}

	payload := data[offset+headerLen:]
	if rows > math.MaxInt/float64Size/cols {
		return nil, corrupt("shape (%d, %d) overflows", rows, cols)
	}
	if want := rows * cols * float64Size; len(payload) != want {
		return nil, corrupt("payload is %d bytes, shape (%d, %d) needs %d", len(payload), rows, cols, want)
	}

	values := make([]float64, rows*cols)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*float64Size:]))
	}
	return &Array{Rows: rows, Cols: cols, Data: values}, nil
}

// Write encodes a as a version 1.0 .npy stream. The header is space-padded so the
// payload starts on a 64-byte boundary.
func Write(w io.Writer, a *Array) error {
	if a == nil || a.Rows <= 0 || a.Cols <= 0 || len(a.Data) != a.Rows*a.Cols {
		return fmt.Errorf("invalid array")
	}
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%d, %d), }", a.Rows, a.Cols)
	prefix := len(magic) + 4
	pad := (64 - (prefix+len(header)+1)%64) % 64
	header += strings.Repeat(" ", pad) + "\n"
	if len(header) > math.MaxUint16 {
		return fmt.Errorf("header too long")
	}

	buf := make([]byte, 0, prefix+len(header)+len(a.Data)*float64Size)
	buf = append(buf, magic...)
	buf = append(buf, 1, 0)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(header)))
	buf = append(buf, header...)
	for _, v := range a.Data {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	_, err := w.Write(buf)
	return err
}

// Save writes a to path in .npy format.
func Save(path string, a *Array) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create array file: %w", err)
	}
	if err := Write(f, a); err != nil {
		_ = f.Close()
		return fmt.Errorf("write array file: %w", err)
	}
	return f.Close()
}

func corrupt(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", models.ErrCorruptArtifact, fmt.Sprintf(format, args...))
}
