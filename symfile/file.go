package symfile

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"fortio.org/safecast"
	"github.com/pkg/errors"
)

// Version is the version of the symbol file format.  Files with a different
// version are rejected on import.
const Version = 5

// Writer writes the primitive values of the symbol file format.  All values
// are little-endian.  The first error encountered is sticky: subsequent writes
// do nothing and the error is returned by Flush.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter creates a new symbol file writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) write(v interface{}) {
	if w.err == nil {
		w.err = binary.Write(w.w, binary.LittleEndian, v)
	}
}

// WriteChar writes a signed byte.
func (w *Writer) WriteChar(v int8) {
	w.write(v)
}

// WriteShort writes a 2-byte integer.
func (w *Writer) WriteShort(v int16) {
	w.write(v)
}

// WriteInt writes a 4-byte integer.
func (w *Writer) WriteInt(v int32) {
	w.write(v)
}

// WriteLong writes an 8-byte integer.
func (w *Writer) WriteLong(v int64) {
	w.write(v)
}

// WriteFloat writes a 4-byte real.
func (w *Writer) WriteFloat(v float32) {
	w.write(math.Float32bits(v))
}

// WriteDouble writes an 8-byte real.
func (w *Writer) WriteDouble(v float64) {
	w.write(math.Float64bits(v))
}

// WriteString writes a string prefixed by its 8-byte length.
func (w *Writer) WriteString(v string) {
	w.write(uint64(len(v)))
	if w.err == nil {
		_, w.err = w.w.WriteString(v)
	}
}

// WriteRef writes a type reference number as a signed byte.  Reference
// numbers beyond the range of a byte are an error.
func (w *Writer) WriteRef(ref int) {
	v, err := safecast.Conv[int8](ref)
	if err != nil {
		w.fail(errors.Wrapf(err, "type reference %d out of range", ref))
		return
	}

	w.WriteChar(v)
}

// WriteCount writes a length, size or offset as a 4-byte integer.
func (w *Writer) WriteCount(n int) {
	v, err := safecast.Conv[int32](n)
	if err != nil {
		w.fail(errors.Wrapf(err, "value %d out of range", n))
		return
	}

	w.WriteInt(v)
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Flush writes any buffered data and returns the first error encountered.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}

	return w.w.Flush()
}

// -----------------------------------------------------------------------------

// Reader reads the primitive values of the symbol file format.  Like the
// writer, it keeps the first error encountered: all values read after an error
// are zero.
type Reader struct {
	r   *bufio.Reader
	err error
}

// NewReader creates a new symbol file reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

func (r *Reader) read(v interface{}) {
	if r.err == nil {
		if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
			r.err = errors.Wrap(err, "truncated symbol file")
		}
	}
}

// Err returns the first error encountered while reading.
func (r *Reader) Err() error {
	return r.err
}

// ReadChar reads a signed byte.
func (r *Reader) ReadChar() int8 {
	var v int8
	r.read(&v)
	return v
}

// ReadShort reads a 2-byte integer.
func (r *Reader) ReadShort() int16 {
	var v int16
	r.read(&v)
	return v
}

// ReadInt reads a 4-byte integer.
func (r *Reader) ReadInt() int32 {
	var v int32
	r.read(&v)
	return v
}

// ReadLong reads an 8-byte integer.
func (r *Reader) ReadLong() int64 {
	var v int64
	r.read(&v)
	return v
}

// ReadFloat reads a 4-byte real.
func (r *Reader) ReadFloat() float32 {
	var v uint32
	r.read(&v)
	return math.Float32frombits(v)
}

// ReadDouble reads an 8-byte real.
func (r *Reader) ReadDouble() float64 {
	var v uint64
	r.read(&v)
	return math.Float64frombits(v)
}

// maxStringLen bounds the length of strings to guard against corrupt files.
const maxStringLen = 1 << 20

// ReadString reads a string prefixed by its 8-byte length.
func (r *Reader) ReadString() string {
	var n uint64
	r.read(&n)
	if r.err != nil {
		return ""
	}

	if n > maxStringLen {
		r.err = errors.Errorf("invalid string length %d in symbol file", n)
		return ""
	}

	buff := make([]byte, n)
	if _, err := io.ReadFull(r.r, buff); err != nil {
		r.err = errors.Wrap(err, "truncated symbol file")
		return ""
	}

	return string(buff)
}
