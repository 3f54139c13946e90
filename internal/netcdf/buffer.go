package netcdf

import (
	"errors"
	"io"
)

// Buffer is an in-memory cdf.ReaderWriterAt.
type Buffer struct {
	b []byte
}

// NewBuffer returns a Buffer holding a copy of b.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{b: append([]byte(nil), b...)}
}

// ReadAt implements io.ReaderAt.
func (buf *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("netcdf: negative offset")
	}
	if off >= int64(len(buf.b)) {
		return 0, io.EOF
	}
	n := copy(p, buf.b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt, growing the buffer as needed.
func (buf *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("netcdf: negative offset")
	}
	if end := int(off) + len(p); end > len(buf.b) {
		buf.b = append(buf.b, make([]byte, end-len(buf.b))...)
	}
	return copy(buf.b[off:], p), nil
}

// Bytes returns the buffer contents.
func (buf *Buffer) Bytes() []byte {
	return buf.b
}
