// Package buffer reads and writes fixed-width little-endian values through
// buffered writers and readers, such as bufio.Writer, bufio.Reader and Buffer.
package buffer

import (
	"fmt"
	"io"
)

// Writer is a buffered writer whose free space can be written in place.
type Writer interface {
	io.Writer
	Flush() (err error)
	AvailableBuffer() []byte
	Available() int
}

// Reader is a buffered reader whose content can be read in place.
type Reader interface {
	io.Reader
	Size() int
	Peek(n int) ([]byte, error)
	Discard(n int) (discarded int, err error)
}

// Buffer is a fixed-capacity Writer and Reader over a byte slice, used by
// the MarshalBinary and UnmarshalBinary methods of the encoded types.
type Buffer struct {
	buf []byte
	w   int
	r   int
}

// NewBuffer returns a Buffer reading from p.
func NewBuffer(p []byte) *Buffer {
	return &Buffer{buf: p}
}

// NewBufferSize returns an empty Buffer of the given capacity.
func NewBufferSize(size int) *Buffer {
	return &Buffer{buf: make([]byte, size)}
}

func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p) > b.Available() {
		return 0, fmt.Errorf("buffer: writing %d bytes with %d available", len(p), b.Available())
	}
	n = copy(b.buf[b.w:], p)
	b.w += n
	return
}

// Flush is a no-op.
func (b *Buffer) Flush() error {
	return nil
}

// AvailableBuffer returns an empty slice over the free space of b, valid
// until the next write.
func (b *Buffer) AvailableBuffer() []byte {
	return b.buf[b.w:b.w]
}

// Available returns the free space of b.
func (b *Buffer) Available() int {
	return len(b.buf) - b.w
}

// Bytes returns the written bytes.
func (b *Buffer) Bytes() []byte {
	return b.buf[:b.w]
}

func (b *Buffer) Read(p []byte) (n int, err error) {
	if n = copy(p, b.buf[b.r:]); n < len(p) {
		err = io.EOF
	}
	b.r += n
	return
}

// Size returns the number of unread bytes.
func (b *Buffer) Size() int {
	return len(b.buf) - b.r
}

// Peek returns the next n unread bytes without consuming them.
func (b *Buffer) Peek(n int) ([]byte, error) {
	if n > b.Size() {
		return b.buf[b.r:], io.EOF
	}
	return b.buf[b.r : b.r+n], nil
}

// Discard consumes the next n unread bytes.
func (b *Buffer) Discard(n int) (discarded int, err error) {
	if n > b.Size() {
		n, err = b.Size(), io.EOF
	}
	b.r += n
	return n, err
}
