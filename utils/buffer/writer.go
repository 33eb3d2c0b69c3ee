package buffer

import (
	"encoding/binary"
	"fmt"
)

// reserve makes sure at least size bytes are available in w, flushing once if needed.
func reserve(w Writer, size int, op string) (err error) {
	if w.Available() >= size {
		return
	}
	if err = w.Flush(); err != nil {
		return
	}
	if w.Available() < size {
		return fmt.Errorf("cannot %s: available buffer is smaller than %d bytes even after flush", op, size)
	}
	return
}

// Write writes a slice of bytes to w.
func Write(w Writer, c []byte) (n int64, err error) {
	nint, err := w.Write(c)
	return int64(nint), err
}

// WriteUint8 writes a byte c to w.
func WriteUint8(w Writer, c uint8) (n int64, err error) {
	if err = reserve(w, 1, "WriteUint8"); err != nil {
		return
	}
	nint, err := w.Write(append(w.AvailableBuffer(), c))
	return int64(nint), err
}

// WriteUint32 writes an uint32 c to w in little endian.
func WriteUint32(w Writer, c uint32) (n int64, err error) {
	if err = reserve(w, 4, "WriteUint32"); err != nil {
		return
	}
	nint, err := w.Write(binary.LittleEndian.AppendUint32(w.AvailableBuffer(), c))
	return int64(nint), err
}

// WriteUint64 writes an uint64 c to w in little endian.
func WriteUint64(w Writer, c uint64) (n int64, err error) {
	if err = reserve(w, 8, "WriteUint64"); err != nil {
		return
	}
	nint, err := w.Write(binary.LittleEndian.AppendUint64(w.AvailableBuffer(), c))
	return int64(nint), err
}

// WriteInt64 writes an int64 c to w in two's complement little endian.
func WriteInt64(w Writer, c int64) (n int64, err error) {
	return WriteUint64(w, uint64(c))
}

// WriteUint64Slice writes a slice of uint64 c to w, filling the internal
// buffer of w chunk by chunk.
func WriteUint64Slice(w Writer, c []uint64) (n int64, err error) {

	for len(c) > 0 {

		if err = reserve(w, 8, "WriteUint64Slice"); err != nil {
			return
		}

		chunk := w.Available() >> 3
		if chunk > len(c) {
			chunk = len(c)
		}

		buf := w.AvailableBuffer()
		for _, v := range c[:chunk] {
			buf = binary.LittleEndian.AppendUint64(buf, v)
		}

		var inc int
		if inc, err = w.Write(buf); err != nil {
			return n + int64(inc), err
		}

		n += int64(inc)
		c = c[chunk:]
	}

	return
}
