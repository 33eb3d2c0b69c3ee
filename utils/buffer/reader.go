package buffer

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadUint8 reads a byte from r and stores the result into *c.
func ReadUint8(r Reader, c *uint8) (n int, err error) {

	if c == nil {
		return 0, fmt.Errorf("cannot ReadUint8: c is nil")
	}

	var bb [1]byte
	if n, err = io.ReadFull(r, bb[:]); err != nil {
		return
	}

	*c = bb[0]

	return
}

// ReadUint32 reads an uint32 from r and stores the result into *c.
func ReadUint32(r Reader, c *uint32) (n int, err error) {

	if c == nil {
		return 0, fmt.Errorf("cannot ReadUint32: c is nil")
	}

	var bb [4]byte
	if n, err = io.ReadFull(r, bb[:]); err != nil {
		return
	}

	*c = binary.LittleEndian.Uint32(bb[:])

	return
}

// ReadUint64 reads an uint64 from r and stores the result into *c.
func ReadUint64(r Reader, c *uint64) (n int, err error) {

	if c == nil {
		return 0, fmt.Errorf("cannot ReadUint64: c is nil")
	}

	var bb [8]byte
	if n, err = io.ReadFull(r, bb[:]); err != nil {
		return
	}

	*c = binary.LittleEndian.Uint64(bb[:])

	return
}

// ReadInt64 reads an int64 from r and stores the result into *c.
func ReadInt64(r Reader, c *int64) (n int, err error) {

	if c == nil {
		return 0, fmt.Errorf("cannot ReadInt64: c is nil")
	}

	var u uint64
	if n, err = ReadUint64(r, &u); err != nil {
		return
	}

	*c = int64(u)

	return
}

// ReadUint64Slice reads len(c) values from r into c, decoding directly
// from the internal buffer of r whenever possible.
func ReadUint64Slice(r Reader, c []uint64) (n int, err error) {

	for len(c) > 0 {

		size := len(c) << 3
		if s := r.Size(); s < size {
			size = s &^ 7
		}

		// Internal buffer too small for a whole value: read through.
		if size == 0 {
			var inc int
			if inc, err = ReadUint64(r, &c[0]); err != nil {
				return n + inc, err
			}
			n += inc
			c = c[1:]
			continue
		}

		var slice []byte
		if slice, err = r.Peek(size); err != nil {
			return
		}

		buffered := len(slice) >> 3
		for i := 0; i < buffered; i++ {
			c[i] = binary.LittleEndian.Uint64(slice[i<<3:])
		}

		var inc int
		if inc, err = r.Discard(buffered << 3); err != nil {
			return n + inc, err
		}

		n += inc
		c = c[buffered:]
	}

	return
}
