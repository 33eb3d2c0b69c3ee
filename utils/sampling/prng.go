package sampling

import (
	"crypto/rand"
	"io"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// PRNG is a source of random bytes.
type PRNG interface {
	io.Reader
}

// NewPRNG returns a PRNG reading from the operating system's CSPRNG.
// It is safe for concurrent use.
func NewPRNG() (PRNG, error) {
	return rand.Reader, nil
}

// KeyedPRNG expands a key into a reproducible stream with the blake2b XOF.
// Concurrent reads are serialized, the stream is only reproducible when
// read in a fixed order.
type KeyedPRNG struct {
	mu  sync.Mutex
	xof blake2b.XOF
}

// NewKeyedPRNG returns the stream of key. Keys longer than 64 bytes are rejected.
func NewKeyedPRNG(key []byte) (*KeyedPRNG, error) {
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, key)
	if err != nil {
		return nil, err
	}
	return &KeyedPRNG{xof: xof}, nil
}

// Read fills sum with the next bytes of the stream.
func (prng *KeyedPRNG) Read(sum []byte) (n int, err error) {
	prng.mu.Lock()
	defer prng.mu.Unlock()
	return prng.xof.Read(sum)
}
