package encryption

import (
	"encoding/binary"
	"math"
)

// HeaderSize is the size of the big-endian plaintext length prefix.
const HeaderSize = 4

// MaxPlaintextSize is the largest plaintext the length prefix can describe.
const MaxPlaintextSize = math.MaxUint32

func newBlobHeader(size uint32) [HeaderSize]byte {
	var header [HeaderSize]byte

	binary.BigEndian.PutUint32(header[:], size)

	return header
}

// parseBlobHeader returns the plaintext length announced by blob and the
// ciphertext that follows it.
func parseBlobHeader(blob []byte) (uint32, []byte, bool) {
	if len(blob) < HeaderSize {
		return 0, nil, false
	}

	return binary.BigEndian.Uint32(blob[:HeaderSize]), blob[HeaderSize:], true
}

// SealedSize returns the blob size for a plaintext of n bytes.
func SealedSize(n int64) int64 {
	return n + HeaderSize
}
