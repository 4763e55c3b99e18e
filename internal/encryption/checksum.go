package encryption

import "encoding/hex"

// ChecksumSize is the size of the checksum state in bytes.
const ChecksumSize = 32

// foldScale bounds the nonlinear increment added to a lane per input byte.
const foldScale = 127

// Checksummer accumulates the keyed checksum over a stream of bytes.
// The zero value is not usable; create one with NewChecksum.
type Checksummer struct {
	state [ChecksumSize]byte
	pos   uint64
}

// NewChecksum returns a Checksummer whose state is seeded from the first
// ChecksumSize keystream bytes of password.
func NewChecksum(password string) *Checksummer {
	c := &Checksummer{}

	_, _ = NewKeystream(DeriveSeed(password)).Read(c.state[:])

	return c
}

// Write folds p into the state. Lane selection continues from the previous
// call, so splitting the input across writes does not change the result.
func (c *Checksummer) Write(p []byte) (int, error) {
	for _, b := range p {
		lane := c.pos % ChecksumSize
		v := c.state[lane] ^ b
		c.state[lane] = v + byte(int(logistic(float64(v)/byteScale)*foldScale))
		c.pos++
	}

	return len(p), nil
}

// Sum returns the current state.
func (c *Checksummer) Sum() [ChecksumSize]byte {
	return c.state
}

// String returns the current state hex-encoded.
func (c *Checksummer) String() string {
	return hex.EncodeToString(c.state[:])
}

// Checksum returns the hex-encoded keyed checksum of data under password.
func Checksum(data []byte, password string) string {
	c := NewChecksum(password)

	_, _ = c.Write(data)

	return c.String()
}
