package encryption

const (
	logisticR     = 3.99
	tentMu        = 1.99
	tentThreshold = 0.5
	warmupSteps   = 100
	byteScale     = 256
)

func logistic(x float64) float64 {
	return logisticR * x * (1 - x)
}

func tent(y float64) float64 {
	if y < tentThreshold {
		return tentMu * y
	}

	return tentMu * (1 - y)
}

// Keystream is a lazily evaluated byte sequence driven by a logistic and a
// tent map seeded with the same value. It implements cipher.Stream and
// io.Reader.
//
// A Keystream is not safe for concurrent use. Two generators built from the
// same seed produce identical sequences.
type Keystream struct {
	x, y float64
}

// NewKeystream returns a generator positioned at the first output byte,
// after the warm-up iterations have been discarded.
func NewKeystream(seed float64) *Keystream {
	ks := &Keystream{x: seed, y: tent(seed)}

	for range warmupSteps {
		ks.step()
	}

	return ks
}

func (k *Keystream) step() {
	k.x = logistic(k.x)
	k.y = tent(k.y)
}

// Next advances both maps once and returns the next keystream byte.
func (k *Keystream) Next() byte {
	k.step()

	return byte(int(((k.x+k.y)/2)*byteScale) & 0xFF) //nolint:gosec // masked to a byte
}

// XORKeyStream XORs each byte in src with the next keystream byte and writes
// the result to dst. dst must be at least as long as src.
func (k *Keystream) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("encryption: output smaller than input")
	}

	for i, b := range src {
		dst[i] = b ^ k.Next()
	}
}

// Read fills p with keystream bytes. It never fails.
func (k *Keystream) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = k.Next()
	}

	return len(p), nil
}

// Bytes returns the first n bytes of the keystream for seed.
func Bytes(seed float64, n int) []byte {
	out := make([]byte, n)

	_, _ = NewKeystream(seed).Read(out)

	return out
}
