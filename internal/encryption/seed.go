package encryption

const (
	// MinSeed and MaxSeed bound every derived seed.
	MinSeed = 0.0001
	MaxSeed = 0.9999

	seedScale = float64(0xFFFFFFFF)
)

// DeriveSeed folds password into a seed in [MinSeed, MaxSeed].
// Characters are consumed by code point using 32-bit unsigned wraparound,
// so the result is identical on every platform.
func DeriveSeed(password string) float64 {
	var acc uint32

	for _, r := range password {
		acc = (acc << 5) - acc + uint32(r) //nolint:gosec // code points fit in 32 bits
		acc ^= acc >> 16
	}

	seed := float64(acc) / seedScale

	return min(MaxSeed, max(MinSeed, seed))
}
