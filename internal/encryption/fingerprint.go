package encryption

import "encoding/hex"

// FingerprintSize is the number of keystream bytes in a fingerprint.
const FingerprintSize = 32

// Fingerprint returns the hex-encoded password fingerprint: the first
// FingerprintSize keystream bytes of the password's seed. It depends on the
// password alone and is used to reject a wrong password before any content
// is touched.
func Fingerprint(password string) string {
	return hex.EncodeToString(Bytes(DeriveSeed(password), FingerprintSize))
}
