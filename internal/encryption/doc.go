// Package encryption implements the Q-TDFP chaotic keystream scheme.
//
// A password is folded into a seed in (0,1). The seed drives a logistic map
// and a tent map whose averaged trajectories form a byte keystream. The same
// keystream yields:
//   - a 32-byte password fingerprint
//   - the initial state of a keyed 32-byte checksum over the ciphertext
//   - the XOR pad applied to the plaintext
//
// The scheme is obfuscation, not cryptography. Its constants are fixed so that
// previously stored blobs remain decryptable and must not be altered.
package encryption
