package encryption

import "crypto/subtle"

// Sealed is the outcome of an encryption. The caller persists all three
// values and supplies Fingerprint and Checksum unchanged on decryption.
type Sealed struct {
	// Blob is the length-prefixed ciphertext. It is nil for streamed encryptions.
	Blob []byte

	// Fingerprint identifies the password.
	Fingerprint string

	// Checksum covers every byte of the blob, prefix included.
	Checksum string
}

// Encrypt seals data under password.
func Encrypt(data []byte, password string) (Sealed, error) {
	if len(data) == 0 {
		return Sealed{}, ErrEmptyInput
	}

	if uint64(len(data)) > MaxPlaintextSize {
		return Sealed{}, ErrInputTooLarge
	}

	header := newBlobHeader(uint32(len(data))) //nolint:gosec // checked against MaxPlaintextSize

	blob := make([]byte, HeaderSize+len(data))
	copy(blob, header[:])

	NewKeystream(DeriveSeed(password)).XORKeyStream(blob[HeaderSize:], data)

	return Sealed{
		Blob:        blob,
		Fingerprint: Fingerprint(password),
		Checksum:    Checksum(blob, password),
	}, nil
}

// Decrypt recovers the plaintext sealed in blob. Any rejection, whether a
// wrong password, a modified blob or a truncated one, is reported as
// ErrDecryptionFailed.
func Decrypt(blob []byte, password, fingerprint, checksum string) ([]byte, error) {
	body, err := verify(blob, password, fingerprint, checksum)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	plain := make([]byte, len(body))
	NewKeystream(DeriveSeed(password)).XORKeyStream(plain, body)

	return plain, nil
}

// verify checks blob against the expected fingerprint and checksum and returns
// the ciphertext bounded by the length prefix. Both values are always computed
// and compared in constant time.
func verify(blob []byte, password, fingerprint, checksum string) ([]byte, error) {
	fingerprintOK := subtle.ConstantTimeCompare([]byte(Fingerprint(password)), []byte(fingerprint)) == 1
	checksumOK := subtle.ConstantTimeCompare([]byte(Checksum(blob, password)), []byte(checksum)) == 1

	size, body, ok := parseBlobHeader(blob)

	switch {
	case !fingerprintOK:
		return nil, ErrAuthenticationMismatch
	case !checksumOK:
		return nil, ErrIntegrityMismatch
	case !ok || uint64(len(body)) < uint64(size):
		return nil, ErrLengthMismatch
	}

	return body[:size], nil
}
